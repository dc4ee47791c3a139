package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/mvaleed/slotvec/internal/storage/mmap"
)

/*
  ALGORITHM: Hint assisted keydir rebuild
  ------------------------------------------------------------------
  The hint file is a snapshot of the keydir taken when the store was last
  closed or compacted, plus the log position the snapshot is complete up to.

  Example:
  Segments: 000..000.seg (closed), 000..001.seg (active, 4096 bytes)
  Hint:     Segment 1, Covered 3000

  1. Load every hint entry into the keydir (mmap, fixed width entries).
  2. Segment 0 is before the hint segment: already covered, skip it.
  3. Segment 1 is the hint segment: scan records from byte 3000 onward.
  4. Any segment after 1 is scanned from byte 0.

  A hint with a torn tail keeps its whole entries; a hint from another store
  (different store id) or with a bad magic is ignored and every segment is
  scanned from the start.
*/

const hintFileName = "slots.hint"

var errHintInvalid = errors.New("hint file is not valid for this store")

// readHint loads the header and all whole entries of the hint file. The bool
// result is true when the file ended in a partial entry.
func readHint(path string) (hintHeader, []hintEntry, bool, error) {
	region, err := mmap.Open(path)
	if err != nil {
		return hintHeader{}, nil, false, err
	}
	defer region.Close()

	if region.Size() < int64(hintHeaderWidth) {
		return hintHeader{}, nil, false, errHintInvalid
	}

	headerBuf, err := region.ReadAt(0, hintHeaderWidth)
	if err != nil {
		return hintHeader{}, nil, false, err
	}
	var header hintHeader
	if !header.Unmarshal(headerBuf) {
		return hintHeader{}, nil, false, errHintInvalid
	}

	body := region.Size() - int64(hintHeaderWidth)
	total := int(body / hintEntryWidth)
	torn := body%hintEntryWidth != 0

	entries := make([]hintEntry, 0, total)
	for i := range total {
		chunk, err := region.ReadAt(int64(hintHeaderWidth)+int64(i)*hintEntryWidth, hintEntryWidth)
		if err != nil {
			return hintHeader{}, nil, false, fmt.Errorf("failed to read hint entry %d: %w", i, err)
		}
		var entry hintEntry
		entry.Unmarshal(chunk)
		entries = append(entries, entry)
	}

	return header, entries, torn, nil
}

// writeHint replaces the hint file atomically. Entries are written in key
// order so the same keydir always produces the same file.
func writeHint(path string, header hintHeader, entries []hintEntry) error {
	slices.SortFunc(entries, func(a, b hintEntry) int {
		return bytes.Compare(a.Key[:], b.Key[:])
	})

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	writer := bufio.NewWriterSize(f, hintEntryWidth*64)

	var headerBuf [hintHeaderWidth]byte
	header.Marshal(headerBuf[:])
	if _, err := writer.Write(headerBuf[:]); err != nil {
		f.Close()
		return err
	}

	var buf [hintEntryWidth]byte
	for _, entry := range entries {
		entry.Marshal(buf[:])
		if _, err := writer.Write(buf[:]); err != nil {
			f.Close()
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush hint writer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync hint file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
