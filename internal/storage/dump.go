package storage

import (
	"fmt"
	"io"
	"os"
	"time"
)

// DumpSegment prints the records of a segment file for debugging. head limits
// the number of records printed; zero or less prints all of them.
func DumpSegment(w io.Writer, path string, head int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	headerBuf := make([]byte, HeaderSize)
	recordNum := 0
	var pos int64

	for {
		_, err := io.ReadFull(f, headerBuf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading header %d: %w", recordNum, err)
		}

		var h RecordHeader
		h.Decode(headerBuf)

		payload := make([]byte, h.PayloadSize)
		if h.PayloadSize > 0 {
			if _, err := io.ReadFull(f, payload); err != nil {
				return fmt.Errorf("reading payload %d: %w", recordNum, err)
			}
		}

		fmt.Fprintf(w, "Record #%d @%d\n", recordNum, pos)
		fmt.Fprintf(w, "  Key:       %s\n", h.Key)
		fmt.Fprintf(w, "  Size:      %d\n", h.PayloadSize)
		fmt.Fprintf(w, "  Timestamp: %d (%s)\n", h.Timestamp, time.Unix(0, int64(h.Timestamp)).UTC())
		if h.Tombstone() {
			fmt.Fprintf(w, "  Tombstone\n")
		} else {
			fmt.Fprintf(w, "  Payload:   %x\n", truncate(payload, 64))
		}
		fmt.Fprintln(w)

		pos += h.Size()
		recordNum++
		if recordNum == head {
			break
		}
	}

	fmt.Fprintf(w, "Total: %d records\n", recordNum)
	return nil
}

func truncate(b []byte, max int) []byte {
	if len(b) <= max {
		return b
	}
	return b[:max]
}

func TimeNowInUtc() time.Time {
	return time.Now().UTC()
}
