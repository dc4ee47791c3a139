package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	asyncwriter "github.com/mvaleed/slotvec/internal/storage/async-writer"
	"github.com/mvaleed/slotvec/internal/storage/mmap"
)

// errTornRecord reports a record that runs past the end of its segment,
// which happens when the process died halfway through an append.
var errTornRecord = errors.New("segment ends inside a record")

// segment is one append-only file of slot records. Records are never
// rewritten in place: a newer record for the same key shadows the older one.
type segment struct {
	mu       sync.RWMutex
	id       uint32
	path     string
	readOnly bool
	file     *os.File
	reader   *mmap.Region
	size     int64 // next append position

	writeFunc func([]byte) (int, error)
	flushFunc func() error
	closeFunc func() error
}

func openSegmentReadOnly(path string, id uint32) (*segment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	return &segment{
		id:       id,
		path:     path,
		readOnly: true,
		reader:   reader,
		size:     info.Size(),
		writeFunc: func([]byte) (int, error) {
			return 0, ErrReadOnly
		},
		flushFunc: func() error { return nil },
		closeFunc: func() error { return nil },
	}, nil
}

func openSegment(path string, id uint32, durability Durability, writerBufferSize int) (*segment, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	var writeFunc func([]byte) (int, error)
	var flushFunc func() error
	var closeFunc func() error

	switch durability {
	case DurabilityOS, DurabilityDisk:
		writer := bufio.NewWriterSize(f, writerBufferSize)

		writeFunc = func(data []byte) (int, error) {
			n, err := writer.Write(data)
			if err != nil {
				return n, err
			}
			if err := writer.Flush(); err != nil {
				return 0, err
			}
			if durability == DurabilityDisk {
				if err := f.Sync(); err != nil {
					return 0, err
				}
			}
			return n, nil
		}
		flushFunc = writer.Flush
		closeFunc = writer.Flush
	default:
		asyncWriter := asyncwriter.NewAsyncWriterSize(f, writerBufferSize)

		writeFunc = asyncWriter.Write
		flushFunc = asyncWriter.Flush
		closeFunc = asyncWriter.Close
	}

	return &segment{
		id:        id,
		path:      path,
		file:      f,
		reader:    reader,
		size:      info.Size(),
		writeFunc: writeFunc,
		flushFunc: flushFunc,
		closeFunc: closeFunc,
	}, nil
}

// append writes one record and returns the position it starts at.
func (s *segment) append(header RecordHeader, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return 0, ErrReadOnly
	}

	header.PayloadSize = uint64(len(payload))

	buf := make([]byte, HeaderSize+len(payload))
	header.Encode(buf[:HeaderSize])
	copy(buf[HeaderSize:], payload)
	if _, err := s.writeFunc(buf); err != nil {
		return 0, fmt.Errorf("error writing record: %w", err)
	}

	pos := s.size
	s.size += int64(len(buf))
	return pos, nil
}

// visible makes everything appended so far readable through the mapping.
// LOCK STRATEGY: caller holds the exclusive lock.
func (s *segment) visible() error {
	if err := s.flushFunc(); err != nil {
		return fmt.Errorf("failed to flush segment writer: %w", err)
	}
	return s.reader.Sync()
}

// readRecord returns the record of payloadSize bytes starting at pos. The
// payload is copied out of the mapping.
// LOCK STRATEGY: Mixed.
// 1. Lock() to flush and remap when the record lies past the mapped end.
// 2. RLock() to read.
func (s *segment) readRecord(pos int64, payloadSize uint64) (Record, error) {
	end := pos + HeaderSize + int64(payloadSize)
	if err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if end <= s.reader.Size() {
			return nil
		}
		return s.visible()
	}(); err != nil {
		return Record{}, fmt.Errorf("failed to sync segment %d: %w", s.id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, err := s.reader.ReadAt(pos, HeaderSize+int(payloadSize))
	if err != nil {
		return Record{}, fmt.Errorf("failed to read record at %d: %w", pos, err)
	}

	var header RecordHeader
	header.Decode(buf[:HeaderSize])
	if header.PayloadSize != payloadSize {
		return Record{}, fmt.Errorf("%w: segment %d pos %d", ErrCorruptRecord, s.id, pos)
	}

	return Record{Header: header, Payload: bytes.Clone(buf[HeaderSize:])}, nil
}

// scanFrom walks the records from startPos to the end of the segment. handleFn
// returns true to stop early. The returned position is the end of the last
// complete record visited; it is short of the segment size only when the
// segment ends in a torn record, in which case errTornRecord is returned too.
func (s *segment) scanFrom(startPos int64, handleFn func(r Record, pos int64) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.visible(); err != nil {
		return startPos, err
	}

	end := s.reader.Size()
	currentPos := startPos
	for currentPos < end {
		if currentPos+HeaderSize > end {
			return currentPos, errTornRecord
		}
		headerBuf, err := s.reader.ReadAt(currentPos, HeaderSize)
		if err != nil {
			return currentPos, err
		}

		var header RecordHeader
		header.Decode(headerBuf)

		if currentPos+header.Size() > end {
			return currentPos, errTornRecord
		}
		payload, err := s.reader.ReadAt(currentPos+HeaderSize, int(header.PayloadSize))
		if err != nil {
			return currentPos, err
		}

		if handleFn(Record{Header: header, Payload: payload}, currentPos) {
			return currentPos + header.Size(), nil
		}
		currentPos += header.Size()
	}
	return currentPos, nil
}

// truncate drops a torn tail so the next append starts on a record boundary.
func (s *segment) truncate(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.flushFunc(); err != nil {
		return err
	}
	if err := s.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate torn segment tail: %w", err)
	}

	// The old mapping covers bytes past the new end of file.
	if err := s.reader.Close(); err != nil {
		return err
	}
	reader, err := mmap.Open(s.path)
	if err != nil {
		return err
	}
	s.reader = reader
	s.size = size
	return nil
}

func (s *segment) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *segment) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushFunc()
}

func (s *segment) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writerErr := s.closeFunc()
	var syncErr, fileErr error
	if s.file != nil {
		syncErr = s.file.Sync()
		fileErr = s.file.Close()
	}
	readerErr := s.reader.Close()
	return errors.Join(writerErr, syncErr, readerErr, fileErr)
}
