package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	segmentSuffix   = ".seg"
	segmentNameFill = 15
	storeIDFileName = "STOREID"
)

func segmentName(id uint32) string {
	return fmt.Sprintf("%0*d%s", segmentNameFill, id, segmentSuffix)
}

func parseSegmentName(name string) (uint32, bool) {
	digits, ok := strings.CutSuffix(name, segmentSuffix)
	if !ok || len(digits) != segmentNameFill {
		return 0, false
	}
	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

// keydirEntry locates the live record of a slot.
type keydirEntry struct {
	segment     uint32
	pos         int64
	payloadSize uint64
	timestamp   uint64
}

// FileStore is a persistent Store laid out as a directory of append-only
// segments. Every Set or Clear appends a record; an in-memory keydir maps each
// occupied slot to its newest record. The keydir is rebuilt on open from the
// hint file and whatever part of the log the hint does not cover.
//
// FileStore is safe for concurrent use.
type FileStore struct {
	mu       sync.RWMutex
	id       uuid.UUID
	dir      string
	opts     Options
	log      *slog.Logger
	segments []*segment // ordered by id, the last one is active
	keydir   map[Key]keydirEntry
	closed   bool
}

// Open opens or creates the store in dir.
func Open(dir string, opts ...Option) (*FileStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !o.ReadOnly {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	id, err := loadStoreID(dir, o.ReadOnly)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		id:     id,
		dir:    dir,
		opts:   o,
		log:    o.Logger.With(slog.String("store_id", id.String()), slog.String("path", dir)),
		keydir: make(map[Key]keydirEntry),
	}

	if err := s.openSegments(); err != nil {
		s.closeSegments()
		return nil, err
	}
	if err := s.rebuildKeydir(); err != nil {
		s.closeSegments()
		return nil, fmt.Errorf("failed to rebuild keydir: %w", err)
	}

	s.log.Info("store opened",
		slog.Int("segments", len(s.segments)),
		slog.Int("slots", len(s.keydir)),
		slog.String("durability", o.Durability.String()),
		slog.Bool("read_only", o.ReadOnly),
	)
	return s, nil
}

func loadStoreID(dir string, readOnly bool) (uuid.UUID, error) {
	path := filepath.Join(dir, storeIDFileName)
	raw, err := os.ReadFile(path)
	if err == nil {
		id, err := uuid.ParseBytes([]byte(strings.TrimSpace(string(raw))))
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid store id in %s: %w", path, err)
		}
		return id, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return uuid.Nil, err
	}
	if readOnly {
		return uuid.Nil, fmt.Errorf("no store in %s: %w", dir, err)
	}

	id := uuid.New()
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o644); err != nil {
		return uuid.Nil, fmt.Errorf("failed to write store id: %w", err)
	}
	return id, nil
}

func (s *FileStore) openSegments() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	ids := make([]uint32, 0, len(entries))
	for _, entry := range entries {
		if id, ok := parseSegmentName(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if len(ids) == 0 {
		if s.opts.ReadOnly {
			return nil
		}
		ids = append(ids, 0)
	}

	for i, id := range ids {
		path := filepath.Join(s.dir, segmentName(id))
		var seg *segment
		if i == len(ids)-1 && !s.opts.ReadOnly {
			seg, err = openSegment(path, id, s.opts.Durability, s.opts.WriterBufferSize)
		} else {
			seg, err = openSegmentReadOnly(path, id)
		}
		if err != nil {
			return fmt.Errorf("failed to open segment %s: %w", path, err)
		}
		s.segments = append(s.segments, seg)
	}
	return nil
}

// rebuildKeydir loads the hint, then replays the log it does not cover.
func (s *FileStore) rebuildKeydir() error {
	startSegment, startPos := uint32(0), int64(0)

	header, entries, torn, err := readHint(filepath.Join(s.dir, hintFileName))
	switch {
	case err == nil && header.StoreID == s.id:
		for _, e := range entries {
			s.keydir[e.Key] = keydirEntry{
				segment:     e.Segment,
				pos:         int64(e.Pos),
				payloadSize: e.PayloadSize,
				timestamp:   e.Timestamp,
			}
		}
		startSegment, startPos = header.Segment, int64(header.Covered)
		if torn {
			s.log.Warn("hint file has a torn tail, partial entry ignored")
		}
		s.log.Debug("hint loaded", slog.Int("records", len(entries)), slog.Uint64("segment", uint64(header.Segment)))
	case err == nil, errors.Is(err, errHintInvalid):
		s.log.Warn("hint file ignored, replaying every segment")
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}

	for i, seg := range s.segments {
		if seg.id < startSegment {
			continue
		}
		from := int64(0)
		if seg.id == startSegment {
			from = startPos
		}

		replayed := 0
		end, err := seg.scanFrom(from, func(r Record, pos int64) bool {
			s.apply(seg.id, pos, r.Header)
			replayed++
			return false
		})
		if errors.Is(err, errTornRecord) && i == len(s.segments)-1 && !s.opts.ReadOnly {
			s.log.Warn("truncating torn segment tail",
				slog.Uint64("segment", uint64(seg.id)),
				slog.Int64("valid_bytes", end),
				slog.Int64("size", seg.Size()),
			)
			err = seg.truncate(end)
		}
		if err != nil {
			return fmt.Errorf("segment %d: %w", seg.id, err)
		}
		s.log.Debug("segment replayed", slog.Uint64("segment", uint64(seg.id)), slog.Int("records", replayed))
	}
	return nil
}

func (s *FileStore) apply(segmentID uint32, pos int64, h RecordHeader) {
	if h.Tombstone() {
		delete(s.keydir, h.Key)
		return
	}
	s.keydir[h.Key] = keydirEntry{
		segment:     segmentID,
		pos:         pos,
		payloadSize: h.PayloadSize,
		timestamp:   h.Timestamp,
	}
}

// ID returns the identity stamped on the store directory when it was created.
func (s *FileStore) ID() uuid.UUID {
	return s.id
}

func (s *FileStore) Dir() string {
	return s.dir
}

// SegmentPaths lists the segment files in log order.
func (s *FileStore) SegmentPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.segments))
	for _, seg := range s.segments {
		paths = append(paths, seg.path)
	}
	return paths
}

// Len returns the number of occupied slots.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keydir)
}

func (s *FileStore) segmentByID(id uint32) (*segment, bool) {
	i, found := slices.BinarySearchFunc(s.segments, id, func(seg *segment, target uint32) int {
		switch {
		case seg.id < target:
			return -1
		case seg.id > target:
			return 1
		}
		return 0
	})
	if !found {
		return nil, false
	}
	return s.segments[i], true
}

func (s *FileStore) active() *segment {
	return s.segments[len(s.segments)-1]
}

func (s *FileStore) Get(key Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	entry, ok := s.keydir[key]
	if !ok {
		return nil, false, nil
	}

	seg, ok := s.segmentByID(entry.segment)
	if !ok {
		return nil, false, fmt.Errorf("%w: slot %s points at missing segment %d", ErrCorruptRecord, key, entry.segment)
	}

	record, err := seg.readRecord(entry.pos, entry.payloadSize)
	if err != nil {
		return nil, false, err
	}
	if record.Header.Key != key || record.Header.Tombstone() {
		return nil, false, fmt.Errorf("%w: slot %s at segment %d pos %d", ErrCorruptRecord, key, entry.segment, entry.pos)
	}
	return record.Payload, true, nil
}

func (s *FileStore) Set(key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(RecordHeader{Key: key, Timestamp: uint64(TimeNowInUtc().UnixNano())}, value)
}

func (s *FileStore) Clear(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.keydir[key]; !ok {
		return nil
	}
	return s.appendLocked(RecordHeader{
		Key:       key,
		Timestamp: uint64(TimeNowInUtc().UnixNano()),
		Flags:     FlagTombstone,
	}, nil)
}

// LOCK STRATEGY: caller holds the exclusive lock.
func (s *FileStore) appendLocked(header RecordHeader, payload []byte) error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.opts.ReadOnly {
		return ErrReadOnly
	}

	if err := s.rotate(); err != nil {
		return fmt.Errorf("error appending slot record because rotation failed: %w", err)
	}

	active := s.active()
	pos, err := active.append(header, payload)
	if err != nil {
		return fmt.Errorf("error appending slot record: %w", err)
	}

	header.PayloadSize = uint64(len(payload))
	s.apply(active.id, pos, header)
	return nil
}

// rotate seals the active segment once it reached the size limit and opens
// the next one.
func (s *FileStore) rotate() error {
	active := s.active()
	if active.Size() < s.opts.MaxSegmentBytes {
		return nil
	}

	if err := active.flush(); err != nil {
		return fmt.Errorf("error while flushing active segment: %w", err)
	}

	next, err := openSegment(filepath.Join(s.dir, segmentName(active.id+1)), active.id+1, s.opts.Durability, s.opts.WriterBufferSize)
	if err != nil {
		return fmt.Errorf("error while creating new active segment: %w", err)
	}
	s.segments = append(s.segments, next)

	s.log.Debug("segment rotated",
		slog.Uint64("sealed", uint64(active.id)),
		slog.Uint64("segment", uint64(next.id)),
		slog.Int64("sealed_bytes", active.Size()),
	)
	return nil
}

// Compact rewrites every live slot into a fresh segment and deletes the old
// segments, dropping shadowed records and tombstones.
//
// The old segments are only removed once a hint describing the compacted
// segment is in place. A failed compaction removes its partial segment and
// leaves the store as it was.
func (s *FileStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.opts.ReadOnly {
		return ErrReadOnly
	}

	old := s.segments
	nextID := s.active().id + 1
	path := filepath.Join(s.dir, segmentName(nextID))
	target, err := openSegment(path, nextID, DurabilityOS, s.opts.WriterBufferSize)
	if err != nil {
		return fmt.Errorf("failed to open compaction segment: %w", err)
	}

	compacted, err := s.copyLive(target)
	if err != nil {
		return errors.Join(err, target.close(), os.Remove(path))
	}
	if err := target.close(); err != nil {
		return errors.Join(fmt.Errorf("failed to seal compaction segment: %w", err), os.Remove(path))
	}
	// Reopen with the configured durability for further appends.
	active, err := openSegment(path, nextID, s.opts.Durability, s.opts.WriterBufferSize)
	if err != nil {
		return errors.Join(err, os.Remove(path))
	}

	if err := s.snapshotHint(active, compacted); err != nil {
		return errors.Join(err, active.close(), os.Remove(path))
	}

	var removeErrs []error
	for _, seg := range old {
		removeErrs = append(removeErrs, seg.close(), os.Remove(seg.path))
	}

	s.segments = []*segment{active}
	s.keydir = compacted

	s.log.Info("store compacted",
		slog.Int("removed_segments", len(old)),
		slog.Int("slots", len(compacted)),
		slog.Int64("bytes", active.Size()),
	)

	return errors.Join(removeErrs...)
}

// copyLive appends the live record of every slot to target, in key order,
// and returns the keydir of target.
// LOCK STRATEGY: caller holds the exclusive lock.
func (s *FileStore) copyLive(target *segment) (map[Key]keydirEntry, error) {
	keys := make([]Key, 0, len(s.keydir))
	for key := range s.keydir {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b Key) int { return bytes.Compare(a[:], b[:]) })

	compacted := make(map[Key]keydirEntry, len(keys))
	for _, key := range keys {
		entry := s.keydir[key]
		seg, ok := s.segmentByID(entry.segment)
		if !ok {
			return nil, fmt.Errorf("%w: slot %s points at missing segment %d", ErrCorruptRecord, key, entry.segment)
		}
		record, err := seg.readRecord(entry.pos, entry.payloadSize)
		if err != nil {
			return nil, err
		}
		pos, err := target.append(record.Header, record.Payload)
		if err != nil {
			return nil, err
		}
		entry.segment, entry.pos = target.id, pos
		compacted[key] = entry
	}
	return compacted, nil
}

// snapshotHint writes keydir to the hint file, complete up to the current
// end of active.
func (s *FileStore) snapshotHint(active *segment, keydir map[Key]keydirEntry) error {
	entries := make([]hintEntry, 0, len(keydir))
	for key, e := range keydir {
		entries = append(entries, hintEntry{
			Key:         key,
			Segment:     e.segment,
			Pos:         uint64(e.pos),
			PayloadSize: e.payloadSize,
			Timestamp:   e.timestamp,
		})
	}
	header := hintHeader{StoreID: s.id, Segment: active.id, Covered: uint64(active.Size())}
	if err := writeHint(filepath.Join(s.dir, hintFileName), header, entries); err != nil {
		return fmt.Errorf("failed to write hint: %w", err)
	}
	return nil
}

// Close flushes pending appends, snapshots the keydir into the hint file and
// releases every segment.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var hintErr error
	if !s.opts.ReadOnly && len(s.segments) > 0 {
		if err := s.active().flush(); err != nil {
			hintErr = err
		} else {
			hintErr = s.snapshotHint(s.active(), s.keydir)
		}
	}

	return errors.Join(hintErr, s.closeSegments())
}

func (s *FileStore) closeSegments() error {
	errs := make([]error, 0, len(s.segments))
	for _, seg := range s.segments {
		errs = append(errs, seg.close())
	}
	return errors.Join(errs...)
}

var _ Store = (*FileStore)(nil)
