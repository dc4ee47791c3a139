package storage

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func newTestSegment(t *testing.T, durability Durability) *segment {
	t.Helper()
	seg, err := openSegment(filepath.Join(t.TempDir(), segmentName(0)), 0, durability, DefaultWriterBufferSize)
	require.NoError(t, err)
	t.Cleanup(func() { seg.close() })
	return seg
}

func TestSegment_Append(t *testing.T) {
	for _, durability := range []Durability{DurabilityAsync, DurabilityOS, DurabilityDisk} {
		t.Run(durability.String(), func(t *testing.T) {
			seg := newTestSegment(t, durability)

			var positions []int64
			var payloads [][]byte
			for i := range 100 {
				payload, err := GenerateRandomBytes(i)
				require.NoError(t, err)
				pos, err := seg.append(RecordHeader{Key: KeyFromUint64(uint64(i))}, payload)
				require.NoError(t, err)
				positions = append(positions, pos)
				payloads = append(payloads, payload)
			}

			for i, pos := range positions {
				record, err := seg.readRecord(pos, uint64(len(payloads[i])))
				require.NoError(t, err)
				require.Equal(t, KeyFromUint64(uint64(i)), record.Header.Key)
				require.Equal(t, payloads[i], record.Payload)
			}
		})
	}

	t.Run("medium durability reaches the file on every append", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)

		_, err := seg.append(RecordHeader{Key: KeyFromUint64(1)}, []byte("x"))
		require.NoError(t, err)

		contents, err := os.ReadFile(seg.path)
		require.NoError(t, err)
		require.Len(t, contents, HeaderSize+1)
	})

	t.Run("payload size mismatch is corruption", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)

		pos, err := seg.append(RecordHeader{Key: KeyFromUint64(1)}, []byte("abc"))
		require.NoError(t, err)
		_, err = seg.append(RecordHeader{Key: KeyFromUint64(2)}, []byte("abc"))
		require.NoError(t, err)

		_, err = seg.readRecord(pos, 2)
		require.ErrorIs(t, err, ErrCorruptRecord)
	})

	t.Run("read only segment refuses appends", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)
		_, err := seg.append(RecordHeader{Key: KeyFromUint64(1)}, []byte("x"))
		require.NoError(t, err)
		require.NoError(t, seg.flush())

		ro, err := openSegmentReadOnly(seg.path, 0)
		require.NoError(t, err)
		defer ro.close()

		_, err = ro.append(RecordHeader{Key: KeyFromUint64(2)}, []byte("y"))
		require.ErrorIs(t, err, ErrReadOnly)

		record, err := ro.readRecord(0, 1)
		require.NoError(t, err)
		require.Equal(t, []byte("x"), record.Payload)
	})

	t.Run("concurrent appends and reads", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityAsync)

		const numGoroutines = 50
		const appendsPerGoroutine = 40

		var wg sync.WaitGroup
		var readErrors atomic.Int64
		for g := range numGoroutines {
			wg.Go(func() {
				for i := range appendsPerGoroutine {
					payload := fmt.Appendf(nil, "g%d-%d", g, i)
					pos, err := seg.append(RecordHeader{Key: KeyFromUint64(uint64(g))}, payload)
					if err != nil {
						readErrors.Add(1)
						continue
					}
					record, err := seg.readRecord(pos, uint64(len(payload)))
					if err != nil || string(record.Payload) != string(payload) {
						readErrors.Add(1)
					}
				}
			})
		}
		wg.Wait()

		require.Equal(t, 0, int(readErrors.Load()))

		count := 0
		end, err := seg.scanFrom(0, func(Record, int64) bool {
			count++
			return false
		})
		require.NoError(t, err)
		require.Equal(t, numGoroutines*appendsPerGoroutine, count)
		require.Equal(t, seg.Size(), end)
	})
}

func TestSegment_ScanFrom(t *testing.T) {
	t.Run("stop early", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)
		for i := range 10 {
			_, err := seg.append(RecordHeader{Key: KeyFromUint64(uint64(i))}, []byte("payload"))
			require.NoError(t, err)
		}

		var seen []Key
		end, err := seg.scanFrom(0, func(r Record, _ int64) bool {
			seen = append(seen, r.Header.Key)
			return len(seen) == 3
		})
		require.NoError(t, err)
		require.Len(t, seen, 3)
		require.Equal(t, int64(3*(HeaderSize+len("payload"))), end)
	})

	t.Run("start in the middle", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)
		var third int64
		for i := range 5 {
			pos, err := seg.append(RecordHeader{Key: KeyFromUint64(uint64(i))}, []byte("p"))
			require.NoError(t, err)
			if i == 2 {
				third = pos
			}
		}

		var seen []Key
		_, err := seg.scanFrom(third, func(r Record, _ int64) bool {
			seen = append(seen, r.Header.Key)
			return false
		})
		require.NoError(t, err)
		require.Equal(t, []Key{KeyFromUint64(2), KeyFromUint64(3), KeyFromUint64(4)}, seen)
	})

	t.Run("torn tail", func(t *testing.T) {
		seg := newTestSegment(t, DurabilityOS)
		_, err := seg.append(RecordHeader{Key: KeyFromUint64(1)}, []byte("whole"))
		require.NoError(t, err)
		_, err = seg.append(RecordHeader{Key: KeyFromUint64(2)}, []byte("torn"))
		require.NoError(t, err)

		whole := int64(HeaderSize + len("whole"))
		require.NoError(t, seg.file.Truncate(seg.Size()-2))

		count := 0
		end, err := seg.scanFrom(0, func(Record, int64) bool {
			count++
			return false
		})
		require.ErrorIs(t, err, errTornRecord)
		require.Equal(t, 1, count)
		require.Equal(t, whole, end)

		require.NoError(t, seg.truncate(end))
		require.Equal(t, whole, seg.Size())

		pos, err := seg.append(RecordHeader{Key: KeyFromUint64(3)}, []byte("next"))
		require.NoError(t, err)
		require.Equal(t, whole, pos)

		record, err := seg.readRecord(pos, 4)
		require.NoError(t, err)
		require.Equal(t, []byte("next"), record.Payload)
	})
}
