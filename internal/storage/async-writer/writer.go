// Package asyncwriter batches segment appends on a background goroutine.
package asyncwriter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

var ErrWriteAfterClose = errors.New("write called after writer closed")

const flushInterval = 100 * time.Millisecond

type AsyncWriter struct {
	queue    chan *bytes.Buffer
	done     chan struct{}
	writer   *bufio.Writer
	wg       sync.WaitGroup
	flushReq chan chan error
	once     sync.Once
	pool     sync.Pool

	// errMu guards err, the first write or flush failure seen by the loop.
	// It is reported by the next Flush or Close.
	errMu sync.Mutex
	err   error
}

func NewAsyncWriterSize(w io.Writer, writerBufferSize int) *AsyncWriter {
	aw := &AsyncWriter{
		queue:    make(chan *bytes.Buffer, 10),
		done:     make(chan struct{}),
		writer:   bufio.NewWriterSize(w, writerBufferSize),
		flushReq: make(chan chan error),
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, 4096))
			},
		},
	}
	aw.wg.Add(1)
	go aw.writerLoop()
	return aw
}

func (aw *AsyncWriter) writerLoop() {
	defer aw.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-aw.queue:
			aw.write(data)
		case <-ticker.C:
			aw.record(aw.writer.Flush())
		case resp := <-aw.flushReq:
			aw.drain()
			aw.record(aw.writer.Flush())
			resp <- aw.takeErr()
		case <-aw.done:
			aw.onDone()
			return
		}
	}
}

// drain writes everything already queued. Writes that returned before a
// Flush call are in the queue by then, so Flush covers them.
func (aw *AsyncWriter) drain() {
	for {
		select {
		case data := <-aw.queue:
			aw.write(data)
		default:
			return
		}
	}
}

func (aw *AsyncWriter) write(data *bytes.Buffer) {
	_, err := aw.writer.Write(data.Bytes())
	aw.record(err)
	aw.pool.Put(data)
}

func (aw *AsyncWriter) record(err error) {
	if err == nil {
		return
	}
	aw.errMu.Lock()
	if aw.err == nil {
		aw.err = err
	}
	aw.errMu.Unlock()
}

func (aw *AsyncWriter) takeErr() error {
	aw.errMu.Lock()
	defer aw.errMu.Unlock()
	err := aw.err
	aw.err = nil
	return err
}

func (aw *AsyncWriter) onDone() {
	for {
		select {
		case data := <-aw.queue:
			aw.write(data)
		case resp := <-aw.flushReq:
			aw.drain()
			aw.record(aw.writer.Flush())
			resp <- aw.takeErr()
		default:
			aw.record(aw.writer.Flush())
			return
		}
	}
}

func (aw *AsyncWriter) Write(b []byte) (int, error) {
	poolBuf := aw.pool.Get().(*bytes.Buffer)
	poolBuf.Reset()
	poolBuf.Write(b)

	select {
	case aw.queue <- poolBuf:
		return len(b), nil
	case <-aw.done:
		aw.pool.Put(poolBuf)
		return 0, ErrWriteAfterClose
	}
}

// Flush waits until everything queued so far reached the underlying writer.
func (aw *AsyncWriter) Flush() error {
	resp := make(chan error, 1)
	select {
	case aw.flushReq <- resp:
		return <-resp
	case <-aw.done:
		return ErrWriteAfterClose
	}
}

func (aw *AsyncWriter) Close() error {
	aw.once.Do(func() {
		close(aw.done)
	})
	aw.wg.Wait()
	return aw.takeErr()
}

var _ io.WriteCloser = (*AsyncWriter)(nil)
