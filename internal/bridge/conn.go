package bridge

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxLine bounds a single message; a full graph payload travels in one line.
const maxLine = 16 << 20

// Conn is an ordered, reliable, single-consumer message channel to the other
// side of the bridge. Nothing is acknowledged or redelivered.
type Conn interface {
	// Send writes one serialized message.
	Send(data []byte) error
	// Messages yields received messages in order and is closed when the
	// other side goes away.
	Messages() <-chan []byte
	// Err explains why Messages was closed; nil on a clean EOF.
	Err() error
	Close() error
}

// StreamConn frames messages as newline-delimited lines over a reader and
// writer pair, typically the pipes of a child process.
type StreamConn struct {
	r io.ReadCloser
	w io.WriteCloser

	wmu    sync.Mutex
	msgs   chan []byte
	done   chan struct{}
	errMu  sync.Mutex
	err    error
	closed sync.Once
}

// NewStreamConn starts reading from r in the background.
func NewStreamConn(r io.ReadCloser, w io.WriteCloser) *StreamConn {
	c := &StreamConn{
		r:    r,
		w:    w,
		msgs: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *StreamConn) readLoop() {
	defer close(c.msgs)

	sc := bufio.NewScanner(c.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		msg := append([]byte(nil), line...)
		select {
		case c.msgs <- msg:
		case <-c.done:
			return
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		c.setErr(fmt.Errorf("bridge: read: %w", err))
	}
}

func (c *StreamConn) setErr(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
}

// Send writes data followed by a newline. Messages must not contain raw
// newlines; Encode never produces them.
func (c *StreamConn) Send(data []byte) error {
	if bytes.IndexByte(data, '\n') >= 0 {
		return errors.New("bridge: message contains a newline")
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()

	select {
	case <-c.done:
		return io.ErrClosedPipe
	default:
	}
	if _, err := c.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("bridge: write: %w", err)
	}
	return nil
}

func (c *StreamConn) Messages() <-chan []byte {
	return c.msgs
}

func (c *StreamConn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close shuts both directions down.
func (c *StreamConn) Close() error {
	var err error
	c.closed.Do(func() {
		close(c.done)
		c.wmu.Lock()
		werr := c.w.Close()
		c.wmu.Unlock()
		rerr := c.r.Close()
		err = errors.Join(werr, rerr)
	})
	return err
}

// Pipe returns two connected in-memory conns, host side first.
func Pipe() (*StreamConn, *StreamConn) {
	hostR, rendW := io.Pipe()
	rendR, hostW := io.Pipe()
	return NewStreamConn(hostR, hostW), NewStreamConn(rendR, rendW)
}
