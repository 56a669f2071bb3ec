// wire/conduit.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"
)

// Sender is the write end of a one-directional conduit.
type Sender interface {
	Send(ctx context.Context, m Message) error
	Close() error
}

// Receiver is the read end of a one-directional conduit. Receive blocks
// until a message arrives or ctx is canceled.
type Receiver interface {
	Receive(ctx context.Context) (Message, error)
	Close() error
}

///////////////////////////////////////////////////////////////////////////
// StreamSender / StreamReceiver

// StreamSender writes frames to an io.WriteCloser. Sends are serialized.
type StreamSender struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewStreamSender(w io.WriteCloser) *StreamSender {
	return &StreamSender{w: w}
}

func (s *StreamSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteMessage(s.w, m)
}

func (s *StreamSender) Close() error {
	return s.w.Close()
}

// StreamReceiver reads frames from an io.ReadCloser. The reader is
// closed if ctx is canceled while a Receive is blocked, after which all
// further Receives fail.
type StreamReceiver struct {
	rc io.ReadCloser
	br *bufio.Reader
}

func NewStreamReceiver(rc io.ReadCloser) *StreamReceiver {
	return &StreamReceiver{rc: rc, br: bufio.NewReader(rc)}
}

func (r *StreamReceiver) Receive(ctx context.Context) (Message, error) {
	stop := context.AfterFunc(ctx, func() { r.rc.Close() })
	defer stop()

	m, err := ReadMessage(r.br)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return m, err
}

func (r *StreamReceiver) Close() error {
	return r.rc.Close()
}

// Pipe returns a connected in-memory conduit. Each Send blocks until the
// frame has been read by the receiver.
func Pipe() (*StreamSender, *StreamReceiver) {
	pr, pw := io.Pipe()
	return NewStreamSender(pw), NewStreamReceiver(pr)
}

///////////////////////////////////////////////////////////////////////////
// Backoff

// Backoff produces capped, doubling delays for retrying transient
// conduit errors.
type Backoff struct {
	Min, Max time.Duration
	cur      time.Duration
}

func NewBackoff(min, max time.Duration) *Backoff {
	return &Backoff{Min: min, Max: max}
}

// Next returns the delay before the next attempt.
func (b *Backoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.Min
	} else {
		b.cur = min(2*b.cur, b.Max)
	}
	return b.cur
}

func (b *Backoff) Reset() {
	b.cur = 0
}

// Wait sleeps for the next delay. It returns ctx.Err() if ctx is
// canceled first.
func (b *Backoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
