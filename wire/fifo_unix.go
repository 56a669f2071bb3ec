// wire/fifo_unix.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build unix

package wire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aircontrolx/aircontrolx/log"

	"golang.org/x/sys/unix"
)

// MakeFIFO creates a named pipe at path. An existing FIFO is reused.
func MakeFIFO(path string) error {
	err := unix.Mkfifo(path, 0o600)
	if errors.Is(err, unix.EEXIST) {
		fi, serr := os.Stat(path)
		if serr != nil {
			return serr
		}
		if fi.Mode()&fs.ModeNamedPipe == 0 {
			return fmt.Errorf("%s: exists and is not a named pipe", path)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// FIFOSender

// FIFOSender writes frames to a named pipe. The pipe is opened lazily
// and reopened after the reader goes away; Send keeps retrying until a
// reader is present or its context is canceled.
type FIFOSender struct {
	path string
	mu   sync.Mutex
	f    *os.File
	lg   *log.Logger
}

// OpenFIFOSender creates the FIFO at path if needed and returns a sender
// for it. No reader needs to be present yet.
func OpenFIFOSender(path string, lg *log.Logger) (Sender, error) {
	if err := MakeFIFO(path); err != nil {
		return nil, err
	}
	return &FIFOSender{path: path, lg: lg.With(slog.String("fifo", path))}, nil
}

func (s *FIFOSender) Send(ctx context.Context, m Message) error {
	frame, err := Encode(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := NewBackoff(10*time.Millisecond, 500*time.Millisecond)
	for {
		if s.f == nil {
			// Opening the write end without O_NONBLOCK would block until a
			// reader arrives; with it, ENXIO tells us there is none yet.
			f, err := os.OpenFile(s.path, os.O_WRONLY|unix.O_NONBLOCK, 0)
			if errors.Is(err, unix.ENXIO) {
				s.lg.Debug("no reader; waiting")
				if werr := b.Wait(ctx); werr != nil {
					return fmt.Errorf("%s: %w: %w", s.path, ErrNoPeer, werr)
				}
				continue
			} else if err != nil {
				return err
			}
			s.f = f
			s.lg.Info("connected to reader")
		}

		f := s.f
		stop := context.AfterFunc(ctx, func() { f.SetWriteDeadline(time.Now()) })
		_, err := f.Write(frame)
		stop()
		if err == nil {
			return nil
		}

		f.Close()
		s.f = nil
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, unix.EPIPE) {
			return err
		}
		s.lg.Warn("reader disconnected; reopening", slog.Any("error", err))
		if werr := b.Wait(ctx); werr != nil {
			return fmt.Errorf("%s: %w: %w", s.path, ErrNoPeer, werr)
		}
	}
}

func (s *FIFOSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

///////////////////////////////////////////////////////////////////////////
// FIFOReceiver

// FIFOReceiver reads frames from a named pipe. An end of file means the
// writer has gone (or never arrived); the pipe is then reopened and
// reading resumes once a writer connects.
type FIFOReceiver struct {
	path   string
	mu     sync.Mutex
	f      *os.File
	br     *bufio.Reader
	closed bool
	lg     *log.Logger
}

// OpenFIFOReceiver creates the FIFO at path if needed and returns a
// receiver for it.
func OpenFIFOReceiver(path string, lg *log.Logger) (Receiver, error) {
	if err := MakeFIFO(path); err != nil {
		return nil, err
	}
	return &FIFOReceiver{path: path, lg: lg.With(slog.String("fifo", path))}, nil
}

func (r *FIFOReceiver) open() (*bufio.Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.f == nil {
		f, err := os.OpenFile(r.path, os.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			return nil, err
		}
		r.f = f
		r.br = bufio.NewReader(f)
	}
	return r.br, nil
}

func (r *FIFOReceiver) drop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f != nil {
		r.f.Close()
		r.f, r.br = nil, nil
	}
}

func (r *FIFOReceiver) Receive(ctx context.Context) (Message, error) {
	b := NewBackoff(5*time.Millisecond, 250*time.Millisecond)
	for {
		br, err := r.open()
		if err != nil {
			return nil, err
		}

		stop := context.AfterFunc(ctx, r.drop)
		m, err := ReadMessage(br)
		stop()

		if err == nil {
			return m, nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		r.drop()
		switch {
		case errors.Is(err, io.EOF):
			// No writer; poll until one connects.
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.lg.Warn("writer disconnected mid-frame")
		case IsFramingError(err):
			r.lg.Error("discarding corrupt stream", slog.Any("error", err))
		case errors.Is(err, os.ErrClosed):
			r.mu.Lock()
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return nil, ErrClosed
			}
		default:
			r.lg.Warn("read failed; reopening", slog.Any("error", err))
		}

		if err := b.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

func (r *FIFOReceiver) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.drop()
	return nil
}
