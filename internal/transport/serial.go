package transport

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.bug.st/serial"

	"reflowctl/internal/models"
)

const (
	// DefaultBaud is the station's fixed line rate.
	DefaultBaud = 115200

	// lineTimeout bounds a single response read.
	lineTimeout = 1 * time.Second

	// readSlice is the per-Read timeout; short so cancellation and the
	// overall deadline are checked between chunks.
	readSlice = 50 * time.Millisecond
)

// lineTransport speaks the newline-delimited serial protocol. One request at
// a time; the caller holds the serialization lock.
type lineTransport struct {
	port serial.Port

	// pending holds bytes received past the previous response's newline.
	pending []byte
}

func openLine(cfg models.ConnConfig) (*lineTransport, error) {
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, cfg.Port, err)
	}
	if err := port.SetReadTimeout(readSlice); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: configure %s: %v", ErrDeviceUnavailable, cfg.Port, err)
	}
	return &lineTransport{port: port}, nil
}

// Request writes the command token terminated by '\n' and, when a reply is
// expected, reads one line within lineTimeout.
func (t *lineTransport) Request(ctx context.Context, req Request) ([]byte, error) {
	if _, err := t.port.Write([]byte(req.Endpoint + "\n")); err != nil {
		return nil, fmt.Errorf("%w: write %q: %v", ErrUnreachable, req.Endpoint, err)
	}
	if !req.WantReply {
		return nil, nil
	}
	return t.readLine(ctx)
}

func (t *lineTransport) readLine(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(lineTimeout)
	buf := make([]byte, 64)

	for {
		if i := bytes.IndexByte(t.pending, '\n'); i >= 0 {
			line := bytes.TrimRight(t.pending[:i], "\r")
			t.pending = append([]byte(nil), t.pending[i+1:]...)
			if !utf8.Valid(line) {
				return nil, fmt.Errorf("%w: response is not valid UTF-8", ErrMalformed)
			}
			return append([]byte(nil), line...), nil
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: no line within %s", ErrTimeout, lineTimeout)
		}
		n, err := t.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %v", ErrUnreachable, err)
		}
		if n > 0 {
			t.pending = append(t.pending, buf[:n]...)
		}
	}
}

func (t *lineTransport) Close() error {
	return t.port.Close()
}
