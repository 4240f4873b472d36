package transport

import (
	"context"
	"errors"
	"fmt"

	"reflowctl/internal/models"
)

// Open-time and per-request failures, kept separate so the session layer can
// translate them without string matching.
var (
	// ErrDeviceUnavailable means the link could not be acquired at open time.
	ErrDeviceUnavailable = errors.New("transport: device unavailable")
	// ErrTimeout means no complete response arrived within the transport's window.
	ErrTimeout = errors.New("transport: timeout")
	// ErrMalformed means the device answered with something undecodable.
	ErrMalformed = errors.New("transport: malformed response")
	// ErrUnreachable means the request could not be delivered at all.
	ErrUnreachable = errors.New("transport: unreachable")
)

// Request is one command toward the station. For the REST transport Endpoint
// is the path under http://<host>/ and Method/Body apply; for the line
// transport Endpoint is the bare command token and WantReply decides whether
// a response line is read back.
type Request struct {
	Endpoint  string
	Method    string // "GET" or "POST"; defaults to GET
	Body      []byte // JSON payload for POST
	WantReply bool
}

// Transport is the byte/HTTP-level channel to the station. Implementations
// are not safe for concurrent Request calls; the session serializes access.
type Transport interface {
	Request(ctx context.Context, req Request) ([]byte, error)
	Close() error
}

// Open acquires the transport selected by cfg.Kind.
func Open(cfg models.ConnConfig) (Transport, error) {
	switch cfg.Kind {
	case models.ConnSerial:
		return openLine(cfg)
	case models.ConnNetwork:
		return openREST(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown connection kind %q", ErrDeviceUnavailable, cfg.Kind)
	}
}
