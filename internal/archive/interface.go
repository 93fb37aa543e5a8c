// Package archive stores the full raw text of model responses outside the
// database so session rows stay bounded. Archival is best-effort: a failed
// write is logged by the caller, never fatal to a tracking run.
package archive

import "context"

// Archive is the contract for raw-response storage.
type Archive interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
}

// Noop discards writes and reports reads as missing. Used when no archive
// backend is configured.
type Noop struct{}

var _ Archive = (*Noop)(nil)

func (Noop) Store(context.Context, string, []byte) error { return nil }

func (Noop) Retrieve(context.Context, string) ([]byte, error) { return nil, ErrNotArchived }
