// Package cart implements the optimistic cart store: local mutations are
// visible immediately, reconciled asynchronously against the authoritative
// backend copy, and rolled back on failure.
package cart

import (
	"context"
	"errors"
)

// ErrLineNotFound is returned when a mutation references an unknown cart line.
var ErrLineNotFound = errors.New("cart line not found")

// Line is one cart entry. LineID is assigned by the backend; a line created
// optimistically carries a temporary client-generated ID until reconciled.
// Quantity is always >= 1: a quantity below 1 removes the line.
type Line struct {
	LineID    string `json:"lineId"`
	RecordID  string `json:"recordId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// LineRef is the backend's authoritative view of a line after a mutation.
type LineRef struct {
	LineID   string `json:"lineId"`
	RecordID string `json:"recordId"`
	Quantity int    `json:"quantity"`
}

// Backend is the narrow contract the store reconciles against. All methods
// require a bearer credential; implementations fail fast without I/O when the
// credential is missing.
type Backend interface {
	AddLine(ctx context.Context, recordID string, quantity int) (*LineRef, error)
	UpdateLine(ctx context.Context, lineID string, quantity int) (*LineRef, error)
	RemoveLine(ctx context.Context, lineID string) error
	ClearLines(ctx context.Context) error
}

// Snapshot is the immutable UI-facing view of the cart. Totals are derived
// from the line set, never independently mutated.
type Snapshot struct {
	Lines      []Line `json:"lines"`
	TotalItems int    `json:"totalItems"`
	TotalPrice int64  `json:"totalPrice"`
}

// NoticeKind classifies a user-facing cart notification.
type NoticeKind string

const (
	// NoticeAuth means the mutation was rejected before any request was
	// attempted because no credential is available.
	NoticeAuth NoticeKind = "auth"
	// NoticeNetwork means the reconciliation request failed and the
	// optimistic change was rolled back.
	NoticeNetwork NoticeKind = "network"
)

// Notice is a user-facing notification about a failed mutation.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}
