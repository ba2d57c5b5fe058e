// Package store holds the in-memory state backing the stub backend.
package store

import (
	"errors"
	"sync"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/google/uuid"
)

// ErrLineNotFound is returned when a cart line does not exist.
var ErrLineNotFound = errors.New("cart line not found")

// CartLine is a cart entry held by the stub backend.
type CartLine struct {
	LineID    string `json:"lineId"`
	RecordID  string `json:"recordId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Memory keeps catalog records and per-credential carts in process memory.
type Memory struct {
	mu      sync.RWMutex
	records []catalog.Record
	carts   map[string][]CartLine // keyed by bearer token
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		carts: make(map[string][]CartLine),
	}
}

// Seed replaces the catalog records.
func (s *Memory) Seed(records []catalog.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]catalog.Record, len(records))
	copy(s.records, records)
}

// Records returns a copy of all catalog records.
func (s *Memory) Records() []catalog.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Record, len(s.records))
	copy(out, s.records)
	return out
}

// FindRecord retrieves a catalog record by its ID.
func (s *Memory) FindRecord(id string) (*catalog.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			rec := r
			return &rec, true
		}
	}
	return nil, false
}

// AddLine appends a cart line for the credential and returns it with a
// server-assigned line ID. Adding a record already in the cart increments
// the existing line instead.
func (s *Memory) AddLine(token, recordID, name string, unitPrice int64, quantity int) CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[token]
	for i, l := range lines {
		if l.RecordID == recordID {
			lines[i].Quantity += quantity
			return lines[i]
		}
	}
	line := CartLine{
		LineID:    uuid.NewString(),
		RecordID:  recordID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	s.carts[token] = append(lines, line)
	return line
}

// UpdateLine sets the quantity of an existing cart line.
func (s *Memory) UpdateLine(token, lineID string, quantity int) (CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[token]
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = quantity
			return lines[i], nil
		}
	}
	return CartLine{}, ErrLineNotFound
}

// RemoveLine deletes a cart line.
func (s *Memory) RemoveLine(token, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[token]
	for i := range lines {
		if lines[i].LineID == lineID {
			s.carts[token] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// ClearLines drops every cart line for the credential.
func (s *Memory) ClearLines(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, token)
}

// Lines returns a copy of the cart lines for the credential.
func (s *Memory) Lines(token string) []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[token]
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
