package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/google/uuid"
)

// ErrUnauthorized is returned by Backend implementations when the bearer
// credential is missing or rejected. A missing credential fails before any
// request is attempted; either way the failure is surfaced as an auth
// notice, distinct from a network failure.
var ErrUnauthorized = errors.New("missing or expired credential")

// DefaultTimeout bounds a single reconciliation request.
const DefaultTimeout = 15 * time.Second

// flight tracks the reconciliation state of one cart line. baseline is the
// last server-acknowledged state of the line (nil when the server has no
// line yet); queued holds the coalesced desired quantity of mutations issued
// while a request was in flight.
type flight struct {
	baseline *Line
	queued   *int
}

// Store is the single writer of the cart line collection. Mutations apply
// locally first, then reconcile asynchronously; at most one request per line
// is in flight, later mutations on the same line coalesce behind it.
// All exported methods are safe for concurrent use.
type Store struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	lines     []Line
	flights   map[string]*flight // keyed by record ID
	listeners []func(Snapshot)
	noticeFns []func(Notice)
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout overrides the default reconciliation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStore creates an empty cart store over the given backend.
func NewStore(backend Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		timeout: DefaultTimeout,
		logger:  logger.With("component", "cart"),
		flights: make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener invoked with a snapshot after every visible
// state change. Listeners are called outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SubscribeNotices registers a listener for user-facing failure notices.
func (s *Store) SubscribeNotices(fn func(Notice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeFns = append(s.noticeFns, fn)
}

// Snapshot returns the current UI-facing view with derived totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AddOrUpdate applies a quantity delta for the given record. The local state
// changes immediately; a resulting quantity below 1 removes the line. The
// matching backend mutation is dispatched asynchronously, or coalesced
// behind an in-flight request on the same line.
func (s *Store) AddOrUpdate(ctx context.Context, record catalog.Record, delta int) {
	s.mu.Lock()
	idx := s.indexOfRecordLocked(record.ID)
	current := 0
	if idx >= 0 {
		current = s.lines[idx].Quantity
	}
	desired := current + delta
	if desired < 0 {
		desired = 0
	}
	if idx < 0 && desired == 0 {
		// Nothing to mutate locally or remotely.
		s.mu.Unlock()
		return
	}

	// With no flight in progress the visible line is the last
	// server-acknowledged state; capture it before mutating.
	var baseline *Line
	if _, inFlight := s.flights[record.ID]; !inFlight && idx >= 0 {
		b := s.lines[idx]
		baseline = &b
	}

	// Optimistic update, visible before any network response.
	switch {
	case desired == 0:
		s.removeAtLocked(idx)
	case idx >= 0:
		s.lines[idx].Quantity = desired
	default:
		s.lines = append(s.lines, Line{
			LineID:    uuid.NewString(),
			RecordID:  record.ID,
			Name:      record.Name,
			UnitPrice: record.EffectivePrice(),
			Quantity:  desired,
		})
	}

	s.scheduleLocked(ctx, record.ID, desired, baseline)
}

// Remove deletes the line with the given line ID.
func (s *Store) Remove(ctx context.Context, lineID string) error {
	s.mu.Lock()
	idx := -1
	for i, l := range s.lines {
		if l.LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	recordID := s.lines[idx].RecordID
	var baseline *Line
	if _, inFlight := s.flights[recordID]; !inFlight {
		b := s.lines[idx]
		baseline = &b
	}
	s.removeAtLocked(idx)
	s.scheduleLocked(ctx, recordID, 0, baseline)
	return nil
}

// Clear optimistically empties the cart and reconciles with a single backend
// call. On failure the previous lines are restored, except those replaced by
// lines added after the clear.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	prev := make([]Line, len(s.lines))
	copy(prev, s.lines)
	s.lines = nil
	// Abandon per-line flights; their late responses are discarded.
	s.flights = make(map[string]*flight)
	s.mu.Unlock()
	s.notify()

	go func() {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := s.backend.ClearLines(cctx)
		if err == nil {
			return
		}
		s.mu.Lock()
		restored := make([]Line, 0, len(prev)+len(s.lines))
		for _, l := range prev {
			if s.indexOfRecordLocked(l.RecordID) < 0 {
				restored = append(restored, l)
			}
		}
		s.lines = append(restored, s.lines...)
		s.mu.Unlock()
		s.notify()
		s.emitNotice("Could not clear the cart", err)
	}()
}

// scheduleLocked dispatches a mutation for the record, or coalesces it to
// the latest desired quantity when a request is already in flight. baseline
// is the pre-mutation server-acknowledged line (nil when the server has no
// line for the record). The lock is held on entry and released before
// listeners run.
func (s *Store) scheduleLocked(ctx context.Context, recordID string, desired int, baseline *Line) {
	if fl, ok := s.flights[recordID]; ok {
		d := desired
		fl.queued = &d
		s.mu.Unlock()
		s.notify()
		return
	}
	fl := &flight{baseline: baseline}
	s.flights[recordID] = fl
	s.mu.Unlock()
	s.notify()
	go s.reconcile(ctx, recordID, fl, desired)
}

// reconcile runs the per-line mutation loop: send one request, apply the
// authoritative response, then flush the coalesced follow-up if one arrived
// while the request was in flight.
func (s *Store) reconcile(ctx context.Context, recordID string, fl *flight, desired int) {
	for {
		ref, err := s.send(ctx, fl.baseline, recordID, desired)

		s.mu.Lock()
		if s.flights[recordID] != fl {
			// Superseded by Clear while in flight; discard.
			s.mu.Unlock()
			s.logger.Debug("discarded superseded cart response", "record_id", recordID)
			return
		}
		if err != nil {
			s.revertLocked(recordID, fl.baseline)
			delete(s.flights, recordID)
			s.mu.Unlock()
			s.notify()
			s.emitNotice("Could not update the cart", err)
			return
		}

		s.applyLocked(recordID, fl, desired, ref)
		if fl.queued != nil {
			desired = *fl.queued
			fl.queued = nil
			s.mu.Unlock()
			s.notify()
			continue
		}
		delete(s.flights, recordID)
		s.mu.Unlock()
		s.notify()
		return
	}
}

// send issues the backend mutation matching the desired state.
func (s *Store) send(ctx context.Context, baseline *Line, recordID string, desired int) (*LineRef, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch {
	case baseline == nil && desired <= 0:
		// A line that was created and removed before its first request was
		// sent; the server never saw it.
		return nil, nil
	case baseline == nil:
		return s.backend.AddLine(cctx, recordID, desired)
	case desired <= 0:
		return nil, s.backend.RemoveLine(cctx, baseline.LineID)
	default:
		return s.backend.UpdateLine(cctx, baseline.LineID, desired)
	}
}

// applyLocked reconciles the visible line with the authoritative response.
// Server state wins, unless a newer mutation is queued for the line, in
// which case the visible quantity keeps the latest optimistic intent.
func (s *Store) applyLocked(recordID string, fl *flight, desired int, ref *LineRef) {
	if desired <= 0 {
		fl.baseline = nil
		if fl.queued == nil {
			if idx := s.indexOfRecordLocked(recordID); idx >= 0 {
				s.removeAtLocked(idx)
			}
		}
		return
	}
	if ref == nil {
		return
	}
	idx := s.indexOfRecordLocked(recordID)
	if idx >= 0 {
		s.lines[idx].LineID = ref.LineID
		if fl.queued == nil {
			s.lines[idx].Quantity = ref.Quantity
		}
		b := s.lines[idx]
		b.Quantity = ref.Quantity
		fl.baseline = &b
		return
	}
	// The visible line vanished (should not happen while a flight exists);
	// track the server state as baseline only.
	fl.baseline = &Line{LineID: ref.LineID, RecordID: ref.RecordID, Quantity: ref.Quantity}
}

// revertLocked restores the line to its pre-mutation snapshot.
func (s *Store) revertLocked(recordID string, baseline *Line) {
	idx := s.indexOfRecordLocked(recordID)
	if baseline == nil {
		if idx >= 0 {
			s.removeAtLocked(idx)
		}
		return
	}
	if idx >= 0 {
		s.lines[idx] = *baseline
		return
	}
	s.lines = append(s.lines, *baseline)
}

func (s *Store) indexOfRecordLocked(recordID string) int {
	for i, l := range s.lines {
		if l.RecordID == recordID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAtLocked(idx int) {
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	snap := Snapshot{Lines: lines}
	for _, l := range lines {
		snap.TotalItems += l.Quantity
		snap.TotalPrice += int64(l.Quantity) * l.UnitPrice
	}
	return snap
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Store) emitNotice(message string, err error) {
	kind := NoticeNetwork
	if errors.Is(err, ErrUnauthorized) {
		kind = NoticeAuth
		message = "Sign in to manage your cart"
	}
	s.mu.Lock()
	fns := make([]func(Notice), len(s.noticeFns))
	copy(fns, s.noticeFns)
	s.mu.Unlock()

	s.logger.Warn("cart mutation failed", "kind", string(kind), "error", err)
	for _, fn := range fns {
		fn(Notice{Kind: kind, Message: message, Err: err})
	}
}
