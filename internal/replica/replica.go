// Package replica keeps an in-memory copy of the issue list for dashboard
// and report reads.
//
// The copy is replaced wholesale by periodic polls and patched in place when
// the issue service publishes a change the store has already confirmed.
// Polls are not deduplicated: whichever list response completes last is the
// one that stays.
package replica

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/events"
	"github.com/streetburger/issuedesk/internal/observability"
)

// Source lists every issue from the store.
type Source interface {
	List(ctx context.Context) ([]domain.Issue, error)
}

// Replica is safe for concurrent use.
type Replica struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	issues   []domain.Issue
	loadedAt time.Time
	lastErr  error

	subsMu sync.Mutex
	subs   []events.Subscription
}

// New builds an empty replica; call Refresh or Run to load it.
func New(source Source, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Replica {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Replica{
		source:   source,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Refresh replaces the snapshot with a fresh list. On failure the previous
// snapshot is kept and the error is returned and remembered, except for
// cancellation by the caller.
func (r *Replica) Refresh(ctx context.Context) error {
	issues, err := r.source.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.lastErr = err
		}
		return err
	}
	sortByUpdated(issues)
	r.issues = issues
	r.loadedAt = r.now()
	r.lastErr = nil
	r.metrics.RecordRefresh()
	return nil
}

// Run refreshes immediately and then on every tick until ctx is done.
func (r *Replica) Run(ctx context.Context) {
	r.poll(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Replica) poll(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("replica refresh failed", zap.Error(err))
	}
}

// Loaded reports whether at least one refresh succeeded.
func (r *Replica) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.loadedAt.IsZero()
}

// Snapshot returns a copy of the current issue list, most recently updated first.
func (r *Replica) Snapshot() []domain.Issue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Issue{}, r.issues...)
}

// Status reports when the replica last loaded and the last refresh error.
func (r *Replica) Status() (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt, r.lastErr
}

// Upsert applies a store-confirmed issue.
func (r *Replica) Upsert(issue domain.Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.issues {
		if r.issues[i].ID == issue.ID {
			r.issues[i] = issue
			sortByUpdated(r.issues)
			return
		}
	}
	r.issues = append(r.issues, issue)
	sortByUpdated(r.issues)
}

// Remove drops a deleted issue.
func (r *Replica) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.issues[:0]
	for _, issue := range r.issues {
		if issue.ID != id {
			kept = append(kept, issue)
		}
	}
	r.issues = kept
}

// Attach subscribes the replica to confirmed issue changes.
func (r *Replica) Attach(dispatcher events.Dispatcher) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, eventType := range events.IssueEventTypes {
		r.subs = append(r.subs, dispatcher.Subscribe(eventType, r.handleChanged))
	}
	r.subs = append(r.subs, dispatcher.Subscribe(events.EventIssueDeleted, r.handleDeleted))
}

// Detach releases every subscription made by Attach.
func (r *Replica) Detach() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.subs = nil
}

func (r *Replica) handleChanged(_ context.Context, event events.Event) error {
	switch payload := event.Payload.(type) {
	case events.IssueChangedPayload:
		r.Upsert(payload.Issue)
	case events.IssueCommentedPayload:
		r.Upsert(payload.Issue)
	}
	return nil
}

func (r *Replica) handleDeleted(_ context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.IssueDeletedPayload); ok {
		r.Remove(payload.IssueID)
		return nil
	}
	r.Remove(event.IssueID)
	return nil
}

func sortByUpdated(issues []domain.Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		return issues[a].UpdatedAt.After(issues[b].UpdatedAt)
	})
}
