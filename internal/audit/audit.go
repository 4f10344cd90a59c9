// Package audit records lock lifecycle events for later inspection,
// independent of the transient Redis state the lock itself lives in.
package audit

import (
	"context"
	"time"

	"github.com/kneutral-org/redislock/internal/lock"
)

// Event is a durable record of one lock lifecycle action.
type Event struct {
	LockName string
	OwnerID  string
	Action   string
	At       time.Time
}

// Store persists and retrieves lock lifecycle events.
type Store interface {
	Record(ctx context.Context, ev Event) error
	ListByLock(ctx context.Context, lockName string, limit int) ([]Event, error)
}

// Sink adapts a Store into a lock.EventSink so it can be passed directly to
// lock.WithEventSink. Record errors are swallowed: an audit-trail outage
// must never fail a lock operation that otherwise succeeded.
type Sink struct {
	store  Store
	onErr  func(error)
	nowFn  func() time.Time
}

// NewSink wraps a Store as a lock.EventSink. onErr, if non-nil, is invoked
// with any error returned by the underlying Store's Record call.
func NewSink(store Store, onErr func(error)) *Sink {
	return &Sink{store: store, onErr: onErr, nowFn: time.Now}
}

// Observe implements lock.EventSink.
func (s *Sink) Observe(ev lock.Event) {
	at := ev.At
	if at.IsZero() {
		at = s.nowFn()
	}
	err := s.store.Record(context.Background(), Event{
		LockName: ev.LockName,
		OwnerID:  ev.OwnerID,
		Action:   string(ev.Action),
		At:       at,
	})
	if err != nil && s.onErr != nil {
		s.onErr(err)
	}
}

var _ lock.EventSink = (*Sink)(nil)
