package lock

import (
	"context"
	"errors"
	"time"
	"weak"
)

// renewalWorker is the cooperative background task started for a handle
// constructed with WithAutoRenewal. It holds only a weak back-reference to
// its handle (invariant 3) so the handle remains collectible even while
// renewal is running; once the handle is gone, the worker notices on its
// next tick and exits.
type renewalWorker struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

func startRenewalWorker(l *Lock) *renewalWorker {
	w := &renewalWorker{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	ref := weak.Make(l)
	go w.run(ref, l.renewalEvery, l.expireSecs)
	return w
}

func (w *renewalWorker) run(ref weak.Pointer[Lock], interval time.Duration, expireSeconds int) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if !w.renewOnce(ref, expireSeconds) {
				return
			}
		}
	}
}

// renewOnce extends the lease once. It returns false when the worker
// should exit: the handle was collected, the lease was lost, or the
// server-side protocol returned something this client no longer
// understands.
func (w *renewalWorker) renewOnce(ref weak.Pointer[Lock], expireSeconds int) bool {
	l := ref.Value()
	if l == nil {
		return false
	}

	err := l.doExtend(context.Background(), expireSeconds)
	if err == nil {
		l.notify(ActionRenewed)
		return true
	}

	var protoErr *ProtocolError
	if errors.Is(err, ErrNotAcquired) || errors.As(err, &protoErr) {
		return false
	}
	// Any other error (a transient transport failure, or ErrNotExpirable) is
	// not reported anywhere; the worker simply tries again next tick.
	return true
}

// stop signals the worker to exit and blocks until it has, guaranteeing no
// in-flight renewal traffic once it returns.
func (w *renewalWorker) stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	<-w.doneCh
}
