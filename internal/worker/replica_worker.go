package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/events"
	"github.com/streetburger/issuedesk/internal/replica"
)

// StartReplicaWorker attaches the replica to confirmed issue events and polls
// the store in the background. The returned function stops polling, detaches
// the replica and waits for the poller to exit.
func StartReplicaWorker(ctx context.Context, r *replica.Replica, dispatcher events.Dispatcher, logger *zap.Logger) func() {
	if r == nil {
		return func() {}
	}
	if dispatcher != nil {
		r.Attach(dispatcher)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()
	logger.Info("replica worker started")

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
			r.Detach()
			logger.Info("replica worker stopped")
		})
	}
}
