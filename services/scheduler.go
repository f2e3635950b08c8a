// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReconciliationScheduler runs Reconcile on a fixed interval. Each
// sweep finishes half-completed approvals (approved claim, still-open
// bounty); the condition is alert-logged every sweep until it clears.
func (e *ReviewEngine) StartReconciliationScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			repaired, err := e.Reconcile(ctx)
			if err != nil {
				log.Printf("[RECONCILER] sweep failed: %v", err)
				return
			}
			if repaired > 0 {
				log.Printf("[RECONCILER] repaired %d half-finished approvals", repaired)
			}
		}),
	)
}
