package noob

import "context"

// SweepJob runs SweepExpired; schedule it on the worker pool
type SweepJob struct {
	Tracker Service
}

// Process implements worker.Job
func (j *SweepJob) Process(ctx context.Context) error {
	j.Tracker.SweepExpired(ctx)
	return nil
}
