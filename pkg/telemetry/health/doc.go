// Package health provides liveness and readiness endpoints for the
// long-running scheduler.
//
// Liveness (/health) reports that the process is serving requests.
// Readiness (/ready) runs every registered component check concurrently,
// each bounded by the checker timeout, and answers 503 when any of them
// fails.
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("scheduler", func(ctx context.Context) error {
//	    if !scheduler.IsRunning() {
//	        return errors.New("scheduler stopped")
//	    }
//	    return nil
//	})
//	checker.Mount(mux)
package health
