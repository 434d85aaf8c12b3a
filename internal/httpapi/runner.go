package httpapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"freight-dispatch/internal/dispatch"
	"freight-dispatch/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const runLockKey = "motus:in_transit:sync_lock"

// runLockTTL bounds a leaked lock if the process dies mid-cycle.
const runLockTTL = 15 * time.Minute

// Runner enforces at-most-one-active-run for the sync cycle. The engine
// itself holds no run-level lock; overlap prevention lives here at the
// trigger surface. With Redis present the lock also spans instances.
type Runner struct {
	Sync func(ctx context.Context) dispatch.Result

	RDB *redis.Client
	Log *slog.Logger

	mu         sync.Mutex
	running    bool
	lastRun    string
	lastResult *dispatch.Result
}

// Status is the shape of the status endpoint response.
type Status struct {
	Running    bool             `json:"running"`
	LastRun    string           `json:"last_run,omitempty"`
	LastResult *dispatch.Result `json:"last_result,omitempty"`
}

// TryStart begins a sync in the background. It returns false when a run is
// already in progress (locally or, via the Redis lock, on another instance).
func (r *Runner) TryStart() bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}

	if r.RDB != nil {
		ok, err := utils.AcquireRunLock(context.Background(), r.RDB, runLockKey, runLockTTL)
		if err != nil {
			// Lock store unreachable: local flag still prevents overlap
			// within this instance.
			r.Log.Warn("run lock unavailable, relying on local overlap guard", "err", err)
		} else if !ok {
			r.mu.Unlock()
			return false
		}
	}

	r.running = true
	r.mu.Unlock()

	go r.run()
	return true
}

func (r *Runner) run() {
	// Independent of any request lifetime; the trigger response returns
	// before the cycle finishes.
	ctx := context.Background()

	defer func() {
		if r.RDB != nil {
			if err := utils.ReleaseRunLock(ctx, r.RDB, runLockKey); err != nil {
				r.Log.Warn("run lock release failed", "err", err)
			}
		}
	}()

	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Error("sync panicked", "panic", rec)
			r.finish(dispatch.Result{Success: false, Error: "internal error"})
		}
	}()

	res := r.Sync(ctx)
	r.finish(res)
}

func (r *Runner) finish(res dispatch.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.lastRun = time.Now().UTC().Format(time.RFC3339)
	r.lastResult = &res
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Running: r.running, LastRun: r.lastRun, LastResult: r.lastResult}
}
