package audit

import (
	"context"
	"sync"
	"time"

	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

// inserter is the store seam, narrowed for tests.
type inserter interface {
	Insert(ctx context.Context, entry Entry) error
}

// Recorder writes audit entries off the request path so a slow audit write
// never blocks the HTTP response. Write failures are logged, never allowed
// to mask the primary outcome.
type Recorder struct {
	store   inserter
	logger  *logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store inserter, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Record schedules one entry for persistence. The write runs on a detached
// context: the inbound request finishing (or being canceled) must not drop
// the audit trail.
func (r *Recorder) Record(entry Entry) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.store.Insert(ctx, entry); err != nil {
			r.logger.Error("audit write failed",
				"error", err,
				"provider", entry.Provider,
				"outcome", string(entry.Outcome),
				"config_id", entry.ConfigID,
			)
		}
	}()
}

// Close waits for in-flight writes, for graceful shutdown.
func (r *Recorder) Close() {
	r.wg.Wait()
}
