package reporter

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/utils"
)

// StatusSource is what the reporter reads on each run.
type StatusSource interface {
	SyncState() string
	SyncedHeight() uint64
	CachedResults() int
}

// Reporter logs an indexing status line on a cron schedule. The spec is
// configurable through REPORTER_CRON (seconds field included).
type Reporter struct {
	logger *zap.Logger
	source StatusSource
	cron   *cron.Cron
	spec   string
}

// New creates a reporter over the given status source.
func New(logger *zap.Logger, source StatusSource) (*Reporter, error) {
	r := &Reporter{
		logger: logger.Named("reporter"),
		source: source,
		spec:   utils.Env("REPORTER_CRON", "0 * * * * *"),
	}

	r.cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := r.cron.AddFunc(r.spec, r.report); err != nil {
		return nil, err
	}
	return r, nil
}

// Start starts the scheduler.
func (r *Reporter) Start() {
	r.cron.Start()
	r.logger.Info("Status reporter started", zap.String("cronSpec", r.spec))
}

// Stop stops the scheduler and waits for a running report to finish.
func (r *Reporter) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reporter) report() {
	r.logger.Info("Indexing status",
		zap.String("sync", r.source.SyncState()),
		zap.Uint64("height", r.source.SyncedHeight()),
		zap.Int("cached_results", r.source.CachedResults()))
}
