package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nusantara-hq/gapura/internal/jobs"
	"github.com/nusantara-hq/gapura/internal/observability"
	"github.com/nusantara-hq/gapura/internal/rolesync"
)

// RoleDriftScanJob diffs persisted system roles against the built-in catalog.
// With AutoRepair set it also creates missing roles and repairs drifted ones.
type RoleDriftScanJob struct {
	Syncer  *rolesync.Syncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Gauges  *observability.Metrics
}

// NewRoleDriftScanJob initialises the drift scan handler.
func NewRoleDriftScanJob(syncer *rolesync.Syncer, logger *slog.Logger, metrics *jobmetrics.Metrics, gauges *observability.Metrics) *RoleDriftScanJob {
	return &RoleDriftScanJob{Syncer: syncer, Logger: logger, Metrics: metrics, Gauges: gauges}
}

// Handle executes the drift scan.
func (j *RoleDriftScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Syncer == nil {
		return errors.New("drift scan: handler not configured")
	}
	var payload RoleDriftScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskRoleDriftScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	var report rolesync.Report
	if payload.AutoRepair {
		report, resultErr = j.Syncer.AutoSync(ctx)
	} else {
		report, resultErr = j.Syncer.Diff(ctx)
	}
	if resultErr != nil {
		j.logger().Error("drift scan failed", slog.Any("error", resultErr))
		return resultErr
	}

	j.Metrics.AddDrift("missing", len(report.Missing))
	j.Metrics.AddDrift("extra", len(report.Extra))
	j.Metrics.AddDrift("out_of_sync", len(report.OutOfSync))
	if j.Gauges != nil {
		j.Gauges.SetRoleDrift(len(report.Missing) + len(report.Extra) + len(report.OutOfSync))
	}

	logger := j.logger().With(
		slog.Bool("auto_repair", payload.AutoRepair),
		slog.Int("missing", len(report.Missing)),
		slog.Int("extra", len(report.Extra)),
		slog.Int("out_of_sync", len(report.OutOfSync)),
		slog.Int("created", len(report.Created)),
		slog.Int("repaired", len(report.Repaired)),
	)
	if len(report.Errors) > 0 {
		logger.Warn("drift scan finished with role errors", slog.Any("errors", report.Errors))
		return nil
	}
	if report.Clean() {
		logger.Info("system roles in sync")
		return nil
	}
	logger.Warn("system role drift detected")
	return nil
}

func (j *RoleDriftScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
