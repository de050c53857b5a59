package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRoleDriftScan compares persisted system roles against the
	// built-in catalog and optionally repairs drift.
	TaskRoleDriftScan = "rbac:drift_scan"
	// TaskAuditPrune removes audit trail entries older than the retention
	// window.
	TaskAuditPrune = "audit:prune"
)

// RoleDriftScanPayload controls a drift scan run.
type RoleDriftScanPayload struct {
	AutoRepair bool `json:"auto_repair"`
}

// NewRoleDriftScanTask constructs an Asynq task for the drift scan.
func NewRoleDriftScanTask(payload RoleDriftScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRoleDriftScan, data), nil
}

// AuditPrunePayload controls the audit retention sweep.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask constructs an Asynq task for the audit sweep.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}
