package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nusantara-hq/gapura/internal/rolesync"
)

// RolesCLI wraps operational helpers for the system role catalog.
type RolesCLI struct {
	syncer *rolesync.Syncer
}

// NewRolesCLI initialises the CLI helpers around a prepared syncer.
func NewRolesCLI(syncer *rolesync.Syncer) *RolesCLI {
	return &RolesCLI{syncer: syncer}
}

// RolesOptions defines available flags for the roles diff/sync commands.
type RolesOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// DiffCommand reports drift between the built-in role catalog and the
// database without mutating anything. Exit code 10 signals drift.
func (c *RolesCLI) DiffCommand(ctx context.Context, opts RolesOptions) int {
	opts = opts.withDefaults()
	report, err := c.syncer.Diff(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "roles diff: %v\n", err)
		return 1
	}
	if err := renderReport(opts, report); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "roles diff: %v\n", err)
		return 1
	}
	if !report.Clean() {
		return 10
	}
	return 0
}

// SyncCommand creates missing system roles and repairs drifted ones. Exit
// code 10 signals that some roles could not be reconciled.
func (c *RolesCLI) SyncCommand(ctx context.Context, opts RolesOptions) int {
	opts = opts.withDefaults()
	report, err := c.syncer.AutoSync(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "roles sync: %v\n", err)
		return 1
	}
	if err := renderReport(opts, report); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "roles sync: %v\n", err)
		return 1
	}
	if len(report.Errors) > 0 {
		return 10
	}
	return 0
}

func (o RolesOptions) withDefaults() RolesOptions {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

func renderReport(opts RolesOptions, report rolesync.Report) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(report)
	}
	renderReportHuman(opts.Stdout, report)
	return nil
}

func renderReportHuman(w io.Writer, report rolesync.Report) {
	if report.Clean() && len(report.Created) == 0 && len(report.Repaired) == 0 {
		_, _ = fmt.Fprintln(w, "system roles in sync")
		return
	}
	for _, name := range report.Created {
		_, _ = fmt.Fprintf(w, "created  %s\n", name)
	}
	for _, name := range report.Repaired {
		_, _ = fmt.Fprintf(w, "repaired %s\n", name)
	}
	for _, name := range report.Missing {
		_, _ = fmt.Fprintf(w, "missing  %s\n", name)
	}
	for _, name := range report.Extra {
		_, _ = fmt.Fprintf(w, "extra    %s\n", name)
	}
	for _, drift := range report.OutOfSync {
		_, _ = fmt.Fprintf(w, "drift    %s (%v)\n", drift.Name, drift.Fields)
	}
	for _, msg := range report.Errors {
		_, _ = fmt.Fprintf(w, "error    %s\n", msg)
	}
}
