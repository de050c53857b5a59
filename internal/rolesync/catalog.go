// Package rolesync reconciles the built-in system roles against what is
// persisted. The permission catalog evolves over the application's life;
// this keeps stored system roles current without a hand-written migration
// for every change. Custom, administrator-created roles are never touched.
package rolesync

import (
	"github.com/nusantara-hq/gapura/internal/catalog"
	"github.com/nusantara-hq/gapura/internal/roles"
)

// SystemRole describes one expected built-in role.
type SystemRole struct {
	Name            string
	Description     string
	Permissions     []string
	Modules         []string
	Level           int
	BypassAllChecks bool
	Scope           roles.Scope
}

// Expected returns the system role catalog. Level is informational; the
// Super Administrator escape hatch is the explicit bypass flag, never a
// level threshold.
func Expected() []SystemRole {
	return []SystemRole{
		{
			Name:            roles.SuperAdminName,
			Description:     "Unrestricted access to every module and operation",
			Permissions:     []string{"*:*"},
			Modules:         catalog.Modules(),
			Level:           10,
			BypassAllChecks: true,
			Scope:           roles.ScopeAll,
		},
		{
			Name:        "Administrator",
			Description: "Platform administration without the bypass flag",
			Permissions: []string{
				"*:user", "*:role", "*:permission", "*:setting",
				"read:auditlog", "read:*",
			},
			Modules: catalog.Modules(),
			Level:   9,
			Scope:   roles.ScopeAll,
		},
		{
			Name:        "HR Manager",
			Description: "Manages the HR module for one department",
			Permissions: []string{
				"manage:employee", "manage:department", "manage:attendance",
				"manage:leave", "approve:leave", "manage:payroll",
				"export:payroll", "read:report",
			},
			Modules: []string{"hrm", "analytics"},
			Level:   5,
			Scope:   roles.ScopeDepartment,
		},
		{
			Name:        "Sales Manager",
			Description: "Manages sales and CRM pipelines for one department",
			Permissions: []string{
				"manage:lead", "manage:quotation", "approve:quotation",
				"manage:order", "manage:invoice", "export:invoice",
				"manage:customer", "manage:contact", "manage:pipeline",
				"manage:activity", "read:report",
			},
			Modules: []string{"sales", "crm", "analytics"},
			Level:   5,
			Scope:   roles.ScopeDepartment,
		},
		{
			Name:        "Finance Manager",
			Description: "Manages accounts, journals and payment approval",
			Permissions: []string{
				"manage:account", "manage:journal", "export:journal",
				"manage:payment", "manage:expense", "approve:expense",
				"read:report",
			},
			Modules: []string{"finance", "analytics"},
			Level:   5,
			Scope:   roles.ScopeDepartment,
		},
		{
			Name:        "Support Agent",
			Description: "Works the ticket and call queues",
			Permissions: []string{
				"manage:ticket", "read:callqueue", "update:callqueue",
				"read:knowledgebase", "create:knowledgebase", "read:customer",
			},
			Modules: []string{"support", "crm"},
			Level:   3,
			Scope:   roles.ScopeOwn,
		},
		{
			Name:        "Staff",
			Description: "Self-service access to own HR records",
			Permissions: []string{
				"read:employee", "read:attendance", "create:leave", "read:leave",
			},
			Modules: []string{"hrm"},
			Level:   1,
			Scope:   roles.ScopeOwn,
		},
		{
			Name:        "Viewer",
			Description: "Read-only access across modules",
			Permissions: []string{"read:*"},
			Modules:     catalog.Modules(),
			Level:       1,
			Scope:       roles.ScopeAll,
		},
	}
}
