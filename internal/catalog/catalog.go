// Package catalog enumerates every permission recognised by the platform.
// Permissions are "action:resource" strings, optionally narrowed by a
// ":scope" suffix. The catalog is the write-time source of truth: role
// permission sets are validated against it before they are persisted.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nusantara-hq/gapura/internal/shared"
)

// Permission describes one catalogued capability.
type Permission struct {
	ID          string
	Action      string
	Resource    string
	Module      string
	Description string
}

// Wildcard matches any value in the action or resource position.
const Wildcard = "*"

// ModuleGeneral is the fallback bucket for resources introduced before the
// catalog catches up. Unknown resources resolve here instead of failing.
const ModuleGeneral = "general"

// Actions recognised in the action position.
const (
	ActionCreate  = "create"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionManage  = "manage"
	ActionApprove = "approve"
	ActionExport  = "export"
	ActionAdmin   = "admin"
)

// Scope qualifiers accepted in the optional third position.
const (
	ScopeAll        = "all"
	ScopeDepartment = "department"
	ScopeOwn        = "own"
)

type group struct {
	module    string
	resources []string
	extra     []Permission
}

// groups lists each functional module with the resources it owns.
// Every resource gets the four CRUD actions plus manage; module-specific
// capabilities are declared in extra.
var groups = []group{
	{module: "sales", resources: []string{"lead", "quotation", "order", "invoice"},
		extra: []Permission{
			{Action: ActionApprove, Resource: "quotation", Description: "Approve sales quotations"},
			{Action: ActionExport, Resource: "invoice", Description: "Export invoices"},
		}},
	{module: "crm", resources: []string{"customer", "contact", "pipeline", "activity"}},
	{module: "inventory", resources: []string{"product", "warehouse", "stock", "transfer"},
		extra: []Permission{
			{Action: ActionApprove, Resource: "transfer", Description: "Approve stock transfers"},
		}},
	{module: "finance", resources: []string{"account", "journal", "payment", "expense"},
		extra: []Permission{
			{Action: ActionApprove, Resource: "expense", Description: "Approve expense claims"},
			{Action: ActionExport, Resource: "journal", Description: "Export journal entries"},
		}},
	{module: "hrm", resources: []string{"employee", "department", "attendance", "leave", "payroll"},
		extra: []Permission{
			{Action: ActionApprove, Resource: "leave", Description: "Approve leave requests"},
			{Action: ActionExport, Resource: "payroll", Description: "Export payroll runs"},
		}},
	{module: "projects", resources: []string{"project", "task", "timesheet"}},
	{module: "manufacturing", resources: []string{"bom", "workorder", "workcenter"}},
	{module: "marketing", resources: []string{"campaign", "segment", "affiliate"}},
	{module: "support", resources: []string{"ticket", "callqueue", "knowledgebase"}},
	{module: "analytics", resources: []string{"report", "dashboard"},
		extra: []Permission{
			{Action: ActionExport, Resource: "report", Description: "Export analytic reports"},
		}},
	{module: "ecommerce", resources: []string{"storefront", "catalogitem", "promotion"}},
	{module: "system", resources: []string{"user", "role", "permission", "auditlog", "setting"},
		extra: []Permission{
			{Action: ActionAdmin, Resource: "system", Description: "Full administrative access to system settings"},
		}},
}

var (
	permissions    []Permission
	pairIndex      map[string]Permission
	resourceModule map[string]string
	moduleIDs      []string
)

func init() {
	resourceModule = make(map[string]string)
	pairIndex = make(map[string]Permission)
	crudActions := []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage}
	seenModules := make(map[string]struct{})
	for _, g := range groups {
		if _, ok := seenModules[g.module]; !ok {
			seenModules[g.module] = struct{}{}
			moduleIDs = append(moduleIDs, g.module)
		}
		for _, resource := range g.resources {
			resourceModule[resource] = g.module
			for _, action := range crudActions {
				register(Permission{
					Action:      action,
					Resource:    resource,
					Module:      g.module,
					Description: fmt.Sprintf("%s %s records", capitalize(action), resource),
				})
			}
		}
		for _, p := range g.extra {
			p.Module = g.module
			if _, ok := resourceModule[p.Resource]; !ok {
				resourceModule[p.Resource] = g.module
			}
			register(p)
		}
	}
	sort.SliceStable(permissions, func(i, j int) bool { return permissions[i].ID < permissions[j].ID })
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func register(p Permission) {
	p.ID = p.Action + ":" + p.Resource
	if _, exists := pairIndex[p.ID]; exists {
		return
	}
	pairIndex[p.ID] = p
	permissions = append(permissions, p)
}

// List returns every catalogued permission in stable order.
func List() []Permission {
	out := make([]Permission, len(permissions))
	copy(out, permissions)
	return out
}

// Modules returns the distinct module identifiers.
func Modules() []string {
	out := make([]string, len(moduleIDs))
	copy(out, moduleIDs)
	return out
}

// ResolveModule maps a resource to its owning module, or ModuleGeneral when
// the resource is not catalogued.
func ResolveModule(resource string) string {
	if module, ok := resourceModule[resource]; ok {
		return module
	}
	return ModuleGeneral
}

// Parse splits a permission string into its action, resource and optional
// scope parts. It only checks shape, not catalog membership.
func Parse(perm string) (action, resource, scope string, err error) {
	parts := strings.Split(strings.TrimSpace(perm), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", "", fmt.Errorf("%w: %q", shared.ErrMalformedPermission, perm)
	}
	action = strings.ToLower(strings.TrimSpace(parts[0]))
	resource = strings.ToLower(strings.TrimSpace(parts[1]))
	if action == "" || resource == "" {
		return "", "", "", fmt.Errorf("%w: %q", shared.ErrMalformedPermission, perm)
	}
	if len(parts) == 3 {
		scope = strings.ToLower(strings.TrimSpace(parts[2]))
		switch scope {
		case ScopeAll, ScopeDepartment, ScopeOwn:
		default:
			return "", "", "", fmt.Errorf("%w: unknown scope %q", shared.ErrMalformedPermission, perm)
		}
	}
	return action, resource, scope, nil
}

// Validate rejects permission strings that are malformed or that name a
// concrete action/resource pair absent from the catalog. Wildcard positions
// always pass.
func Validate(perm string) error {
	action, resource, _, err := Parse(perm)
	if err != nil {
		return err
	}
	if action == Wildcard || resource == Wildcard {
		return nil
	}
	if _, ok := pairIndex[action+":"+resource]; !ok {
		return fmt.Errorf("%w: %q", shared.ErrUnknownPermission, perm)
	}
	return nil
}
