// Package authz implements the access gate: a typed table resolving a role to
// its allowed statistical categories and capabilities. Call sites consult the
// two predicates instead of branching on role values.
package authz

import (
	id "satudata/pkg/domain"
)

// Capability names an action class the gate can grant.
type Capability string

const (
	CapabilityMutate        Capability = "mutate"
	CapabilityVerify        Capability = "verify"
	CapabilityManageCatalog Capability = "manage_catalog"
)

// RolePolicy describes what one role may do. A nil AllowedCategories set means
// every category (superadmin); an empty set means none.
type RolePolicy struct {
	AllowedCategories map[id.Category]struct{}
	Capabilities      map[Capability]struct{}
}

func categories(cs ...id.Category) map[id.Category]struct{} {
	set := make(map[id.Category]struct{}, len(cs))
	for _, c := range cs {
		set[c] = struct{}{}
	}
	return set
}

func capabilities(cs ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(cs))
	for _, c := range cs {
		set[c] = struct{}{}
	}
	return set
}

// policies is the single source of truth for role permissions.
var policies = map[id.Role]RolePolicy{
	id.RoleSuperadmin: {
		AllowedCategories: nil, // all categories
		Capabilities:      capabilities(CapabilityMutate, CapabilityVerify, CapabilityManageCatalog),
	},
	id.RoleAdminEkonomi: {
		AllowedCategories: categories(id.CategoryEkonomi),
		Capabilities:      capabilities(CapabilityMutate, CapabilityVerify),
	},
	id.RoleAdminSosial: {
		AllowedCategories: categories(id.CategorySosial),
		Capabilities:      capabilities(CapabilityMutate, CapabilityVerify),
	},
	id.RoleAdminLingkungan: {
		AllowedCategories: categories(id.CategoryLingkungan),
		Capabilities:      capabilities(CapabilityMutate, CapabilityVerify),
	},
	id.RoleViewer: {
		AllowedCategories: categories(),
		Capabilities:      capabilities(),
	},
}

// Gate answers category-scoped permission checks from the policy table.
// The zero value is unusable; construct with New.
type Gate struct {
	policies map[id.Role]RolePolicy
}

// New builds a Gate over the built-in policy table.
func New() *Gate {
	return &Gate{policies: policies}
}

func (g *Gate) allows(role id.Role, category id.Category, cap Capability) bool {
	policy, ok := g.policies[role]
	if !ok {
		return false
	}
	if _, ok := policy.Capabilities[cap]; !ok {
		return false
	}
	if policy.AllowedCategories == nil {
		return true
	}
	_, ok = policy.AllowedCategories[category]
	return ok
}

// CanMutate reports whether role may create, update, or delete data points in
// the given category.
func (g *Gate) CanMutate(role id.Role, category id.Category) bool {
	return g.allows(role, category, CapabilityMutate)
}

// CanVerify reports whether role may verify data points in the given category.
// Verification requires the same category match as mutation.
func (g *Gate) CanVerify(role id.Role, category id.Category) bool {
	return g.allows(role, category, CapabilityVerify)
}

// CanManageCatalog reports whether role may change the indicator catalog
// itself (deactivation). Only the superadmin policy grants this.
func (g *Gate) CanManageCatalog(role id.Role) bool {
	policy, ok := g.policies[role]
	if !ok {
		return false
	}
	_, ok = policy.Capabilities[CapabilityManageCatalog]
	return ok
}
