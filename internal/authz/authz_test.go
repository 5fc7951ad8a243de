package authz

import (
	"testing"

	id "satudata/pkg/domain"
)

func TestSuperadminSpansAllCategories(t *testing.T) {
	gate := New()
	for _, category := range id.Categories() {
		if !gate.CanMutate(id.RoleSuperadmin, category) {
			t.Fatalf("superadmin must mutate %s", category)
		}
		if !gate.CanVerify(id.RoleSuperadmin, category) {
			t.Fatalf("superadmin must verify %s", category)
		}
	}
}

func TestDomainAdminFencedToOwnCategory(t *testing.T) {
	gate := New()
	cases := []struct {
		role id.Role
		own  id.Category
	}{
		{id.RoleAdminEkonomi, id.CategoryEkonomi},
		{id.RoleAdminSosial, id.CategorySosial},
		{id.RoleAdminLingkungan, id.CategoryLingkungan},
	}
	for _, tc := range cases {
		if !gate.CanMutate(tc.role, tc.own) {
			t.Fatalf("%s must mutate its own category", tc.role)
		}
		if !gate.CanVerify(tc.role, tc.own) {
			t.Fatalf("%s must verify its own category", tc.role)
		}
		for _, other := range id.Categories() {
			if other == tc.own {
				continue
			}
			if gate.CanMutate(tc.role, other) {
				t.Fatalf("%s must not mutate %s", tc.role, other)
			}
			if gate.CanVerify(tc.role, other) {
				t.Fatalf("%s must not verify %s", tc.role, other)
			}
		}
	}
}

func TestViewerAndUnknownRolesDenied(t *testing.T) {
	gate := New()
	for _, role := range []id.Role{id.RoleViewer, id.Role("intern"), ""} {
		for _, category := range id.Categories() {
			if gate.CanMutate(role, category) {
				t.Fatalf("role %q must not mutate", role)
			}
			if gate.CanVerify(role, category) {
				t.Fatalf("role %q must not verify", role)
			}
		}
	}
}
