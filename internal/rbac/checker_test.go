package rbac

import "testing"

func TestChecker_Has(t *testing.T) {
	c := NewChecker(nil)

	tests := []struct {
		role string
		perm string
		want bool
	}{
		{"student", "attempt:submit", true},
		{"student", "bank:manage", false},
		{"teacher", "bank:manage", true},
		{"teacher", "attempt:view-all", true},
		{"teacher", "attempt:view-own", false},
		{"admin", "anything:at-all", true},
		{"", "quiz:view", false},
		{"unknown", "quiz:view", false},
	}
	for _, tc := range tests {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q,%q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_AnyAll(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "bank:manage", "attempt:view-own") {
		t.Error("Any should pass when one permission matches")
	}
	if c.All("student", "attempt:view-own", "bank:manage") {
		t.Error("All should fail when one permission is missing")
	}
}

func TestMatchPerm_Wildcard(t *testing.T) {
	c := NewChecker(map[string][]string{"auditor": {"attempt:*"}})
	if !c.Has("auditor", "attempt:view-all") {
		t.Error("prefix wildcard should match")
	}
	if c.Has("auditor", "quiz:view") {
		t.Error("prefix wildcard should not match other prefixes")
	}
}
