package domain

import (
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
	}{
		{"user", RoleUser},
		{"psto", RolePSTO},
		{"head", RoleHead},
		{"rpmo", RoleRPMO},
		{"staff", RoleStaff},
		{"", RoleUnknown},
		{"admin", RoleUnknown},
		{"USER", RoleUnknown},
	}
	for _, tc := range cases {
		if got := ParseRole(tc.raw); got != tc.want {
			t.Fatalf("ParseRole(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range KnownStatuses() {
		if !ValidStatus(status) {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	for _, status := range []Status{"", "pending", "Archived"} {
		if ValidStatus(status) {
			t.Fatalf("expected %q to be invalid", status)
		}
	}
}

func TestProponentIdentityKeyDistinguishesSex(t *testing.T) {
	a := Proponent{Name: "Juan Cruz", Sex: SexMale}
	b := Proponent{Name: "Juan Cruz", Sex: SexFemale}
	if a.IdentityKey() == b.IdentityKey() {
		t.Fatalf("expected distinct identity keys for differing sex")
	}
	if a.IdentityKey() != (Proponent{Name: "Juan Cruz", Sex: SexMale}).IdentityKey() {
		t.Fatalf("expected identical keys for identical identity fields")
	}
}

func TestBeneficiaryIdentityKeyIncludesCounts(t *testing.T) {
	base := Beneficiary{Group: "Farmers", Leader: "Ana", LeaderSex: SexFemale, Male: 10, Female: 12}
	same := Beneficiary{Group: "Farmers", Leader: "Ana", LeaderSex: SexFemale, Male: 10, Female: 12, Total: 22}
	if base.IdentityKey() != same.IdentityKey() {
		t.Fatalf("total must not participate in the identity key")
	}
	diff := base
	diff.Male = 11
	if base.IdentityKey() == diff.IdentityKey() {
		t.Fatalf("expected count change to alter identity key")
	}
}

func TestSeedPrograms(t *testing.T) {
	programs := SeedPrograms()
	if len(programs) != 3 {
		t.Fatalf("expected 3 seeded programs, got %d", len(programs))
	}
	names := make(map[string]bool, len(programs))
	for _, p := range programs {
		names[p.Name] = true
	}
	for _, want := range []string{ProgramCEST, ProgramLGIA, ProgramSSCP} {
		if !names[want] {
			t.Fatalf("missing seeded program %s", want)
		}
	}
}

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	res.Merge(Result{})
	if res.HasBlocking() {
		t.Fatalf("empty result must not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if res.HasBlocking() {
		t.Fatalf("warnings must not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 merged violations, got %d", len(res.Violations))
	}
}

func TestValidationErrorByField(t *testing.T) {
	err := ValidationError{Violations: []FieldViolation{
		{Field: "title", Rule: "required", Message: "title is required"},
		{Field: "title", Rule: "max", Message: "title too long"},
		{Field: "details", Rule: "required", Message: "details is required"},
	}}
	byField := err.ByField()
	if len(byField["title"]) != 2 || len(byField["details"]) != 1 {
		t.Fatalf("unexpected grouping: %#v", byField)
	}
	if !strings.Contains(err.Error(), "title") {
		t.Fatalf("expected error text to mention failing field, got %q", err.Error())
	}
}
