package core

import "testing"

func TestVisibleByRole(t *testing.T) {
	owner := User{Role: RoleUser, OfficeID: "office-a"}
	owner.ID = "u1"
	proposal := Proposal{UserID: "u1", Title: "Irrigation"}

	cases := []struct {
		name   string
		caller Caller
		owner  *User
		want   bool
	}{
		{"owner sees own", Caller{ID: "u1", Role: RoleUser}, &owner, true},
		{"other user blind", Caller{ID: "u2", Role: RoleUser}, &owner, false},
		{"psto same office", Caller{ID: "p1", Role: RolePSTO, OfficeID: "office-a"}, &owner, true},
		{"psto other office", Caller{ID: "p1", Role: RolePSTO, OfficeID: "office-b"}, &owner, false},
		{"psto missing owner", Caller{ID: "p1", Role: RolePSTO, OfficeID: "office-a"}, nil, false},
		{"head sees all", Caller{ID: "h1", Role: RoleHead}, &owner, true},
		{"rpmo sees all", Caller{ID: "r1", Role: RoleRPMO}, nil, true},
		{"staff sees all", Caller{ID: "s1", Role: RoleStaff}, nil, true},
		{"unknown sees nothing", Caller{ID: "u1", Role: RoleUnknown}, &owner, false},
	}

	var policy AccessPolicy
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Visible(tc.caller, proposal, tc.owner); got != tc.want {
				t.Fatalf("Visible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVisiblePSTOOwnerWithoutOffice(t *testing.T) {
	owner := User{Role: RoleUser}
	owner.ID = "u1"
	proposal := Proposal{UserID: "u1"}
	var policy AccessPolicy
	if policy.Visible(Caller{ID: "p1", Role: RolePSTO, OfficeID: ""}, proposal, &owner) {
		t.Fatalf("empty office on both sides must not match")
	}
}

func TestCanMutate(t *testing.T) {
	var policy AccessPolicy
	pending := Proposal{UserID: "u1", Status: StatusPending}
	approved := Proposal{UserID: "u1", Status: StatusApproved}

	if !policy.CanMutate(Caller{ID: "u1", Role: RoleUser}, pending) {
		t.Fatalf("owner must be able to mutate a pending proposal")
	}
	if policy.CanMutate(Caller{ID: "u2", Role: RoleHead}, pending) {
		t.Fatalf("non-owner must not mutate, regardless of role")
	}
	if policy.CanMutate(Caller{ID: "u1", Role: RoleUser}, approved) {
		t.Fatalf("approved proposals are frozen for the owner")
	}
}

func TestMatchesSearch(t *testing.T) {
	owner := User{FirstName: "Maria", LastName: "Santos"}
	proponent := Proponent{Name: "Juan Cruz"}
	beneficiary := Beneficiary{Group: "Upland Farmers"}
	proposal := Proposal{Title: "Solar Dryer", Details: "post-harvest facility", Status: StatusPending}

	var policy AccessPolicy
	cases := []struct {
		term string
		want bool
	}{
		{"", true},
		{"solar", true},
		{"HARVEST", true},
		{"pending", true},
		{"maria", true},
		{"santos", true},
		{"juan", true},
		{"farmers", true},
		{"windmill", false},
	}
	for _, tc := range cases {
		if got := policy.MatchesSearch(tc.term, proposal, &owner, &proponent, &beneficiary); got != tc.want {
			t.Fatalf("MatchesSearch(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}

	if policy.MatchesSearch("maria", proposal, nil, nil, nil) {
		t.Fatalf("missing relations must not match their fields")
	}
}
