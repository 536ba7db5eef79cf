package memory

import "sort"

// ListProposals returns all proposals within the snapshot, oldest first.
func (v view) ListProposals() []Proposal {
	out := make([]Proposal, 0, len(v.state.proposals))
	for _, p := range v.state.proposals {
		out = append(out, cloneProposal(p))
	}
	sortByCreation(out, func(p Proposal) (string, int64) { return p.ID, p.CreatedAt.UnixNano() })
	return out
}

// ListProponents returns all proponents within the snapshot.
func (v view) ListProponents() []Proponent {
	out := make([]Proponent, 0, len(v.state.proponents))
	for _, p := range v.state.proponents {
		out = append(out, p)
	}
	sortByCreation(out, func(p Proponent) (string, int64) { return p.ID, p.CreatedAt.UnixNano() })
	return out
}

// ListCollaborators returns all collaborators within the snapshot.
func (v view) ListCollaborators() []Collaborator {
	out := make([]Collaborator, 0, len(v.state.collaborators))
	for _, c := range v.state.collaborators {
		out = append(out, c)
	}
	sortByCreation(out, func(c Collaborator) (string, int64) { return c.ID, c.CreatedAt.UnixNano() })
	return out
}

// ListBeneficiaries returns all beneficiaries within the snapshot.
func (v view) ListBeneficiaries() []Beneficiary {
	out := make([]Beneficiary, 0, len(v.state.beneficiaries))
	for _, b := range v.state.beneficiaries {
		out = append(out, b)
	}
	sortByCreation(out, func(b Beneficiary) (string, int64) { return b.ID, b.CreatedAt.UnixNano() })
	return out
}

// ListPrograms returns the program reference set within the snapshot.
func (v view) ListPrograms() []Program {
	out := make([]Program, 0, len(v.state.programs))
	for _, p := range v.state.programs {
		out = append(out, p)
	}
	sortByCreation(out, func(p Program) (string, int64) { return p.ID, p.CreatedAt.UnixNano() })
	return out
}

// ListUsers returns all directory users within the snapshot.
func (v view) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, u)
	}
	sortByCreation(out, func(u User) (string, int64) { return u.ID, u.CreatedAt.UnixNano() })
	return out
}

// FindProposal retrieves a proposal by ID from the snapshot.
func (v view) FindProposal(id string) (Proposal, bool) {
	p, ok := v.state.proposals[id]
	if !ok {
		return Proposal{}, false
	}
	return cloneProposal(p), true
}

// FindProponent retrieves a proponent by ID from the snapshot.
func (v view) FindProponent(id string) (Proponent, bool) {
	p, ok := v.state.proponents[id]
	return p, ok
}

// FindCollaborator retrieves a collaborator by ID from the snapshot.
func (v view) FindCollaborator(id string) (Collaborator, bool) {
	c, ok := v.state.collaborators[id]
	return c, ok
}

// FindBeneficiary retrieves a beneficiary by ID from the snapshot.
func (v view) FindBeneficiary(id string) (Beneficiary, bool) {
	b, ok := v.state.beneficiaries[id]
	return b, ok
}

// FindProgram retrieves a program by ID from the snapshot.
func (v view) FindProgram(id string) (Program, bool) {
	p, ok := v.state.programs[id]
	return p, ok
}

// FindUser retrieves a directory user by ID from the snapshot.
func (v view) FindUser(id string) (User, bool) {
	u, ok := v.state.users[id]
	return u, ok
}

// sortByCreation orders records by creation time then id so list output is
// deterministic across runs.
func sortByCreation[T any](items []T, key func(T) (string, int64)) {
	sort.Slice(items, func(i, j int) bool {
		idI, tsI := key(items[i])
		idJ, tsJ := key(items[j])
		if tsI != tsJ {
			return tsI < tsJ
		}
		return idI < idJ
	})
}

// Committed-state read helpers -----------------------------------------------

// GetProposal retrieves a proposal by ID from committed state.
func (s *Store) GetProposal(id string) (Proposal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindProposal(id)
}

// ListProposals returns all proposals from committed state.
func (s *Store) ListProposals() []Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListProposals()
}

// GetProponent retrieves a proponent by ID from committed state.
func (s *Store) GetProponent(id string) (Proponent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindProponent(id)
}

// ListProponents returns all proponents from committed state.
func (s *Store) ListProponents() []Proponent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListProponents()
}

// GetCollaborator retrieves a collaborator by ID from committed state.
func (s *Store) GetCollaborator(id string) (Collaborator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindCollaborator(id)
}

// ListCollaborators returns all collaborators from committed state.
func (s *Store) ListCollaborators() []Collaborator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListCollaborators()
}

// GetBeneficiary retrieves a beneficiary by ID from committed state.
func (s *Store) GetBeneficiary(id string) (Beneficiary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindBeneficiary(id)
}

// ListBeneficiaries returns all beneficiaries from committed state.
func (s *Store) ListBeneficiaries() []Beneficiary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListBeneficiaries()
}

// GetProgram retrieves a program by ID from committed state.
func (s *Store) GetProgram(id string) (Program, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindProgram(id)
}

// ListPrograms returns the program reference set from committed state.
func (s *Store) ListPrograms() []Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListPrograms()
}

// GetUser retrieves a directory user by ID from committed state.
func (s *Store) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindUser(id)
}

// ListUsers returns all directory users from committed state.
func (s *Store) ListUsers() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListUsers()
}
