package memory

// Snapshot is the serializable form of the full store state, used by the
// durable backends to persist and rehydrate.
type Snapshot struct {
	Proposals     []Proposal     `json:"proposals"`
	Proponents    []Proponent    `json:"proponents"`
	Collaborators []Collaborator `json:"collaborators"`
	Beneficiaries []Beneficiary  `json:"beneficiaries"`
	Programs      []Program      `json:"programs"`
	Users         []User         `json:"users"`
}

// ExportState captures the committed state as a Snapshot.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := view{state: &s.state}
	return Snapshot{
		Proposals:     v.ListProposals(),
		Proponents:    v.ListProponents(),
		Collaborators: v.ListCollaborators(),
		Beneficiaries: v.ListBeneficiaries(),
		Programs:      v.ListPrograms(),
		Users:         v.ListUsers(),
	}
}

// ImportState replaces the committed state with the snapshot contents and
// rebuilds the identity indexes. Later duplicates for the same identity key
// collapse onto the first row seen, preserving the uniqueness invariant even
// when rehydrating from an older dump.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newState()
	for _, p := range snapshot.Proposals {
		st.proposals[p.ID] = cloneProposal(p)
	}
	for _, p := range snapshot.Proponents {
		if _, taken := st.proponentIndex[p.IdentityKey()]; taken {
			continue
		}
		st.proponents[p.ID] = p
		st.proponentIndex[p.IdentityKey()] = p.ID
	}
	for _, c := range snapshot.Collaborators {
		if _, taken := st.collaboratorIndex[c.IdentityKey()]; taken {
			continue
		}
		st.collaborators[c.ID] = c
		st.collaboratorIndex[c.IdentityKey()] = c.ID
	}
	for _, b := range snapshot.Beneficiaries {
		if _, taken := st.beneficiaryIndex[b.IdentityKey()]; taken {
			continue
		}
		st.beneficiaries[b.ID] = b
		st.beneficiaryIndex[b.IdentityKey()] = b.ID
	}
	for _, p := range snapshot.Programs {
		if _, taken := st.programIndex[p.Name]; taken {
			continue
		}
		st.programs[p.ID] = p
		st.programIndex[p.Name] = p.ID
	}
	for _, u := range snapshot.Users {
		st.users[u.ID] = u
	}
	s.state = st
}
