package core

import "grantcore/pkg/domain"

// EntityResolver maps loosely identified related entities onto canonical
// rows. An explicit id expresses caller intent to reuse a known row and
// fails with NotFound when it does not exist; identity fields dedup against
// the existing population and create a row only when nothing matches. The
// find-or-create primitives it calls are atomic within the enclosing
// transaction, so concurrent identical resolutions converge on one row.
type EntityResolver struct{}

// ResolveProponent returns the canonical proponent for the input.
func (EntityResolver) ResolveProponent(tx Transaction, in ProponentInput) (Proponent, error) {
	if in.ID != "" {
		p, ok := tx.FindProponent(in.ID)
		if !ok {
			return Proponent{}, domain.NotFoundError{Entity: EntityProponent, ID: in.ID}
		}
		return p, nil
	}
	p, _, err := tx.FindOrCreateProponent(Proponent{Name: in.Name, Sex: in.Sex})
	return p, err
}

// ResolveCollaborator returns the canonical collaborator for the input, or
// nil when the relation is absent altogether.
func (EntityResolver) ResolveCollaborator(tx Transaction, in CollaboratorInput) (*Collaborator, error) {
	if in.ID != "" {
		c, ok := tx.FindCollaborator(in.ID)
		if !ok {
			return nil, domain.NotFoundError{Entity: EntityCollaborator, ID: in.ID}
		}
		return &c, nil
	}
	if in.Name == "" {
		return nil, nil
	}
	c, _, err := tx.FindOrCreateCollaborator(Collaborator{Name: in.Name})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveBeneficiary returns the canonical beneficiary group for the input.
// The derived total is computed by the storage primitive, never taken from
// the caller.
func (EntityResolver) ResolveBeneficiary(tx Transaction, in BeneficiaryInput) (Beneficiary, error) {
	if in.ID != "" {
		b, ok := tx.FindBeneficiary(in.ID)
		if !ok {
			return Beneficiary{}, domain.NotFoundError{Entity: EntityBeneficiary, ID: in.ID}
		}
		return b, nil
	}
	b, _, err := tx.FindOrCreateBeneficiary(Beneficiary{
		Group:     in.Group,
		Leader:    in.Leader,
		LeaderSex: in.LeaderSex,
		Male:      in.Male,
		Female:    in.Female,
	})
	return b, err
}
