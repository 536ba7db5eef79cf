package core

import (
	"fmt"

	"grantcore/pkg/domain"
)

// ProponentInput identifies a proponent either by explicit id (reuse) or by
// its identity fields (dedup-or-create).
type ProponentInput struct {
	ID   string
	Name string
	Sex  Sex
}

// CollaboratorInput identifies an optional collaborator. Leaving every field
// empty means the proposal has no collaborator.
type CollaboratorInput struct {
	ID   string
	Name string
}

// BeneficiaryInput identifies a beneficiary group by explicit id or by the
// full identity tuple. The stored total is always derived, never supplied.
type BeneficiaryInput struct {
	ID        string
	Group     string
	Leader    string
	LeaderSex Sex
	Male      int
	Female    int
}

// ProposalInput is the payload accepted by create and update operations.
type ProposalInput struct {
	Title        string
	Details      string
	ProjectType  *string
	Proponent    ProponentInput
	Collaborator CollaboratorInput
	Beneficiary  BeneficiaryInput
}

const (
	maxTitleLen       = 255
	maxDetailsLen     = 5000
	maxProjectTypeLen = 100
	maxNameLen        = 255
)

// validateProposalInput checks every field constraint and returns a
// ValidationError carrying the complete violation list, never just the first
// failure.
func validateProposalInput(in ProposalInput) error {
	var violations []domain.FieldViolation

	add := func(field, rule, message string) {
		violations = append(violations, domain.FieldViolation{Field: field, Rule: rule, Message: message})
	}
	checkRequired := func(field, value string) bool {
		if value == "" {
			add(field, "required", fmt.Sprintf("%s is required", field))
			return false
		}
		return true
	}
	checkMax := func(field, value string, limit int) {
		if len(value) > limit {
			add(field, "max", fmt.Sprintf("%s must not exceed %d characters", field, limit))
		}
	}

	if checkRequired("title", in.Title) {
		checkMax("title", in.Title, maxTitleLen)
	}
	if checkRequired("details", in.Details) {
		checkMax("details", in.Details, maxDetailsLen)
	}
	if in.ProjectType != nil {
		checkMax("project_type", *in.ProjectType, maxProjectTypeLen)
	}

	if in.Proponent.ID == "" {
		if checkRequired("proponent_name", in.Proponent.Name) {
			checkMax("proponent_name", in.Proponent.Name, maxNameLen)
		}
		switch in.Proponent.Sex {
		case SexMale, SexFemale:
		case "":
			add("proponent_sex", "required", "proponent_sex is required")
		default:
			add("proponent_sex", "in", "proponent_sex must be one of Male, Female")
		}
	}

	if in.Collaborator.Name != "" {
		checkMax("collaborator_name", in.Collaborator.Name, maxNameLen)
	}

	if in.Beneficiary.ID == "" {
		if checkRequired("beneficiary_name", in.Beneficiary.Group) {
			checkMax("beneficiary_name", in.Beneficiary.Group, maxNameLen)
		}
		if checkRequired("beneficiary_leader", in.Beneficiary.Leader) {
			checkMax("beneficiary_leader", in.Beneficiary.Leader, maxNameLen)
		}
		switch in.Beneficiary.LeaderSex {
		case SexMale, SexFemale, SexOther:
		case "":
			add("beneficiary_leader_sex", "required", "beneficiary_leader_sex is required")
		default:
			add("beneficiary_leader_sex", "in", "beneficiary_leader_sex must be one of Male, Female, Other")
		}
		if in.Beneficiary.Male < 0 {
			add("male_beneficiaries", "min", "male_beneficiaries must be at least 0")
		}
		if in.Beneficiary.Female < 0 {
			add("female_beneficiaries", "min", "female_beneficiaries must be at least 0")
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return domain.ValidationError{Violations: violations}
}
