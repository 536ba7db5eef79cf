package core

import (
	"context"
	"fmt"

	"grantcore/pkg/domain"
)

// BeneficiaryTotalRule enforces the head-count invariant on every written
// beneficiary row: counts are non-negative and the stored total equals
// male + female.
func BeneficiaryTotalRule() domain.Rule {
	return beneficiaryTotalRule{}
}

type beneficiaryTotalRule struct{}

func (beneficiaryTotalRule) Name() string { return "beneficiary_total" }

func (beneficiaryTotalRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != EntityBeneficiary {
			continue
		}
		after, ok := change.After.(Beneficiary)
		if !ok {
			continue
		}
		if after.Male < 0 || after.Female < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "beneficiary_total",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("beneficiary %s has negative head counts", after.ID),
				Entity:   EntityBeneficiary,
				EntityID: after.ID,
			})
			continue
		}
		if after.Total != after.Male+after.Female {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "beneficiary_total",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("beneficiary %s total %d does not equal male %d + female %d", after.ID, after.Total, after.Male, after.Female),
				Entity:   EntityBeneficiary,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
