package lifecycle

import (
	"payables_service/internal/models"

	"github.com/shopspring/decimal"
)

// ThresholdPolicy is the default tiered authority model. Amounts at or below
// AutoApproveLimit may skip the gate; amounts up to ManagerLimit need manager
// authority; anything above needs a director.
//
// The limits are configuration, injected from the environment, never
// hard-coded at call sites.
type ThresholdPolicy struct {
	AutoApproveLimit decimal.Decimal
	ManagerLimit     decimal.Decimal
}

func NewThresholdPolicy(autoApprove, manager decimal.Decimal) ThresholdPolicy {
	return ThresholdPolicy{AutoApproveLimit: autoApprove, ManagerLimit: manager}
}

func (p ThresholdPolicy) RequiresApproval(amount decimal.Decimal) bool {
	return amount.GreaterThan(p.AutoApproveLimit)
}

func (p ThresholdPolicy) CanApprove(amount decimal.Decimal, authorityLevel int) bool {
	if amount.LessThanOrEqual(p.ManagerLimit) {
		return authorityLevel >= models.AuthorityManager
	}
	return authorityLevel >= models.AuthorityDirector
}
