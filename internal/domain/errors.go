package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or unnormalizable query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexUnavailable signals that no index snapshot has been published yet.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrPolicyDenied signals a per-candidate policy denial.
	ErrPolicyDenied = errors.New("policy denied")
	// ErrBudgetExceeded signals that the top candidate alone exceeds the token budget.
	ErrBudgetExceeded = errors.New("token budget exceeded")
	// ErrUngroundedCitation signals a citation that resolves to no loaded section.
	ErrUngroundedCitation = errors.New("ungrounded citation")
	// ErrProviderError signals a synthesis provider failure.
	ErrProviderError = errors.New("provider error")
	// ErrSectionNotFound signals a missing section.
	ErrSectionNotFound = errors.New("section not found")
	// ErrAlreadyAdmitted signals a duplicate admit into a working set.
	ErrAlreadyAdmitted = errors.New("section already admitted")
	// ErrNotAdmitted signals a release of a section that is not resident.
	ErrNotAdmitted = errors.New("section not admitted")
)

// BudgetExceededError wraps ErrBudgetExceeded with the offending token counts.
type BudgetExceededError struct {
	SectionTokens int
	BudgetTokens  int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("%s: section needs %d tokens, budget is %d",
		ErrBudgetExceeded.Error(), e.SectionTokens, e.BudgetTokens)
}

func (e *BudgetExceededError) Unwrap() error { return ErrBudgetExceeded }

// NewBudgetExceeded creates a budget exceeded error.
func NewBudgetExceeded(sectionTokens, budgetTokens int) error {
	return &BudgetExceededError{SectionTokens: sectionTokens, BudgetTokens: budgetTokens}
}
