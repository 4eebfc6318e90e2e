package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iho/stripe-datev/internal/domain"
)

// CustomerUseCase handles customer maintenance.
type CustomerUseCase struct {
	directory  CustomerDirectory
	classifier *TaxClassifier
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(directory CustomerDirectory, classifier *TaxClassifier) *CustomerUseCase {
	return &CustomerUseCase{
		directory:  directory,
		classifier: classifier,
	}
}

// ValidationResult summarizes a customer validation pass.
type ValidationResult struct {
	Validated   int
	Diagnostics []domain.Diagnostic
}

// ValidateCustomers checks that every customer can be classified for tax.
func (uc *CustomerUseCase) ValidateCustomers(ctx context.Context) (*ValidationResult, error) {
	customers, err := uc.directory.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	result := &ValidationResult{}
	for i := range customers {
		cus := &customers[i]
		if cus.Deleted {
			continue
		}
		if cus.Address == nil {
			result.Diagnostics = append(result.Diagnostics,
				domain.Advisory(domain.CodeMissingAddress, cus.ID, "customer without address"))
		}
		if cus.TaxExempt == domain.TaxExemptExempt {
			result.Diagnostics = append(result.Diagnostics,
				domain.Advisory(domain.CodeExemptAsReverse, cus.ID, "exempt customer"))
		}

		_, diags := uc.classifier.ClassifyCustomer(cus)
		for _, d := range diags {
			// already reported above when the billing address is missing
			if d.Code == domain.CodeMissingAddress && cus.Address == nil {
				continue
			}
			result.Diagnostics = append(result.Diagnostics, d)
		}
		result.Validated++
	}
	return result, nil
}

// AccountAssignment is a ledger account number to store on a customer.
type AccountAssignment struct {
	CustomerID    string
	AccountNumber string
	ClearKeys     []string
}

// AccountPlan lists the account numbers a fill run assigns.
type AccountPlan struct {
	Highest     int
	Assignments []AccountAssignment
}

// PlanAccountNumbers assigns personal account numbers to the customers
// created after the newest customer that already has one. customers must be
// ordered newest first, as the billing platform lists them. Numbers are
// given out oldest customer first.
func PlanAccountNumbers(customers []domain.Customer) (*AccountPlan, error) {
	highest := FirstAccountNumber - 1
	var pending []domain.Customer
	for _, cus := range customers {
		if n, ok := cus.Metadata[domain.MetadataAccountNumber]; ok {
			parsed, err := strconv.Atoi(n)
			if err != nil {
				return nil, domain.NewProcessingError("plan account numbers", cus.ID,
					fmt.Errorf("%w: %q", domain.ErrMissingAccountNumber, n))
			}
			highest = parsed
			break
		}
		pending = append(pending, cus)
	}

	plan := &AccountPlan{Highest: highest}
	next := highest
	for i := len(pending) - 1; i >= 0; i-- {
		cus := pending[i]
		next++

		var clear []string
		for _, key := range legacyCustomerMetadata {
			if _, ok := cus.Metadata[key]; ok {
				clear = append(clear, key)
			}
		}
		plan.Assignments = append(plan.Assignments, AccountAssignment{
			CustomerID:    cus.ID,
			AccountNumber: strconv.Itoa(next),
			ClearKeys:     clear,
		})
	}
	return plan, nil
}

// FillAccountNumbers plans account numbers and, when apply is set, stores them.
func (uc *CustomerUseCase) FillAccountNumbers(ctx context.Context, apply bool) (*AccountPlan, error) {
	customers, err := uc.directory.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	plan, err := PlanAccountNumbers(customers)
	if err != nil {
		return nil, err
	}
	if !apply {
		return plan, nil
	}

	for _, a := range plan.Assignments {
		if err := uc.directory.SetAccountNumber(ctx, a.CustomerID, a.AccountNumber, a.ClearKeys); err != nil {
			return nil, fmt.Errorf("set account number of %s: %w", a.CustomerID, err)
		}
	}
	return plan, nil
}

// ListAccounts returns the customers for the accounts export.
func (uc *CustomerUseCase) ListAccounts(ctx context.Context) ([]domain.Customer, error) {
	customers, err := uc.directory.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}
