package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/usecase"
	"github.com/iho/stripe-datev/internal/usecase/mocks"
)

func TestCustomerUseCase_ValidateCustomers(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockCustomerDirectory(ctrl)

	exempt := customerFR()
	exempt.ID = "cus_exempt"
	exempt.TaxExempt = domain.TaxExemptExempt

	homeless := domain.Customer{ID: "cus_nowhere", TaxExempt: domain.TaxExemptNone}
	gone := domain.Customer{ID: "cus_gone", Deleted: true}

	directory.EXPECT().ListCustomers(gomock.Any()).
		Return([]domain.Customer{*customerDE(), *exempt, homeless, gone}, nil)

	uc := usecase.NewCustomerUseCase(directory, usecase.NewTaxClassifier(testAccounts()))
	result, err := uc.ValidateCustomers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Validated)
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, domain.CodeExemptAsReverse, result.Diagnostics[0].Code)
	assert.Equal(t, "cus_exempt", result.Diagnostics[0].SourceID)
	assert.Equal(t, domain.CodeMissingAddress, result.Diagnostics[1].Code)
	assert.Equal(t, "cus_nowhere", result.Diagnostics[1].SourceID)
}

func TestCustomerUseCase_ValidateCustomers_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockCustomerDirectory(ctrl)
	listErr := errors.New("rate limited")
	directory.EXPECT().ListCustomers(gomock.Any()).Return(nil, listErr)

	uc := usecase.NewCustomerUseCase(directory, usecase.NewTaxClassifier(testAccounts()))
	_, err := uc.ValidateCustomers(context.Background())
	assert.ErrorIs(t, err, listErr)
}

func withAccount(id, number string) domain.Customer {
	c := domain.Customer{ID: id, Metadata: map[string]string{}}
	if number != "" {
		c.Metadata[domain.MetadataAccountNumber] = number
	}
	return c
}

func TestPlanAccountNumbers(t *testing.T) {
	tests := []struct {
		name      string
		customers []domain.Customer
		highest   int
		expected  []usecase.AccountAssignment
	}{
		{
			name: "continues after newest numbered customer",
			customers: []domain.Customer{
				withAccount("cus_c", ""),
				withAccount("cus_b", ""),
				withAccount("cus_a", "10105"),
				withAccount("cus_old", "10104"),
			},
			highest: 10105,
			expected: []usecase.AccountAssignment{
				{CustomerID: "cus_b", AccountNumber: "10106"},
				{CustomerID: "cus_c", AccountNumber: "10107"},
			},
		},
		{
			name: "starts at first account number",
			customers: []domain.Customer{
				withAccount("cus_b", ""),
				withAccount("cus_a", ""),
			},
			highest: 10099,
			expected: []usecase.AccountAssignment{
				{CustomerID: "cus_a", AccountNumber: "10100"},
				{CustomerID: "cus_b", AccountNumber: "10101"},
			},
		},
		{
			name: "nothing to assign",
			customers: []domain.Customer{
				withAccount("cus_a", "10200"),
			},
			highest: 10200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := usecase.PlanAccountNumbers(tt.customers)
			require.NoError(t, err)
			assert.Equal(t, tt.highest, plan.Highest)
			assert.Equal(t, tt.expected, plan.Assignments)
		})
	}
}

func TestPlanAccountNumbers_LegacyKeys(t *testing.T) {
	c := withAccount("cus_new", "")
	c.Metadata["subscribedProduct"] = "prod_1"
	c.Metadata["subscribedTotal"] = "119"
	c.Metadata["unrelated"] = "x"

	plan, err := usecase.PlanAccountNumbers([]domain.Customer{c})
	require.NoError(t, err)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, []string{"subscribedProduct", "subscribedTotal"}, plan.Assignments[0].ClearKeys)
}

func TestPlanAccountNumbers_InvalidNumber(t *testing.T) {
	_, err := usecase.PlanAccountNumbers([]domain.Customer{withAccount("cus_a", "abc")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAccountNumber)
	assert.Equal(t, "cus_a", domain.SourceOf(err))
}

func TestCustomerUseCase_FillAccountNumbers(t *testing.T) {
	customers := []domain.Customer{
		withAccount("cus_b", ""),
		withAccount("cus_a", ""),
		withAccount("cus_old", "10110"),
	}

	t.Run("dry run stores nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		directory := mocks.NewMockCustomerDirectory(ctrl)
		directory.EXPECT().ListCustomers(gomock.Any()).Return(customers, nil)

		uc := usecase.NewCustomerUseCase(directory, usecase.NewTaxClassifier(testAccounts()))
		plan, err := uc.FillAccountNumbers(context.Background(), false)
		require.NoError(t, err)
		assert.Len(t, plan.Assignments, 2)
	})

	t.Run("apply stores oldest first", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		directory := mocks.NewMockCustomerDirectory(ctrl)
		directory.EXPECT().ListCustomers(gomock.Any()).Return(customers, nil)
		gomock.InOrder(
			directory.EXPECT().SetAccountNumber(gomock.Any(), "cus_a", "10111", gomock.Nil()).Return(nil),
			directory.EXPECT().SetAccountNumber(gomock.Any(), "cus_b", "10112", gomock.Nil()).Return(nil),
		)

		uc := usecase.NewCustomerUseCase(directory, usecase.NewTaxClassifier(testAccounts()))
		_, err := uc.FillAccountNumbers(context.Background(), true)
		require.NoError(t, err)
	})

	t.Run("stops at first store error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		directory := mocks.NewMockCustomerDirectory(ctrl)
		storeErr := errors.New("conflict")
		directory.EXPECT().ListCustomers(gomock.Any()).Return(customers, nil)
		directory.EXPECT().SetAccountNumber(gomock.Any(), "cus_a", "10111", gomock.Any()).Return(storeErr)

		uc := usecase.NewCustomerUseCase(directory, usecase.NewTaxClassifier(testAccounts()))
		_, err := uc.FillAccountNumbers(context.Background(), true)
		assert.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "cus_a")
	})

	t.Run("in-memory directory", func(t *testing.T) {
		store := mocks.NewCustomerStore(customers...)
		uc := usecase.NewCustomerUseCase(store, usecase.NewTaxClassifier(testAccounts()))

		_, err := uc.FillAccountNumbers(context.Background(), true)
		require.NoError(t, err)

		listed, err := uc.ListAccounts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "10112", listed[0].AccountNumber())
		assert.Equal(t, "10111", listed[1].AccountNumber())
		assert.Equal(t, "10110", listed[2].AccountNumber())
	})
}
