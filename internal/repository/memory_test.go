package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlock/financing-engine/internal/domain"
	customError "github.com/finlock/financing-engine/pkg/errors"
)

func TestMemoryStore_CustomerRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	customer := &domain.Customer{
		ID:       uuid.New(),
		Name:     "Ada Obi",
		Email:    "ada.obi@example.com",
		JoinDate: time.Now(),
		Status:   domain.CustomerStatusActive,
	}
	require.NoError(t, store.InsertCustomer(ctx, customer))

	got, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.Name, got.Name)

	// Reads hand out copies; mutating one must not leak into the store.
	got.Name = "changed"
	again, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", again.Name)

	_, err = store.GetCustomer(ctx, uuid.New())
	assert.True(t, errors.Is(err, customError.ErrCustomerNotFound))
}

func TestMemoryStore_InsertDeviceAndLoan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	customer := &domain.Customer{ID: uuid.New(), Name: "Ada Obi"}
	require.NoError(t, store.InsertCustomer(ctx, customer))

	device := &domain.Device{ID: uuid.New(), CustomerID: customer.ID, Model: "Samsung Galaxy A55"}
	loan := &domain.Loan{
		ID:             uuid.New(),
		LoanID:         "LN-2025-001",
		CustomerID:     customer.ID,
		DeviceID:       device.ID,
		AmountFinanced: decimal.NewFromInt(150000),
	}
	require.NoError(t, store.InsertDeviceAndLoan(ctx, device, loan))

	got, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DevicesOwned)
	assert.Equal(t, 1, got.ActiveLoans)

	_, err = store.GetDevice(ctx, device.ID)
	assert.NoError(t, err)
	_, err = store.GetLoan(ctx, "LN-2025-001")
	assert.NoError(t, err)
}

func TestMemoryStore_InsertDeviceAndLoan_UnknownCustomer(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	device := &domain.Device{ID: uuid.New(), CustomerID: uuid.New()}
	loan := &domain.Loan{ID: uuid.New(), LoanID: "LN-2025-001"}

	err := store.InsertDeviceAndLoan(ctx, device, loan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrCustomerNotFound))

	// Nothing was written.
	_, err = store.GetDevice(ctx, device.ID)
	assert.True(t, errors.Is(err, customError.ErrDeviceNotFound))
	_, err = store.GetLoan(ctx, "LN-2025-001")
	assert.True(t, errors.Is(err, customError.ErrLoanNotFound))
}

func TestMemoryStore_NextLoanSequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.NextLoanSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := store.NextLoanSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	// Years keep independent counters.
	other, err := store.NextLoanSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestMemoryStore_NextLoanSequence_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 50
	results := make(chan int, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := store.NextLoanSequence(ctx, 2025)
			if err == nil {
				results <- seq
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d issued twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, workers)
}

func TestMemoryStore_UpdateMissingEntities(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.UpdateCustomer(ctx, &domain.Customer{ID: uuid.New()})
	assert.True(t, errors.Is(err, customError.ErrCustomerNotFound))

	err = store.UpdateDevice(ctx, &domain.Device{ID: uuid.New()})
	assert.True(t, errors.Is(err, customError.ErrDeviceNotFound))

	err = store.UpdateLoan(ctx, &domain.Loan{LoanID: "LN-2025-404"})
	assert.True(t, errors.Is(err, customError.ErrLoanNotFound))
}

func TestMemoryStore_ListActivity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &domain.ActivityEntry{
			ID:          uuid.New(),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Action:      domain.ActivityActionPayment,
			Description: fmt.Sprintf("payment %d", i),
		}
		require.NoError(t, store.InsertActivity(ctx, entry))
	}

	entries, err := store.ListActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "payment 4", entries[0].Description)
	assert.Equal(t, "payment 2", entries[2].Description)
}

func TestSeededMemoryStore(t *testing.T) {
	store := NewSeededMemoryStore()
	ctx := context.Background()

	customers, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 5)

	devices, err := store.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 6)

	loans, err := store.ListLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 6)

	for _, loan := range loans {
		// Balance invariant: paid plus remaining equals total payable.
		sum := loan.AmountPaid.Add(loan.AmountRemaining())
		assert.True(t, sum.Equal(loan.TotalPayable()),
			"loan %s books don't balance: %s paid + %s remaining vs %s total",
			loan.LoanID, loan.AmountPaid, loan.AmountRemaining(), loan.TotalPayable())

		if loan.PaymentStatus == domain.PaymentStatusPaid {
			assert.True(t, loan.AmountRemaining().IsZero(), "paid loan %s has a balance", loan.LoanID)
			assert.Nil(t, loan.NextPaymentDue, "paid loan %s still has a due date", loan.LoanID)
		} else {
			assert.False(t, loan.AmountRemaining().IsZero())
			assert.NotNil(t, loan.NextPaymentDue)
		}
	}

	// Sequences continue after the seeded loans.
	seq, err := store.NextLoanSequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 7, seq)

	seq, err = store.NextLoanSequence(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 6, seq)
}
