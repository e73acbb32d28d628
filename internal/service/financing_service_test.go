package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finlock/financing-engine/internal/config"
	"github.com/finlock/financing-engine/internal/domain"
	"github.com/finlock/financing-engine/internal/repository"
	"github.com/finlock/financing-engine/internal/service"
	customError "github.com/finlock/financing-engine/pkg/errors"
	"github.com/finlock/financing-engine/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			DefaultInterestRate: "5",
			MissedThreshold:     3,
			CacheTTL:            time.Minute,
		},
	}
}

func newService(store repository.Store) *service.FinancingService {
	return service.NewFinancingService(store, nil, testConfig(), zerolog.Nop())
}

func createCustomer(t *testing.T, svc *service.FinancingService) *domain.Customer {
	t.Helper()
	customer, err := svc.CreateCustomer(context.Background(), &domain.CreateCustomerRequest{
		Name:  "Ada Obi",
		Email: "ada.obi@example.com",
		Phone: "+234 800 000 0000",
	})
	require.NoError(t, err)
	return customer
}

func financingRequest(customerID string) *domain.CreateFinancingRequest {
	purchase := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &domain.CreateFinancingRequest{
		CustomerID:     customerID,
		Model:          "Samsung Galaxy A55",
		IMEI:           "359843928411999",
		SerialNumber:   "SG-A55-2025-099",
		OSVersion:      "Android 14",
		AmountFinanced: decimal.NewFromInt(150000),
		DurationMonths: 6,
		PurchaseDate:   &purchase,
	}
}

func TestCreateFinancing_Amortization(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	customer := createCustomer(t, svc)

	device, loan, err := svc.CreateFinancing(context.Background(), financingRequest(customer.ID.String()))
	require.NoError(t, err)

	// 150000 at 5% over 6 months
	assert.True(t, loan.TotalPayable().Equal(decimal.NewFromInt(157500)), "total payable was %s", loan.TotalPayable())
	assert.True(t, loan.MonthlyPayment.Equal(decimal.NewFromInt(26250)), "monthly payment was %s", loan.MonthlyPayment)
	assert.True(t, loan.AmountRemaining().Equal(decimal.NewFromInt(157500)))
	assert.Equal(t, "LN-2025-001", loan.LoanID)
	assert.Equal(t, domain.PaymentStatusActive, loan.PaymentStatus)
	assert.Equal(t, 0, loan.MissedPayments)

	require.NotNil(t, loan.NextPaymentDue)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *loan.NextPaymentDue)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), loan.EndDate)

	assert.Equal(t, domain.DeviceStatusActive, device.Status)
	assert.Equal(t, domain.PaymentStatusActive, device.LoanStatus)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), device.WarrantyExpiry)
}

func TestCreateFinancing_MonthlyPaymentIdentity(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		months   int
		rate     int64
	}{
		{"six months", 150000, 6, 5},
		{"twelve months", 450000, 12, 5},
		{"zero interest", 90000, 3, 0},
		{"odd division", 100000, 9, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(repository.NewMemoryStore())
			customer := createCustomer(t, svc)

			request := financingRequest(customer.ID.String())
			request.AmountFinanced = decimal.NewFromInt(tt.amount)
			request.DurationMonths = tt.months
			rate := decimal.NewFromInt(tt.rate)
			request.InterestRate = &rate

			_, loan, err := svc.CreateFinancing(context.Background(), request)
			require.NoError(t, err)

			// monthlyPayment * duration ~= amount * (1 + rate/100)
			total := loan.MonthlyPayment.Mul(decimal.NewFromInt(int64(tt.months)))
			diff := total.Sub(loan.TotalPayable()).Abs()
			assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.05)),
				"installments diverge from total payable by %s", diff)
		})
	}
}

func TestCreateFinancing_CollectsAllValidationErrors(t *testing.T) {
	svc := newService(repository.NewMemoryStore())

	_, _, err := svc.CreateFinancing(context.Background(), &domain.CreateFinancingRequest{})
	require.Error(t, err)

	verr, ok := customError.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)

	for _, field := range []string{"customer_id", "model", "imei", "serial_number", "os_version", "duration_months", "amount_financed"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestCreateFinancing_RejectsShortIMEI(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	customer := createCustomer(t, svc)

	request := financingRequest(customer.ID.String())
	request.IMEI = "12345"

	_, _, err := svc.CreateFinancing(context.Background(), request)
	verr, ok := customError.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "imei")
}

func TestCreateFinancing_CustomerNotFound(t *testing.T) {
	svc := newService(repository.NewMemoryStore())

	_, _, err := svc.CreateFinancing(context.Background(),
		financingRequest("3e9fcbcf-92ce-4b8f-9104-4b53e106ad41"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrCustomerNotFound))
}

func TestCreateFinancing_UpdatesCustomerCounters(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newService(store)
	customer := createCustomer(t, svc)

	assert.Equal(t, 0, customer.DevicesOwned)
	assert.Equal(t, 0, customer.ActiveLoans)

	_, _, err := svc.CreateFinancing(context.Background(), financingRequest(customer.ID.String()))
	require.NoError(t, err)

	updated, err := svc.GetCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.DevicesOwned)
	assert.Equal(t, 1, updated.ActiveLoans)
}

func TestCreateFinancing_ConcurrentLoanIDsUnique(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	customer := createCustomer(t, svc)

	const workers = 16
	ids := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, loan, err := svc.CreateFinancing(context.Background(), financingRequest(customer.ID.String()))
			if err != nil {
				errs <- err
				return
			}
			ids <- loan.LoanID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate loan id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestRecordPayment_RemainingBalance(t *testing.T) {
	// 95000 at 5% with 19000 paid leaves 80750, not the 99750 a
	// remaining-at-creation snapshot would report.
	svc := newService(repository.NewSeededMemoryStore())

	loan, err := svc.GetLoan(context.Background(), "LN-2025-006")
	require.NoError(t, err)
	assert.True(t, loan.AmountRemaining().Equal(decimal.NewFromInt(80750)),
		"remaining was %s", loan.AmountRemaining())
}

func TestRecordPayment_FullSettlement(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	customer := createCustomer(t, svc)

	_, loan, err := svc.CreateFinancing(context.Background(), financingRequest(customer.ID.String()))
	require.NoError(t, err)

	payDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.RecordPayment(context.Background(), loan.LoanID, loan.TotalPayable(), payDate)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	assert.True(t, updated.AmountRemaining().IsZero())
	assert.Nil(t, updated.NextPaymentDue)
	assert.Equal(t, domain.NotApplicable, domain.NewLoanResponse(updated).NextPaymentDue)

	// Paid is terminal: further payments are rejected and nothing moves.
	_, err = svc.RecordPayment(context.Background(), loan.LoanID, decimal.NewFromInt(1000), payDate.AddDate(0, 1, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrLoanAlreadySettled))

	final, err := svc.GetLoan(context.Background(), loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, final.PaymentStatus)
	assert.Nil(t, final.NextPaymentDue)
}

func TestRecordPayment_AmountPaidMonotonic(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	customer := createCustomer(t, svc)

	_, loan, err := svc.CreateFinancing(context.Background(), financingRequest(customer.ID.String()))
	require.NoError(t, err)

	previous := decimal.Zero
	payDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		updated, err := svc.RecordPayment(context.Background(), loan.LoanID, decimal.NewFromInt(26250), payDate.AddDate(0, i, 0))
		require.NoError(t, err)
		assert.True(t, updated.AmountPaid.GreaterThan(previous))
		assert.True(t, updated.AmountRemaining().Equal(updated.TotalPayable().Sub(updated.AmountPaid)))
		previous = updated.AmountPaid
	}
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc := newService(repository.NewSeededMemoryStore())

	_, err := svc.RecordPayment(context.Background(), "LN-2024-003", decimal.Zero, time.Now())
	verr, ok := customError.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "amount")
}

func TestRecordPayment_LoanNotFound(t *testing.T) {
	svc := newService(repository.NewMemoryStore())

	_, err := svc.RecordPayment(context.Background(), "LN-2025-999", decimal.NewFromInt(1000), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrLoanNotFound))
}

func TestRecordPayment_OverdueLoanReturnsToActive(t *testing.T) {
	store := repository.NewSeededMemoryStore()
	svc := newService(store)

	// LN-2025-001 is Overdue with one missed payment.
	payDate := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	updated, err := svc.RecordPayment(context.Background(), "LN-2025-001", decimal.NewFromInt(30000), payDate)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusActive, updated.PaymentStatus)
	assert.Equal(t, 0, updated.MissedPayments)
	require.NotNil(t, updated.NextPaymentDue)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), *updated.NextPaymentDue)

	// Device mirrors the loan status but keeps its lock state.
	device, err := svc.GetDevice(context.Background(), updated.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusActive, device.LoanStatus)
	assert.Equal(t, domain.DeviceStatusLocked, device.Status)
}

func TestRecordPayment_DefaultedStaysDefaultedOnPartialPayment(t *testing.T) {
	svc := newService(repository.NewSeededMemoryStore())

	updated, err := svc.RecordPayment(context.Background(), "LN-2025-006", decimal.NewFromInt(5000),
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusDefaulted, updated.PaymentStatus)
}

func TestEvaluateStatus(t *testing.T) {
	svc := newService(repository.NewMemoryStore())
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	baseLoan := func() *domain.Loan {
		return &domain.Loan{
			AmountFinanced: decimal.NewFromInt(150000),
			InterestRate:   decimal.NewFromInt(5),
			AmountPaid:     decimal.Zero,
			PaymentStatus:  domain.PaymentStatusActive,
			NextPaymentDue: &due,
		}
	}

	t.Run("active before due date", func(t *testing.T) {
		loan := baseLoan()
		assert.Equal(t, domain.PaymentStatusActive, svc.EvaluateStatus(loan, due.AddDate(0, 0, -1)))
	})

	t.Run("overdue once past due date", func(t *testing.T) {
		loan := baseLoan()
		assert.Equal(t, domain.PaymentStatusOverdue, svc.EvaluateStatus(loan, due.AddDate(0, 0, 10)))
	})

	t.Run("defaulted past missed threshold", func(t *testing.T) {
		loan := baseLoan()
		assert.Equal(t, domain.PaymentStatusDefaulted, svc.EvaluateStatus(loan, due.AddDate(0, 5, 0)))
	})

	t.Run("paid wins over everything", func(t *testing.T) {
		loan := baseLoan()
		loan.AmountPaid = decimal.NewFromInt(157500)
		assert.Equal(t, domain.PaymentStatusPaid, svc.EvaluateStatus(loan, due.AddDate(1, 0, 0)))
	})

	t.Run("defaulted is sticky while unsettled", func(t *testing.T) {
		loan := baseLoan()
		loan.PaymentStatus = domain.PaymentStatusDefaulted
		loan.MissedPayments = 7
		assert.Equal(t, domain.PaymentStatusDefaulted, svc.EvaluateStatus(loan, due.AddDate(0, 0, -10)))
	})

	t.Run("reports the derived missed count", func(t *testing.T) {
		loan := baseLoan()
		status, missed := svc.EvaluateLoan(loan, due.AddDate(0, 2, 5))
		assert.Equal(t, domain.PaymentStatusOverdue, status)
		assert.Equal(t, 3, missed)
	})

	t.Run("idempotent at a fixed date", func(t *testing.T) {
		loan := baseLoan()
		loan.MissedPayments = 1
		asOf := due.AddDate(0, 0, 10)

		first := svc.EvaluateStatus(loan, asOf)
		second := svc.EvaluateStatus(loan, asOf)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, loan.MissedPayments, "evaluation must not mutate the stored count")
	})
}

func TestSweepOverdue(t *testing.T) {
	store := repository.NewSeededMemoryStore()
	svc := newService(store)

	changed, err := svc.SweepOverdue(context.Background(), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, changed)

	loan, err := svc.GetLoan(context.Background(), "LN-2024-003")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusOverdue, loan.PaymentStatus)
	assert.Equal(t, 2, loan.MissedPayments)

	device, err := svc.GetDevice(context.Background(), loan.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusOverdue, device.LoanStatus)
	assert.Equal(t, domain.DeviceStatusActive, device.Status, "sweep must not lock devices")

	// Running the sweep again at the same date is a no-op.
	changed, err = svc.SweepOverdue(context.Background(), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestRemindUpcomingPayments(t *testing.T) {
	store := repository.NewSeededMemoryStore()
	svc := newService(store)

	// As of 2025-11-18 the horizon reaches 2025-11-21: the loans due
	// 2025-10-15, 2025-11-20 and 2025-04-12 qualify; the one due
	// 2025-12-01 and the two settled ones do not.
	reminded, err := svc.RemindUpcomingPayments(context.Background(),
		time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, reminded)

	entries, err := svc.ListActivity(context.Background(), 50)
	require.NoError(t, err)

	reminders := 0
	for _, entry := range entries {
		if entry.Action == domain.ActivityActionReminder {
			reminders++
		}
	}
	assert.Equal(t, 3, reminders)
}

func TestSetDeviceLock(t *testing.T) {
	store := repository.NewSeededMemoryStore()
	svc := newService(store)

	devices, err := svc.ListDevices(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	var unlocked *domain.Device
	for _, device := range devices {
		if !device.Locked() {
			unlocked = device
			break
		}
	}
	require.NotNil(t, unlocked)

	locked, err := svc.SetDeviceLock(context.Background(), unlocked.ID, true, "Admin User")
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceStatusLocked, locked.Status)

	// Lock state never feeds back into payment status.
	loan, err := svc.ListLoansByCustomer(context.Background(), locked.CustomerID)
	require.NoError(t, err)
	for _, l := range loan {
		if l.DeviceID == locked.ID {
			assert.NotEqual(t, domain.PaymentStatusDefaulted, l.PaymentStatus)
		}
	}

	released, err := svc.SetDeviceLock(context.Background(), locked.ID, false, "Admin User")
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceStatusActive, released.Status)
}

func TestDashboardStats(t *testing.T) {
	svc := newService(repository.NewSeededMemoryStore())

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalDevices)
	assert.Equal(t, 2, stats.LockedDevices)
	assert.Equal(t, 5, stats.TotalCustomers)
	assert.Equal(t, 3, stats.ActiveLoans)
	assert.Equal(t, 2, stats.OverduePayments)
}

func TestCreateCustomer_Validation(t *testing.T) {
	svc := newService(repository.NewMemoryStore())

	_, err := svc.CreateCustomer(context.Background(), &domain.CreateCustomerRequest{
		Name:  "No Email",
		Email: "not-an-address",
	})
	verr, ok := customError.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "phone")
}

func TestCreateFinancing_StorageFailureIsAtomic(t *testing.T) {
	mockStore := &mocks.MockStore{}
	svc := newService(mockStore)

	customer := &domain.Customer{Name: "Ada Obi"}
	customerID := "3e9fcbcf-92ce-4b8f-9104-4b53e106ad41"

	mockStore.On("GetCustomer", mock.Anything, mock.Anything).Return(customer, nil)
	mockStore.On("NextLoanSequence", mock.Anything, 2025).Return(7, nil)
	mockStore.On("InsertDeviceAndLoan", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	_, _, err := svc.CreateFinancing(context.Background(), financingRequest(customerID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, customError.ErrStorageFailure))

	// No counter update or activity write happens after the failed pair insert.
	mockStore.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything)
	mockStore.AssertExpectations(t)
}
