package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/finlock/financing-engine/internal/domain"
)

// Store is the record store contract the financing engine runs against.
// The reference implementation is the seeded in-memory store; the
// postgres implementation backs the same contract with durable storage.
//
// Lookups return pkg/errors sentinels (ErrCustomerNotFound and friends)
// when the referenced entity does not exist. InsertDeviceAndLoan is
// all-or-nothing: the device row, the loan row and the owning
// customer's counters are committed together or not at all.
type Store interface {
	// Customers
	InsertCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error

	// Devices
	GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]*domain.Device, error)
	ListDevicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Device, error)
	UpdateDevice(ctx context.Context, device *domain.Device) error

	// Loans
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context) ([]*domain.Loan, error)
	ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error)
	UpdateLoan(ctx context.Context, loan *domain.Loan) error

	// InsertDeviceAndLoan persists a financing pair atomically and
	// increments the owning customer's device and loan counters.
	InsertDeviceAndLoan(ctx context.Context, device *domain.Device, loan *domain.Loan) error

	// NextLoanSequence returns the next loan sequence number for the
	// given calendar year. The store owns the counter so concurrent
	// financings cannot collide on loan ids.
	NextLoanSequence(ctx context.Context, year int) (int, error)

	// Payments
	InsertPayment(ctx context.Context, payment *domain.Payment) error
	ListPaymentsByLoan(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// Activity log
	InsertActivity(ctx context.Context, entry *domain.ActivityEntry) error
	ListActivity(ctx context.Context, limit int) ([]*domain.ActivityEntry, error)
}
