package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/finlock/financing-engine/internal/domain"
	customError "github.com/finlock/financing-engine/pkg/errors"
)

// PostgresStore backs the Store contract with PostgreSQL via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, phone, active_loans, devices_owned, join_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.ActiveLoans,
		customer.DevicesOwned,
		customer.JoinDate,
		customer.Status,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	return err
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, active_loans, devices_owned, join_date, status, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var customer domain.Customer
	if err := s.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrCustomerNotFound
		}
		return nil, err
	}

	return &customer, nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	query := `
		SELECT id, name, email, phone, active_loans, devices_owned, join_date, status, created_at, updated_at
		FROM customers
		ORDER BY join_date
	`

	var customers []*domain.Customer
	if err := s.db.SelectContext(ctx, &customers, query); err != nil {
		return nil, err
	}

	return customers, nil
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, active_loans = $5, devices_owned = $6, status = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.ActiveLoans,
		customer.DevicesOwned,
		customer.Status,
		time.Now(),
	)
	if err != nil {
		return err
	}

	return rowsAffected(result, customError.ErrCustomerNotFound)
}

const deviceColumns = `
	id, customer_id, customer_name, model, imei, serial_number, os_version,
	battery_level, last_seen, location, latitude, longitude, loan_status,
	status, purchase_date, warranty_expiry, created_at, updated_at`

func (s *PostgresStore) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	var device domain.Device
	if err := s.db.GetContext(ctx, &device, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrDeviceNotFound
		}
		return nil, err
	}

	return &device, nil
}

func (s *PostgresStore) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY purchase_date`

	var devices []*domain.Device
	if err := s.db.SelectContext(ctx, &devices, query); err != nil {
		return nil, err
	}

	return devices, nil
}

func (s *PostgresStore) ListDevicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE customer_id = $1 ORDER BY purchase_date`

	var devices []*domain.Device
	if err := s.db.SelectContext(ctx, &devices, query, customerID); err != nil {
		return nil, err
	}

	return devices, nil
}

func (s *PostgresStore) UpdateDevice(ctx context.Context, device *domain.Device) error {
	query := `
		UPDATE devices
		SET battery_level = $2, last_seen = $3, location = $4, latitude = $5,
		    longitude = $6, loan_status = $7, status = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		device.ID,
		device.BatteryLevel,
		device.LastSeen,
		device.Location,
		device.Latitude,
		device.Longitude,
		device.LoanStatus,
		device.Status,
		time.Now(),
	)
	if err != nil {
		return err
	}

	return rowsAffected(result, customError.ErrDeviceNotFound)
}

const loanColumns = `
	id, loan_id, customer_id, customer_name, device_id, device_model,
	amount_financed, amount_paid, monthly_payment, interest_rate,
	duration_months, payment_status, next_payment_due, last_payment_date,
	start_date, end_date, missed_payments, created_at, updated_at`

func (s *PostgresStore) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	var loan domain.Loan
	if err := s.db.GetContext(ctx, &loan, query, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, err
	}

	return &loan, nil
}

func (s *PostgresStore) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY loan_id`

	var loans []*domain.Loan
	if err := s.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, err
	}

	return loans, nil
}

func (s *PostgresStore) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY loan_id`

	var loans []*domain.Loan
	if err := s.db.SelectContext(ctx, &loans, query, customerID); err != nil {
		return nil, err
	}

	return loans, nil
}

func (s *PostgresStore) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET amount_paid = $2, payment_status = $3, next_payment_due = $4,
		    last_payment_date = $5, missed_payments = $6, updated_at = $7
		WHERE loan_id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		loan.LoanID,
		loan.AmountPaid,
		loan.PaymentStatus,
		loan.NextPaymentDue,
		loan.LastPaymentDate,
		loan.MissedPayments,
		time.Now(),
	)
	if err != nil {
		return err
	}

	return rowsAffected(result, customError.ErrLoanNotFound)
}

// InsertDeviceAndLoan writes the financing pair and bumps the owning
// customer's counters in a single transaction.
func (s *PostgresStore) InsertDeviceAndLoan(ctx context.Context, device *domain.Device, loan *domain.Loan) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	deviceQuery := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.ExecContext(ctx, deviceQuery,
		device.ID, device.CustomerID, device.CustomerName, device.Model,
		device.IMEI, device.SerialNumber, device.OSVersion, device.BatteryLevel,
		device.LastSeen, device.Location, device.Latitude, device.Longitude,
		device.LoanStatus, device.Status, device.PurchaseDate,
		device.WarrantyExpiry, device.CreatedAt, device.UpdatedAt,
	)
	if err != nil {
		return err
	}

	loanQuery := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID, loan.LoanID, loan.CustomerID, loan.CustomerName,
		loan.DeviceID, loan.DeviceModel, loan.AmountFinanced, loan.AmountPaid,
		loan.MonthlyPayment, loan.InterestRate, loan.DurationMonths,
		loan.PaymentStatus, loan.NextPaymentDue, loan.LastPaymentDate,
		loan.StartDate, loan.EndDate, loan.MissedPayments,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	counterQuery := `
		UPDATE customers
		SET devices_owned = devices_owned + 1, active_loans = active_loans + 1, updated_at = $2
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, counterQuery, device.CustomerID, time.Now())
	if err != nil {
		return err
	}
	if err := rowsAffected(result, customError.ErrCustomerNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// NextLoanSequence atomically increments the per-year counter.
func (s *PostgresStore) NextLoanSequence(ctx context.Context, year int) (int, error) {
	query := `
		INSERT INTO loan_sequences (year, value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET value = loan_sequences.value + 1
		RETURNING value
	`

	var value int
	if err := s.db.GetContext(ctx, &value, query, year); err != nil {
		return 0, err
	}

	return value, nil
}

func (s *PostgresStore) InsertPayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, loan_id, amount, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.PaymentDate,
		payment.CreatedAt,
	)

	return err
}

func (s *PostgresStore) ListPaymentsByLoan(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, payment_date, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY payment_date
	`

	var payments []*domain.Payment
	if err := s.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (s *PostgresStore) InsertActivity(ctx context.Context, entry *domain.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (id, timestamp, action, description, performed_by, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Action,
		entry.Description,
		entry.PerformedBy,
		entry.Status,
	)

	return err
}

func (s *PostgresStore) ListActivity(ctx context.Context, limit int) ([]*domain.ActivityEntry, error) {
	query := `
		SELECT id, timestamp, action, description, performed_by, status
		FROM activity_log
		ORDER BY timestamp DESC
		LIMIT $1
	`

	var entries []*domain.ActivityEntry
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, err
	}

	return entries, nil
}

func rowsAffected(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
