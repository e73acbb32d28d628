package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusActive    = "Active"
	PaymentStatusOverdue   = "Overdue"
	PaymentStatusDefaulted = "Defaulted"
	PaymentStatusPaid      = "Paid"
)

// NotApplicable is the display sentinel for dates that no longer apply,
// e.g. the next due date of a fully paid loan.
const NotApplicable = "N/A"

// Loan represents a financing agreement for a single device.
//
// The outstanding balance and the Paid status are never stored on their
// own: both derive from AmountPaid via TotalPayable, so the balance
// invariant cannot drift no matter which operation mutated the loan last.
type Loan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          string          `json:"loan_id" db:"loan_id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	DeviceID        uuid.UUID       `json:"device_id" db:"device_id"`
	DeviceModel     string          `json:"device_model" db:"device_model"`
	AmountFinanced  decimal.Decimal `json:"amount_financed" db:"amount_financed"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	InterestRate    decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	DurationMonths  int             `json:"duration_months" db:"duration_months"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	NextPaymentDue  *time.Time      `json:"next_payment_due" db:"next_payment_due"`
	LastPaymentDate *time.Time      `json:"last_payment_date" db:"last_payment_date"`
	StartDate       time.Time       `json:"start_date" db:"start_date"`
	EndDate         time.Time       `json:"end_date" db:"end_date"`
	MissedPayments  int             `json:"missed_payments" db:"missed_payments"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalPayable returns principal plus simple interest:
// AmountFinanced * (1 + InterestRate/100).
func (l *Loan) TotalPayable() decimal.Decimal {
	interest := l.AmountFinanced.Mul(l.InterestRate).Div(decimal.NewFromInt(100))
	return l.AmountFinanced.Add(interest)
}

// AmountRemaining returns the outstanding balance, floored at zero.
func (l *Loan) AmountRemaining() decimal.Decimal {
	remaining := l.TotalPayable().Sub(l.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsSettled reports whether payments cover the total payable amount.
func (l *Loan) IsSettled() bool {
	return l.AmountRemaining().IsZero()
}

// Payment is a single repayment applied to a loan.
type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      string          `json:"loan_id" db:"loan_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate time.Time       `json:"payment_date" db:"payment_date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type CreateFinancingRequest struct {
	CustomerID     string           `json:"customer_id" validate:"required,uuid4"`
	Model          string           `json:"model" validate:"required"`
	IMEI           string           `json:"imei" validate:"required"`
	SerialNumber   string           `json:"serial_number" validate:"required"`
	OSVersion      string           `json:"os_version" validate:"required"`
	AmountFinanced decimal.Decimal  `json:"amount_financed"`
	DurationMonths int              `json:"duration_months" validate:"required,gt=0"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty"`
	PurchaseDate   *time.Time       `json:"purchase_date,omitempty"`
}

type CreateFinancingResponse struct {
	Device *Device       `json:"device"`
	Loan   *LoanResponse `json:"loan"`
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
}

// LoanResponse is the API projection of a Loan: derived amounts are
// materialized and absent dates are rendered with the N/A sentinel.
type LoanResponse struct {
	*Loan
	TotalPayable    decimal.Decimal `json:"total_payable"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	NextPaymentDue  string          `json:"next_payment_due"`
	LastPaymentDate string          `json:"last_payment_date"`
}

func NewLoanResponse(loan *Loan) *LoanResponse {
	return &LoanResponse{
		Loan:            loan,
		TotalPayable:    loan.TotalPayable(),
		AmountRemaining: loan.AmountRemaining(),
		NextPaymentDue:  dateLabel(loan.NextPaymentDue),
		LastPaymentDate: dateLabel(loan.LastPaymentDate),
	}
}

func dateLabel(t *time.Time) string {
	if t == nil {
		return NotApplicable
	}
	return t.Format("2006-01-02")
}

type LoanStatusResponse struct {
	LoanID         string `json:"loan_id"`
	PaymentStatus  string `json:"payment_status"`
	MissedPayments int    `json:"missed_payments"`
	AsOf           string `json:"as_of"`
}

// DashboardStats mirrors the admin console's landing page counters.
type DashboardStats struct {
	TotalDevices    int `json:"total_devices"`
	LockedDevices   int `json:"locked_devices"`
	ActiveLoans     int `json:"active_loans"`
	TotalCustomers  int `json:"total_customers"`
	OverduePayments int `json:"overdue_payments"`
}
