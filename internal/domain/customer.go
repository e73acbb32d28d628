package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	CustomerStatusActive    = "Active"
	CustomerStatusOverdue   = "Overdue"
	CustomerStatusCompleted = "Completed"
)

// Customer represents a financing customer
type Customer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	ActiveLoans  int       `json:"active_loans" db:"active_loans"`
	DevicesOwned int       `json:"devices_owned" db:"devices_owned"`
	JoinDate     time.Time `json:"join_date" db:"join_date"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

type CustomerSummaryResponse struct {
	Customer *Customer `json:"customer"`
	Devices  []*Device `json:"devices"`
	Loans    []*Loan   `json:"loans"`
}
