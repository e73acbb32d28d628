package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeviceStatusActive = "Active"
	DeviceStatusLocked = "Locked"
)

// Device represents a financed physical unit tied 1:1 to a loan.
type Device struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CustomerID     uuid.UUID `json:"customer_id" db:"customer_id"`
	CustomerName   string    `json:"customer_name" db:"customer_name"`
	Model          string    `json:"model" db:"model"`
	IMEI           string    `json:"imei" db:"imei"`
	SerialNumber   string    `json:"serial_number" db:"serial_number"`
	OSVersion      string    `json:"os_version" db:"os_version"`
	BatteryLevel   int       `json:"battery_level" db:"battery_level"`
	LastSeen       string    `json:"last_seen" db:"last_seen"`
	Location       string    `json:"location" db:"location"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	LoanStatus     string    `json:"loan_status" db:"loan_status"`
	Status         string    `json:"status" db:"status"`
	PurchaseDate   time.Time `json:"purchase_date" db:"purchase_date"`
	WarrantyExpiry time.Time `json:"warranty_expiry" db:"warranty_expiry"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Locked reports whether remote lock is currently applied.
func (d *Device) Locked() bool {
	return d.Status == DeviceStatusLocked
}
