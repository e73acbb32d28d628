package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finlock/financing-engine/internal/domain"
)

// Fixed ids keep the demo dataset stable across restarts.
var (
	seedCustomerJohn    = uuid.MustParse("6f1f9e2a-0001-4c7b-9a10-000000000001")
	seedCustomerJane    = uuid.MustParse("6f1f9e2a-0002-4c7b-9a10-000000000002")
	seedCustomerMichael = uuid.MustParse("6f1f9e2a-0003-4c7b-9a10-000000000003")
	seedCustomerSarah   = uuid.MustParse("6f1f9e2a-0004-4c7b-9a10-000000000004")
	seedCustomerDavid   = uuid.MustParse("6f1f9e2a-0005-4c7b-9a10-000000000005")

	seedDeviceGalaxyA55 = uuid.MustParse("7a2b8c3d-0001-4d8c-8b21-000000000001")
	seedDeviceZero30    = uuid.MustParse("7a2b8c3d-0002-4d8c-8b21-000000000002")
	seedDevicePhantomX2 = uuid.MustParse("7a2b8c3d-0003-4d8c-8b21-000000000003")
	seedDeviceIPhone14  = uuid.MustParse("7a2b8c3d-0004-4d8c-8b21-000000000004")
	seedDeviceGalaxyS23 = uuid.MustParse("7a2b8c3d-0005-4d8c-8b21-000000000005")
	seedDeviceRedmi13   = uuid.MustParse("7a2b8c3d-0006-4d8c-8b21-000000000006")
)

// NewSeededMemoryStore returns a memory store preloaded with the demo
// fleet: five customers, six financed devices and their loans.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()

	for _, c := range seedCustomers() {
		s.customers[c.ID] = c
	}
	for _, d := range seedDevices() {
		s.devices[d.ID] = d
	}
	for _, l := range seedLoans() {
		s.loans[l.LoanID] = l
	}
	s.bumpSequence(2024, 5)
	s.bumpSequence(2025, 6)

	return s
}

func seedCustomers() []*domain.Customer {
	return []*domain.Customer{
		{
			ID: seedCustomerJohn, Name: "John Doe", Email: "john.doe@example.com",
			Phone: "+234 801 234 5678", ActiveLoans: 1, DevicesOwned: 1,
			JoinDate: date(2025, 1, 15), Status: domain.CustomerStatusActive,
		},
		{
			ID: seedCustomerJane, Name: "Jane Smith", Email: "jane.smith@example.com",
			Phone: "+234 802 345 6789", ActiveLoans: 1, DevicesOwned: 1,
			JoinDate: date(2025, 2, 10), Status: domain.CustomerStatusActive,
		},
		{
			ID: seedCustomerMichael, Name: "Michael Johnson", Email: "michael.j@example.com",
			Phone: "+234 803 456 7890", ActiveLoans: 2, DevicesOwned: 2,
			JoinDate: date(2024, 11, 20), Status: domain.CustomerStatusActive,
		},
		{
			ID: seedCustomerSarah, Name: "Sarah Williams", Email: "sarah.w@example.com",
			Phone: "+234 804 567 8901", ActiveLoans: 0, DevicesOwned: 1,
			JoinDate: date(2024, 10, 5), Status: domain.CustomerStatusCompleted,
		},
		{
			ID: seedCustomerDavid, Name: "David Brown", Email: "david.brown@example.com",
			Phone: "+234 805 678 9012", ActiveLoans: 1, DevicesOwned: 1,
			JoinDate: date(2025, 3, 12), Status: domain.CustomerStatusOverdue,
		},
	}
}

func seedDevices() []*domain.Device {
	return []*domain.Device{
		{
			ID: seedDeviceGalaxyA55, CustomerID: seedCustomerJohn, CustomerName: "John Doe",
			Model: "Samsung Galaxy A55", IMEI: "359843928411123", SerialNumber: "SG-A55-2025-001",
			OSVersion: "Android 14", BatteryLevel: 67, LastSeen: "2 hours ago",
			Location: "Lagos, Nigeria", Latitude: 6.5244, Longitude: 3.3792,
			LoanStatus: domain.PaymentStatusOverdue, Status: domain.DeviceStatusLocked,
			PurchaseDate: date(2025, 1, 15), WarrantyExpiry: date(2026, 1, 15),
		},
		{
			ID: seedDeviceZero30, CustomerID: seedCustomerJane, CustomerName: "Jane Smith",
			Model: "Infinix Zero 30", IMEI: "359843928422234", SerialNumber: "INF-Z30-2025-002",
			OSVersion: "Android 13", BatteryLevel: 89, LastSeen: "30 minutes ago",
			Location: "Abuja, Nigeria", Latitude: 9.0765, Longitude: 7.3986,
			LoanStatus: domain.PaymentStatusPaid, Status: domain.DeviceStatusActive,
			PurchaseDate: date(2025, 2, 10), WarrantyExpiry: date(2026, 2, 10),
		},
		{
			ID: seedDevicePhantomX2, CustomerID: seedCustomerMichael, CustomerName: "Michael Johnson",
			Model: "Tecno Phantom X2", IMEI: "359843928433345", SerialNumber: "TEC-PX2-2024-003",
			OSVersion: "Android 12", BatteryLevel: 45, LastSeen: "5 hours ago",
			Location: "Port Harcourt, Nigeria", Latitude: 4.8156, Longitude: 7.0498,
			LoanStatus: domain.PaymentStatusActive, Status: domain.DeviceStatusActive,
			PurchaseDate: date(2024, 11, 20), WarrantyExpiry: date(2025, 11, 20),
		},
		{
			ID: seedDeviceIPhone14, CustomerID: seedCustomerMichael, CustomerName: "Michael Johnson",
			Model: "iPhone 14", IMEI: "359843928444456", SerialNumber: "APL-IP14-2024-004",
			OSVersion: "iOS 17.2", BatteryLevel: 92, LastSeen: "1 hour ago",
			Location: "Port Harcourt, Nigeria", Latitude: 4.8156, Longitude: 7.0498,
			LoanStatus: domain.PaymentStatusActive, Status: domain.DeviceStatusActive,
			PurchaseDate: date(2024, 12, 1), WarrantyExpiry: date(2025, 12, 1),
		},
		{
			ID: seedDeviceGalaxyS23, CustomerID: seedCustomerSarah, CustomerName: "Sarah Williams",
			Model: "Samsung Galaxy S23", IMEI: "359843928455567", SerialNumber: "SG-S23-2024-005",
			OSVersion: "Android 14", BatteryLevel: 78, LastSeen: "15 minutes ago",
			Location: "Ibadan, Nigeria", Latitude: 7.3775, Longitude: 3.9470,
			LoanStatus: domain.PaymentStatusPaid, Status: domain.DeviceStatusActive,
			PurchaseDate: date(2024, 10, 5), WarrantyExpiry: date(2025, 10, 5),
		},
		{
			ID: seedDeviceRedmi13, CustomerID: seedCustomerDavid, CustomerName: "David Brown",
			Model: "Xiaomi Redmi Note 13", IMEI: "359843928466678", SerialNumber: "XIA-RN13-2025-006",
			OSVersion: "Android 13", BatteryLevel: 34, LastSeen: "8 hours ago",
			Location: "Kano, Nigeria", Latitude: 12.0022, Longitude: 8.5919,
			LoanStatus: domain.PaymentStatusDefaulted, Status: domain.DeviceStatusLocked,
			PurchaseDate: date(2025, 3, 12), WarrantyExpiry: date(2026, 3, 12),
		},
	}
}

func seedLoans() []*domain.Loan {
	return []*domain.Loan{
		{
			ID: uuid.MustParse("8b3c9d4e-0001-4e9d-9c32-000000000001"), LoanID: "LN-2025-001",
			CustomerID: seedCustomerJohn, CustomerName: "John Doe",
			DeviceID: seedDeviceGalaxyA55, DeviceModel: "Samsung Galaxy A55",
			AmountFinanced: decimal.NewFromInt(180000), AmountPaid: decimal.NewFromInt(120000),
			MonthlyPayment: decimal.NewFromInt(30000), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 6, PaymentStatus: domain.PaymentStatusOverdue,
			NextPaymentDue: datePtr(2025, 10, 15), LastPaymentDate: datePtr(2025, 9, 10),
			StartDate: date(2025, 1, 15), EndDate: date(2025, 7, 15), MissedPayments: 1,
		},
		{
			ID: uuid.MustParse("8b3c9d4e-0002-4e9d-9c32-000000000002"), LoanID: "LN-2025-002",
			CustomerID: seedCustomerJane, CustomerName: "Jane Smith",
			DeviceID: seedDeviceZero30, DeviceModel: "Infinix Zero 30",
			AmountFinanced: decimal.NewFromInt(150000), AmountPaid: decimal.NewFromInt(157500),
			MonthlyPayment: decimal.NewFromInt(26250), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 6, PaymentStatus: domain.PaymentStatusPaid,
			NextPaymentDue: nil, LastPaymentDate: datePtr(2025, 8, 10),
			StartDate: date(2025, 2, 10), EndDate: date(2025, 8, 10), MissedPayments: 0,
		},
		{
			ID: uuid.MustParse("8b3c9d4e-0003-4e9d-9c32-000000000003"), LoanID: "LN-2024-003",
			CustomerID: seedCustomerMichael, CustomerName: "Michael Johnson",
			DeviceID: seedDevicePhantomX2, DeviceModel: "Tecno Phantom X2",
			AmountFinanced: decimal.NewFromInt(120000), AmountPaid: decimal.NewFromInt(80000),
			MonthlyPayment: decimal.NewFromInt(21000), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 6, PaymentStatus: domain.PaymentStatusActive,
			NextPaymentDue: datePtr(2025, 11, 20), LastPaymentDate: datePtr(2025, 10, 20),
			StartDate: date(2024, 11, 20), EndDate: date(2025, 5, 20), MissedPayments: 0,
		},
		{
			ID: uuid.MustParse("8b3c9d4e-0004-4e9d-9c32-000000000004"), LoanID: "LN-2024-004",
			CustomerID: seedCustomerMichael, CustomerName: "Michael Johnson",
			DeviceID: seedDeviceIPhone14, DeviceModel: "iPhone 14",
			AmountFinanced: decimal.NewFromInt(450000), AmountPaid: decimal.NewFromInt(300000),
			MonthlyPayment: decimal.NewFromInt(52500), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 9, PaymentStatus: domain.PaymentStatusActive,
			NextPaymentDue: datePtr(2025, 12, 1), LastPaymentDate: datePtr(2025, 11, 1),
			StartDate: date(2024, 12, 1), EndDate: date(2025, 9, 1), MissedPayments: 0,
		},
		{
			ID: uuid.MustParse("8b3c9d4e-0005-4e9d-9c32-000000000005"), LoanID: "LN-2024-005",
			CustomerID: seedCustomerSarah, CustomerName: "Sarah Williams",
			DeviceID: seedDeviceGalaxyS23, DeviceModel: "Samsung Galaxy S23",
			AmountFinanced: decimal.NewFromInt(350000), AmountPaid: decimal.NewFromInt(367500),
			MonthlyPayment: decimal.NewFromInt(52500), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 7, PaymentStatus: domain.PaymentStatusPaid,
			NextPaymentDue: nil, LastPaymentDate: datePtr(2025, 4, 5),
			StartDate: date(2024, 10, 5), EndDate: date(2025, 5, 5), MissedPayments: 0,
		},
		{
			ID: uuid.MustParse("8b3c9d4e-0006-4e9d-9c32-000000000006"), LoanID: "LN-2025-006",
			CustomerID: seedCustomerDavid, CustomerName: "David Brown",
			DeviceID: seedDeviceRedmi13, DeviceModel: "Xiaomi Redmi Note 13",
			AmountFinanced: decimal.NewFromInt(95000), AmountPaid: decimal.NewFromInt(19000),
			MonthlyPayment: decimal.NewFromInt(19950), InterestRate: decimal.NewFromInt(5),
			DurationMonths: 5, PaymentStatus: domain.PaymentStatusDefaulted,
			NextPaymentDue: datePtr(2025, 4, 12), LastPaymentDate: datePtr(2025, 3, 12),
			StartDate: date(2025, 3, 12), EndDate: date(2025, 8, 12), MissedPayments: 7,
		},
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}
