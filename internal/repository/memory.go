package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/finlock/financing-engine/internal/domain"
	customError "github.com/finlock/financing-engine/pkg/errors"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the demo
// deployment and every unit test; the mutex makes the loan-id sequence
// and the device+loan pair insert safe under concurrent callers.
type MemoryStore struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*domain.Customer
	devices   map[uuid.UUID]*domain.Device
	loans     map[string]*domain.Loan
	payments  map[string][]*domain.Payment
	activity  []*domain.ActivityEntry
	sequences map[int]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[uuid.UUID]*domain.Customer),
		devices:   make(map[uuid.UUID]*domain.Device),
		loans:     make(map[string]*domain.Loan),
		payments:  make(map[string][]*domain.Payment),
		sequences: make(map[int]int),
	}
}

func (s *MemoryStore) InsertCustomer(_ context.Context, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *customer
	s.customers[c.ID] = &c
	return nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[id]
	if !ok {
		return nil, customError.ErrCustomerNotFound
	}
	c := *customer
	return &c, nil
}

func (s *MemoryStore) ListCustomers(_ context.Context) ([]*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers := make([]*domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		c := *customer
		customers = append(customers, &c)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].JoinDate.Before(customers[j].JoinDate)
	})
	return customers, nil
}

func (s *MemoryStore) UpdateCustomer(_ context.Context, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return customError.ErrCustomerNotFound
	}
	c := *customer
	s.customers[c.ID] = &c
	return nil
}

func (s *MemoryStore) GetDevice(_ context.Context, id uuid.UUID) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[id]
	if !ok {
		return nil, customError.ErrDeviceNotFound
	}
	d := *device
	return &d, nil
}

func (s *MemoryStore) ListDevices(_ context.Context) ([]*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]*domain.Device, 0, len(s.devices))
	for _, device := range s.devices {
		d := *device
		devices = append(devices, &d)
	}
	sortDevices(devices)
	return devices, nil
}

func (s *MemoryStore) ListDevicesByCustomer(_ context.Context, customerID uuid.UUID) ([]*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]*domain.Device, 0)
	for _, device := range s.devices {
		if device.CustomerID == customerID {
			d := *device
			devices = append(devices, &d)
		}
	}
	sortDevices(devices)
	return devices, nil
}

func (s *MemoryStore) UpdateDevice(_ context.Context, device *domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[device.ID]; !ok {
		return customError.ErrDeviceNotFound
	}
	d := *device
	s.devices[d.ID] = &d
	return nil
}

func (s *MemoryStore) GetLoan(_ context.Context, loanID string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return nil, customError.ErrLoanNotFound
	}
	l := *loan
	return &l, nil
}

func (s *MemoryStore) ListLoans(_ context.Context) ([]*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loans := make([]*domain.Loan, 0, len(s.loans))
	for _, loan := range s.loans {
		l := *loan
		loans = append(loans, &l)
	}
	sortLoans(loans)
	return loans, nil
}

func (s *MemoryStore) ListLoansByCustomer(_ context.Context, customerID uuid.UUID) ([]*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loans := make([]*domain.Loan, 0)
	for _, loan := range s.loans {
		if loan.CustomerID == customerID {
			l := *loan
			loans = append(loans, &l)
		}
	}
	sortLoans(loans)
	return loans, nil
}

func (s *MemoryStore) UpdateLoan(_ context.Context, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[loan.LoanID]; !ok {
		return customError.ErrLoanNotFound
	}
	l := *loan
	s.loans[l.LoanID] = &l
	return nil
}

func (s *MemoryStore) InsertDeviceAndLoan(_ context.Context, device *domain.Device, loan *domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[device.CustomerID]
	if !ok {
		return customError.ErrCustomerNotFound
	}

	d := *device
	l := *loan
	s.devices[d.ID] = &d
	s.loans[l.LoanID] = &l

	customer.DevicesOwned++
	customer.ActiveLoans++
	return nil
}

func (s *MemoryStore) NextLoanSequence(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[year]++
	return s.sequences[year], nil
}

func (s *MemoryStore) InsertPayment(_ context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *payment
	s.payments[p.LoanID] = append(s.payments[p.LoanID], &p)
	return nil
}

func (s *MemoryStore) ListPaymentsByLoan(_ context.Context, loanID string) ([]*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments := make([]*domain.Payment, 0, len(s.payments[loanID]))
	for _, payment := range s.payments[loanID] {
		p := *payment
		payments = append(payments, &p)
	}
	return payments, nil
}

func (s *MemoryStore) InsertActivity(_ context.Context, entry *domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.activity = append(s.activity, &e)
	return nil
}

func (s *MemoryStore) ListActivity(_ context.Context, limit int) ([]*domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*domain.ActivityEntry, 0, len(s.activity))
	for _, entry := range s.activity {
		e := *entry
		entries = append(entries, &e)
	}
	// Most recent first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// bumpSequence records that a seeded loan consumed a sequence number so
// later financings continue after the seed data.
func (s *MemoryStore) bumpSequence(year, seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sequences[year] < seq {
		s.sequences[year] = seq
	}
}

func sortDevices(devices []*domain.Device) {
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].PurchaseDate.Before(devices[j].PurchaseDate)
	})
}

func sortLoans(loans []*domain.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].LoanID < loans[j].LoanID
	})
}
