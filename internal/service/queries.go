package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/finlock/financing-engine/internal/domain"
	customError "github.com/finlock/financing-engine/pkg/errors"
)

// Read-side operations consumed by the console pages.

func (s *FinancingService) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapCustomerNotFound(id.String())
		}
		return nil, customError.WrapStorageError(err)
	}
	return customer, nil
}

// GetCustomerSummary bundles a customer with their devices and loans,
// the shape the customer-detail page renders.
func (s *FinancingService) GetCustomerSummary(ctx context.Context, id uuid.UUID) (*domain.CustomerSummaryResponse, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	devices, err := s.store.ListDevicesByCustomer(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	loans, err := s.store.ListLoansByCustomer(ctx, id)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return &domain.CustomerSummaryResponse{Customer: customer, Devices: devices, Loans: loans}, nil
}

func (s *FinancingService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return customers, nil
}

func (s *FinancingService) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	device, err := s.store.GetDevice(ctx, id)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapDeviceNotFound(id.String())
		}
		return nil, customError.WrapStorageError(err)
	}
	return device, nil
}

func (s *FinancingService) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return devices, nil
}

func (s *FinancingService) ListDevicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Device, error) {
	devices, err := s.store.ListDevicesByCustomer(ctx, customerID)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return devices, nil
}

// GetLoan reads a loan, serving from the Redis snapshot when possible.
func (s *FinancingService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	if loan, ok := s.cachedLoan(ctx, loanID); ok {
		return loan, nil
	}

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapLoanNotFound(loanID)
		}
		return nil, customError.WrapStorageError(err)
	}

	s.cacheLoan(ctx, loan)
	return loan, nil
}

func (s *FinancingService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return loans, nil
}

func (s *FinancingService) ListLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.store.ListLoansByCustomer(ctx, customerID)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return loans, nil
}

func (s *FinancingService) ListPayments(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	if _, err := s.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByLoan(ctx, loanID)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return payments, nil
}

func (s *FinancingService) ListActivity(ctx context.Context, limit int) ([]*domain.ActivityEntry, error) {
	entries, err := s.store.ListActivity(ctx, limit)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	return entries, nil
}

func (s *FinancingService) cachedLoan(ctx context.Context, loanID string) (*domain.Loan, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, loanCachePrefix+loanID).Result()
	if err != nil {
		return nil, false
	}
	var loan domain.Loan
	if err := json.Unmarshal([]byte(data), &loan); err != nil {
		return nil, false
	}
	return &loan, true
}

func (s *FinancingService) cacheLoan(ctx context.Context, loan *domain.Loan) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(loan)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, loanCachePrefix+loan.LoanID, data, s.config.Business.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("loan_id", loan.LoanID).Msg("failed to cache loan")
	}
}
