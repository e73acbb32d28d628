package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finlock/financing-engine/internal/config"
	"github.com/finlock/financing-engine/internal/domain"
	"github.com/finlock/financing-engine/internal/repository"
	customError "github.com/finlock/financing-engine/pkg/errors"
	"github.com/finlock/financing-engine/pkg/utils"
)

const (
	statsCacheKey   = "dashboard:stats"
	loanCachePrefix = "loan:"

	minIMEILength = 15
)

// FinancingService owns the loan lifecycle rules: financing creation,
// amortization, payment recording, status evaluation and the device
// lock mediation. It is storage-agnostic behind repository.Store.
type FinancingService struct {
	store     repository.Store
	redis     *redis.Client
	config    *config.Config
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewFinancingService(
	store repository.Store,
	redisClient *redis.Client,
	cfg *config.Config,
	logger zerolog.Logger,
) *FinancingService {
	return &FinancingService{
		store:     store,
		redis:     redisClient,
		config:    cfg,
		validator: validator.New(),
		logger:    logger.With().Str("component", "financing_service").Logger(),
	}
}

// CreateCustomer registers a new customer with zeroed loan counters.
func (s *FinancingService) CreateCustomer(ctx context.Context, request *domain.CreateCustomerRequest) (*domain.Customer, error) {
	verr := customError.NewValidationError()
	s.collectStructErrors(request, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	now := time.Now()
	customer := &domain.Customer{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(request.Name),
		Email:        strings.TrimSpace(request.Email),
		Phone:        strings.TrimSpace(request.Phone),
		ActiveLoans:  0,
		DevicesOwned: 0,
		JoinDate:     now,
		Status:       domain.CustomerStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.InsertCustomer(ctx, customer); err != nil {
		return nil, customError.WrapStorageError(err)
	}

	return customer, nil
}

// CreateFinancing creates a device and its loan atomically.
//
// Every invalid field is reported together in one ValidationError so
// the console can surface all problems next to their inputs at once.
func (s *FinancingService) CreateFinancing(ctx context.Context, request *domain.CreateFinancingRequest) (*domain.Device, *domain.Loan, error) {
	verr := customError.NewValidationError()
	s.collectStructErrors(request, verr)

	imei := strings.TrimSpace(request.IMEI)
	if imei != "" && (len(imei) < minIMEILength || !utils.IsDigits(imei)) {
		verr.Add("imei", fmt.Sprintf("IMEI must be at least %d digits", minIMEILength))
	}
	if !request.AmountFinanced.IsPositive() {
		verr.Add("amount_financed", "amount financed must be greater than 0")
	}
	if request.InterestRate != nil && request.InterestRate.IsNegative() {
		verr.Add("interest_rate", "interest rate must not be negative")
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	customerID, err := uuid.Parse(request.CustomerID)
	if err != nil {
		verr.Add("customer_id", "customer id must be a valid UUID")
		return nil, nil, verr
	}

	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, nil, customError.WrapCustomerNotFound(request.CustomerID)
		}
		return nil, nil, customError.WrapStorageError(err)
	}

	interestRate := s.config.GetDefaultInterestRate()
	if request.InterestRate != nil {
		interestRate = *request.InterestRate
	}

	purchaseDate := time.Now().Truncate(24 * time.Hour)
	if request.PurchaseDate != nil {
		purchaseDate = *request.PurchaseDate
	}

	monthlyPayment := utils.CalculateMonthlyPayment(request.AmountFinanced, interestRate, request.DurationMonths)

	sequence, err := s.store.NextLoanSequence(ctx, purchaseDate.Year())
	if err != nil {
		return nil, nil, customError.WrapStorageError(err)
	}
	loanID := utils.FormatLoanID(purchaseDate.Year(), sequence)

	now := time.Now()
	nextDue := utils.AddMonths(purchaseDate, 1)

	device := &domain.Device{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		Model:          strings.TrimSpace(request.Model),
		IMEI:           imei,
		SerialNumber:   strings.TrimSpace(request.SerialNumber),
		OSVersion:      strings.TrimSpace(request.OSVersion),
		BatteryLevel:   100,
		LastSeen:       "Just now",
		Location:       "Lagos, Nigeria",
		Latitude:       6.5244,
		Longitude:      3.3792,
		LoanStatus:     domain.PaymentStatusActive,
		Status:         domain.DeviceStatusActive,
		PurchaseDate:   purchaseDate,
		WarrantyExpiry: utils.WarrantyExpiry(purchaseDate),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	loan := &domain.Loan{
		ID:             uuid.New(),
		LoanID:         loanID,
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		DeviceID:       device.ID,
		DeviceModel:    device.Model,
		AmountFinanced: request.AmountFinanced,
		AmountPaid:     decimal.Zero,
		MonthlyPayment: monthlyPayment,
		InterestRate:   interestRate,
		DurationMonths: request.DurationMonths,
		PaymentStatus:  domain.PaymentStatusActive,
		NextPaymentDue: &nextDue,
		StartDate:      purchaseDate,
		EndDate:        utils.AddMonths(purchaseDate, request.DurationMonths),
		MissedPayments: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.InsertDeviceAndLoan(ctx, device, loan); err != nil {
		if customError.IsNotFound(err) {
			return nil, nil, customError.WrapCustomerNotFound(request.CustomerID)
		}
		return nil, nil, customError.WrapStorageError(err)
	}

	s.recordActivity(ctx, domain.ActivityActionLoanCreated,
		fmt.Sprintf("Loan %s created for %s (%s)", loanID, customer.Name, device.Model), "Loan Officer")
	s.invalidateStats(ctx)

	s.logger.Info().
		Str("loan_id", loanID).
		Str("customer_id", customer.ID.String()).
		Str("monthly_payment", monthlyPayment.String()).
		Msg("financing created")

	return device, loan, nil
}

// RecordPayment applies a repayment to a loan and re-derives its status.
func (s *FinancingService) RecordPayment(ctx context.Context, loanID string, amount decimal.Decimal, paymentDate time.Time) (*domain.Loan, error) {
	if !amount.IsPositive() {
		verr := customError.NewValidationError()
		verr.Add("amount", "payment amount must be greater than 0")
		return nil, verr
	}

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapLoanNotFound(loanID)
		}
		return nil, customError.WrapStorageError(err)
	}

	if loan.PaymentStatus == domain.PaymentStatusPaid {
		return nil, customError.WrapLoanAlreadySettled(loanID)
	}

	previousStatus := loan.PaymentStatus
	loan.AmountPaid = loan.AmountPaid.Add(amount)
	loan.LastPaymentDate = &paymentDate

	if loan.IsSettled() {
		loan.PaymentStatus = domain.PaymentStatusPaid
		loan.NextPaymentDue = nil
	} else {
		nextDue := utils.AddMonths(paymentDate, 1)
		loan.NextPaymentDue = &nextDue
		status, missed := s.deriveStatus(loan, paymentDate)
		// Returning to Active clears the consecutive missed counter.
		if previousStatus == domain.PaymentStatusOverdue && status == domain.PaymentStatusActive {
			missed = 0
		}
		loan.PaymentStatus = status
		loan.MissedPayments = missed
	}
	loan.UpdatedAt = time.Now()

	payment := &domain.Payment{
		ID:          uuid.New(),
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: paymentDate,
		CreatedAt:   time.Now(),
	}
	if err := s.store.InsertPayment(ctx, payment); err != nil {
		return nil, customError.WrapStorageError(err)
	}
	if err := s.store.UpdateLoan(ctx, loan); err != nil {
		return nil, customError.WrapStorageError(err)
	}

	if err := s.mirrorLoanStatus(ctx, loan); err != nil {
		return nil, err
	}
	if err := s.refreshCustomer(ctx, loan.CustomerID, previousStatus, loan.PaymentStatus); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, domain.ActivityActionPayment,
		fmt.Sprintf("Payment of %s recorded for loan %s", amount.StringFixed(2), loanID), "System")
	s.invalidateLoan(ctx, loanID)
	s.invalidateStats(ctx)

	return loan, nil
}

// EvaluateLoan derives the payment status and the missed-payment count
// of a loan as of a date. It never mutates stored state: evaluating
// twice at the same date yields the same answer and the same count.
func (s *FinancingService) EvaluateLoan(loan *domain.Loan, asOf time.Time) (string, int) {
	return s.deriveStatus(loan, asOf)
}

// EvaluateStatus is EvaluateLoan for callers that only need the status.
func (s *FinancingService) EvaluateStatus(loan *domain.Loan, asOf time.Time) string {
	status, _ := s.deriveStatus(loan, asOf)
	return status
}

// deriveStatus computes the status and the missed-payment count of a
// loan at asOf. Missed cycles are counted from the due date rather than
// incremented, so repeated evaluation cannot double-count.
func (s *FinancingService) deriveStatus(loan *domain.Loan, asOf time.Time) (string, int) {
	if loan.IsSettled() {
		return domain.PaymentStatusPaid, loan.MissedPayments
	}

	cycles := 0
	if loan.NextPaymentDue != nil && asOf.After(*loan.NextPaymentDue) {
		cycles = 1 + utils.MonthsElapsed(*loan.NextPaymentDue, asOf)
	}

	missed := loan.MissedPayments
	if cycles > missed {
		missed = cycles
	}

	switch {
	case loan.PaymentStatus == domain.PaymentStatusDefaulted:
		// Defaulted is sticky; only full settlement leaves it.
		return domain.PaymentStatusDefaulted, missed
	case cycles > 0 && missed > s.config.Business.MissedThreshold:
		return domain.PaymentStatusDefaulted, missed
	case cycles > 0:
		return domain.PaymentStatusOverdue, missed
	default:
		return domain.PaymentStatusActive, missed
	}
}

// SweepOverdue re-evaluates every unsettled loan as of the given date
// and persists any status change. Device lock state is deliberately
// untouched; locking stays an operator decision.
func (s *FinancingService) SweepOverdue(ctx context.Context, asOf time.Time) (int, error) {
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return 0, customError.WrapStorageError(err)
	}

	changed := 0
	for _, loan := range loans {
		if loan.PaymentStatus == domain.PaymentStatusPaid {
			continue
		}

		status, missed := s.deriveStatus(loan, asOf)
		if status == loan.PaymentStatus && missed == loan.MissedPayments {
			continue
		}

		previousStatus := loan.PaymentStatus
		loan.PaymentStatus = status
		loan.MissedPayments = missed
		loan.UpdatedAt = time.Now()

		if err := s.store.UpdateLoan(ctx, loan); err != nil {
			return changed, customError.WrapStorageError(err)
		}
		if err := s.mirrorLoanStatus(ctx, loan); err != nil {
			return changed, err
		}
		if err := s.refreshCustomer(ctx, loan.CustomerID, previousStatus, status); err != nil {
			return changed, err
		}

		s.invalidateLoan(ctx, loan.LoanID)
		changed++

		s.logger.Info().
			Str("loan_id", loan.LoanID).
			Str("from", previousStatus).
			Str("to", status).
			Int("missed_payments", missed).
			Msg("loan status updated by sweep")
	}

	if changed > 0 {
		s.invalidateStats(ctx)
	}
	return changed, nil
}

// reminderHorizon is how far ahead the weekly reminder job looks for
// upcoming due dates.
const reminderHorizon = 3 * 24 * time.Hour

// RemindUpcomingPayments records a reminder activity entry for every
// unsettled loan due on or before asOf plus the reminder horizon.
// Delivery is an external concern; the activity feed is the record.
func (s *FinancingService) RemindUpcomingPayments(ctx context.Context, asOf time.Time) (int, error) {
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return 0, customError.WrapStorageError(err)
	}

	reminded := 0
	horizon := asOf.Add(reminderHorizon)
	for _, loan := range loans {
		if loan.PaymentStatus == domain.PaymentStatusPaid || loan.NextPaymentDue == nil {
			continue
		}
		if loan.NextPaymentDue.After(horizon) {
			continue
		}

		s.recordActivity(ctx, domain.ActivityActionReminder,
			fmt.Sprintf("Payment reminder sent to %s for loan %s (due %s)",
				loan.CustomerName, loan.LoanID, loan.NextPaymentDue.Format("2006-01-02")), "System")
		s.logger.Info().
			Str("loan_id", loan.LoanID).
			Time("due", *loan.NextPaymentDue).
			Msg("payment reminder")
		reminded++
	}
	return reminded, nil
}

// SetDeviceLock flips the remote lock state of a device. The flip is
// independent of payment status so operators keep override capability
// for hardship exceptions.
func (s *FinancingService) SetDeviceLock(ctx context.Context, deviceID uuid.UUID, locked bool, performedBy string) (*domain.Device, error) {
	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		if customError.IsNotFound(err) {
			return nil, customError.WrapDeviceNotFound(deviceID.String())
		}
		return nil, customError.WrapStorageError(err)
	}

	action := domain.ActivityActionUnlockDevice
	device.Status = domain.DeviceStatusActive
	if locked {
		action = domain.ActivityActionLockDevice
		device.Status = domain.DeviceStatusLocked
	}
	device.UpdatedAt = time.Now()

	if err := s.store.UpdateDevice(ctx, device); err != nil {
		return nil, customError.WrapStorageError(err)
	}

	s.recordActivity(ctx, action,
		fmt.Sprintf("%s command sent to %s's %s", action, device.CustomerName, device.Model), performedBy)
	s.invalidateStats(ctx)

	return device, nil
}

// DashboardStats aggregates the console landing-page counters, cached
// in Redis for the configured TTL.
func (s *FinancingService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if stats, ok := s.cachedStats(ctx); ok {
		return stats, nil
	}

	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	loans, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, customError.WrapStorageError(err)
	}

	stats := &domain.DashboardStats{
		TotalDevices:   len(devices),
		TotalCustomers: len(customers),
	}
	for _, device := range devices {
		if device.Locked() {
			stats.LockedDevices++
		}
	}
	for _, loan := range loans {
		switch loan.PaymentStatus {
		case domain.PaymentStatusActive, domain.PaymentStatusOverdue:
			stats.ActiveLoans++
		}
		switch loan.PaymentStatus {
		case domain.PaymentStatusOverdue, domain.PaymentStatusDefaulted:
			stats.OverduePayments++
		}
	}

	s.cacheStats(ctx, stats)
	return stats, nil
}

// mirrorLoanStatus keeps the device's loan-status field in step with its
// loan. Lock state is not touched.
func (s *FinancingService) mirrorLoanStatus(ctx context.Context, loan *domain.Loan) error {
	device, err := s.store.GetDevice(ctx, loan.DeviceID)
	if err != nil {
		if customError.IsNotFound(err) {
			return customError.WrapDeviceNotFound(loan.DeviceID.String())
		}
		return customError.WrapStorageError(err)
	}
	if device.LoanStatus == loan.PaymentStatus {
		return nil
	}

	device.LoanStatus = loan.PaymentStatus
	device.UpdatedAt = time.Now()
	if err := s.store.UpdateDevice(ctx, device); err != nil {
		return customError.WrapStorageError(err)
	}
	return nil
}

// refreshCustomer recomputes the owning customer's counters and status
// after a loan status change.
func (s *FinancingService) refreshCustomer(ctx context.Context, customerID uuid.UUID, previous, current string) error {
	if previous == current {
		return nil
	}

	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		if customError.IsNotFound(err) {
			return customError.WrapCustomerNotFound(customerID.String())
		}
		return customError.WrapStorageError(err)
	}

	if current == domain.PaymentStatusPaid && customer.ActiveLoans > 0 {
		customer.ActiveLoans--
	}

	loans, err := s.store.ListLoansByCustomer(ctx, customerID)
	if err != nil {
		return customError.WrapStorageError(err)
	}
	customer.Status = customerStatusFromLoans(loans)
	customer.UpdatedAt = time.Now()

	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return customError.WrapStorageError(err)
	}
	return nil
}

func customerStatusFromLoans(loans []*domain.Loan) string {
	status := domain.CustomerStatusCompleted
	for _, loan := range loans {
		switch loan.PaymentStatus {
		case domain.PaymentStatusOverdue, domain.PaymentStatusDefaulted:
			return domain.CustomerStatusOverdue
		case domain.PaymentStatusActive:
			status = domain.CustomerStatusActive
		}
	}
	return status
}

// collectStructErrors runs tag validation and folds every failure into
// the field-keyed validation error.
func (s *FinancingService) collectStructErrors(request interface{}, verr *customError.ValidationError) {
	err := s.validator.Struct(request)
	if err == nil {
		return
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("request", err.Error())
		return
	}

	for _, fieldError := range validationErrors {
		field := toSnakeCase(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			verr.Add(field, field+" is required")
		case "email":
			verr.Add(field, "must be a valid email address")
		case "gt":
			verr.Add(field, "must be greater than "+fieldError.Param())
		case "uuid4":
			verr.Add(field, "must be a valid UUID")
		default:
			verr.Add(field, "failed "+fieldError.Tag()+" validation")
		}
	}
}

func toSnakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := field[i-1]
				nextIsLower := i+1 < len(field) && field[i+1] >= 'a' && field[i+1] <= 'z'
				// Break on lower→upper and at the tail of an acronym
				// run, so OSVersion becomes os_version, not osversion.
				if (prev >= 'a' && prev <= 'z') || (prev >= 'A' && prev <= 'Z' && nextIsLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *FinancingService) recordActivity(ctx context.Context, action, description, performedBy string) {
	entry := &domain.ActivityEntry{
		ID:          uuid.New(),
		Timestamp:   time.Now(),
		Action:      action,
		Description: description,
		PerformedBy: performedBy,
		Status:      "Success",
	}
	if err := s.store.InsertActivity(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity entry")
	}
}

// Cache helpers. A cache failure is never fatal; the store remains the
// source of truth.

func (s *FinancingService) cachedStats(ctx context.Context) (*domain.DashboardStats, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, statsCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (s *FinancingService) cacheStats(ctx context.Context, stats *domain.DashboardStats) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, statsCacheKey, data, s.config.Business.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache dashboard stats")
	}
}

func (s *FinancingService) invalidateStats(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}

func (s *FinancingService) invalidateLoan(ctx context.Context, loanID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, loanCachePrefix+loanID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("loan_id", loanID).Msg("failed to invalidate loan cache")
	}
}
