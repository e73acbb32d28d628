package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/finlock/financing-engine/internal/domain"
	"github.com/finlock/financing-engine/internal/service"
	customError "github.com/finlock/financing-engine/pkg/errors"
	"github.com/finlock/financing-engine/pkg/response"
	"github.com/finlock/financing-engine/pkg/utils"
)

// FinancingHandler exposes the financing engine over HTTP.
type FinancingHandler struct {
	service *service.FinancingService
}

func NewFinancingHandler(service *service.FinancingService) *FinancingHandler {
	return &FinancingHandler{service: service}
}

// CreateCustomer handles POST /api/v1/customers
func (h *FinancingHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, customer)
}

// ListCustomers handles GET /api/v1/customers
func (h *FinancingHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, customers)
}

// GetCustomer handles GET /api/v1/customers/{id}
func (h *FinancingHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.service.GetCustomerSummary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, summary)
}

// ListCustomerDevices handles GET /api/v1/customers/{id}/devices
func (h *FinancingHandler) ListCustomerDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	devices, err := h.service.ListDevicesByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, devices)
}

// ListCustomerLoans handles GET /api/v1/customers/{id}/loans
func (h *FinancingHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	loans, err := h.service.ListLoansByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, loanResponses(loans))
}

// CreateFinancing handles POST /api/v1/financings
func (h *FinancingHandler) CreateFinancing(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateFinancingRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	device, loan, err := h.service.CreateFinancing(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, &domain.CreateFinancingResponse{
		Device: device,
		Loan:   domain.NewLoanResponse(loan),
	})
}

// FinancingSuggestions handles GET /api/v1/financings/suggestions.
// Mirrors the console's generator buttons for IMEI and serial number.
func (h *FinancingHandler) FinancingSuggestions(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	response.Success(w, map[string]string{
		"imei":          utils.GenerateIMEI(),
		"serial_number": utils.GenerateSerialNumber(model, time.Now().Year()),
	})
}

// ListDevices handles GET /api/v1/devices
func (h *FinancingHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.service.ListDevices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, devices)
}

// GetDevice handles GET /api/v1/devices/{id}
func (h *FinancingHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	device, err := h.service.GetDevice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, device)
}

// LockDevice handles POST /api/v1/devices/{id}/lock
func (h *FinancingHandler) LockDevice(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, true)
}

// UnlockDevice handles POST /api/v1/devices/{id}/unlock
func (h *FinancingHandler) UnlockDevice(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, false)
}

func (h *FinancingHandler) setLock(w http.ResponseWriter, r *http.Request, locked bool) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	performedBy := r.Header.Get("X-Operator")
	if performedBy == "" {
		performedBy = "Admin User"
	}

	device, err := h.service.SetDeviceLock(r.Context(), id, locked, performedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, device)
}

// ListLoans handles GET /api/v1/loans
func (h *FinancingHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, loanResponses(loans))
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *FinancingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, domain.NewLoanResponse(loan))
}

// GetLoanStatus handles GET /api/v1/loans/{loanId}/status?as_of=2025-11-01
func (h *FinancingHandler) GetLoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "as_of must be a date in YYYY-MM-DD format", err)
			return
		}
		asOf = parsed
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	status, missed := h.service.EvaluateLoan(loan, asOf)
	response.Success(w, &domain.LoanStatusResponse{
		LoanID:         loanID,
		PaymentStatus:  status,
		MissedPayments: missed,
		AsOf:           asOf.Format("2006-01-02"),
	})
}

// ListLoanPayments handles GET /api/v1/loans/{loanId}/payments
func (h *FinancingHandler) ListLoanPayments(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	payments, err := h.service.ListPayments(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, payments)
}

// RecordPayment handles POST /api/v1/loans/{loanId}/payments
func (h *FinancingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	paymentDate := time.Now()
	if request.PaymentDate != nil {
		paymentDate = *request.PaymentDate
	}

	loan, err := h.service.RecordPayment(r.Context(), loanID, request.Amount, paymentDate)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, domain.NewLoanResponse(loan))
}

// DashboardStats handles GET /api/v1/dashboard/stats
func (h *FinancingHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, stats)
}

// ListActivity handles GET /api/v1/activity
func (h *FinancingHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListActivity(r.Context(), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, entries)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

func loanResponses(loans []*domain.Loan) []*domain.LoanResponse {
	responses := make([]*domain.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		responses = append(responses, domain.NewLoanResponse(loan))
	}
	return responses
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := customError.AsValidation(err); ok {
		response.ValidationFailed(w, verr.Fields)
		return
	}

	var businessErr *customError.BusinessError
	if errors.As(err, &businessErr) {
		switch {
		case customError.IsNotFound(err):
			response.NotFound(w, businessErr.Message)
		case errors.Is(err, customError.ErrLoanAlreadySettled),
			errors.Is(err, customError.ErrInvalidPaymentAmount):
			response.BadRequest(w, businessErr.Message, businessErr.Err)
		default:
			response.InternalServerError(w, businessErr.Message, businessErr.Err)
		}
		return
	}

	response.InternalServerError(w, "unexpected error", err)
}
