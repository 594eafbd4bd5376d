package payrollhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/payroll"
	"backoffice/internal/platform/metrics"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Auditor records who changed payroll state.
type Auditor interface {
	Record(ctx context.Context, evt audit.Event, before, after any) error
}

type Handler struct {
	Service        *payroll.Service
	Metrics        *metrics.Collector
	Audit          Auditor
	MaxUploadBytes int64
	now            func() time.Time
}

func NewHandler(service *payroll.Service, collector *metrics.Collector, maxUploadBytes int64) *Handler {
	return &Handler{Service: service, Metrics: collector, MaxUploadBytes: maxUploadBytes, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/hr", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleHR))

			r.Get("/staff", h.handleListStaff)
			r.Post("/staff", h.handleCreateStaff)
			r.Get("/staff/{staffID}", h.handleGetStaff)
			r.Put("/staff/{staffID}", h.handleUpdateStaff)
			r.Post("/staff/{staffID}/deactivate", h.handleDeactivateStaff)

			r.Get("/periods", h.handleListPeriods)
			r.Post("/periods", h.handleOpenPeriod)

			r.Get("/statutory-rates", h.handleListRates)
			r.Get("/statutory-rates/templates/{rateType}", h.handleRateTemplate)

			r.Post("/payslips/preview", h.handlePreviewPayslip)
			r.Get("/payslips", h.handleListPayslips)
			r.Post("/payslips", h.handleGeneratePayslip)
			r.Get("/payslips/{payslipID}", h.handleGetPayslip)
			r.Put("/payslips/{payslipID}", h.handleUpdatePayslip)
			r.Delete("/payslips/{payslipID}", h.handleDeletePayslip)
			r.Get("/payslips/{payslipID}/pdf", h.handlePayslipPDF)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))

			r.Post("/periods/{year}/{month}/close", h.handleClosePeriod)
			r.Put("/statutory-rates", h.handleReplaceRates)
			r.Delete("/statutory-rates", h.handleClearRates)
			r.Post("/statutory-rates/upload", h.handleUploadRates)
			r.Get("/ea-form/{staffID}/{year}", h.handleEAForm)
			r.Get("/ea-form/{staffID}/{year}/pdf", h.handleEAFormPDF)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleStaff))

			r.Get("/my-payslips", h.handleMyPayslips)
			r.Get("/my-payslips/{payslipID}/pdf", h.handleMyPayslipPDF)
			r.Get("/my-ea-form/{year}", h.handleMyEAForm)
			r.Get("/my-ea-form/{year}/pdf", h.handleMyEAFormPDF)
		})
	})
}

// writeError maps payroll errors onto the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("payroll request failed", "err", err, "path", r.URL.Path, "requestId", requestID)
		api.Fail(w, status, code, "internal error", requestID)
		return
	}
	api.Fail(w, status, code, err.Error(), requestID)
}

func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, payroll.ErrPeriodClosed):
		return http.StatusConflict, "period_closed"
	case errors.Is(err, payroll.ErrPayslipLocked):
		return http.StatusConflict, "payslip_locked"
	case errors.Is(err, payroll.ErrDuplicatePayslip):
		return http.StatusConflict, "duplicate_payslip"
	case errors.Is(err, payroll.ErrPeriodExists):
		return http.StatusConflict, "period_exists"
	case errors.Is(err, payroll.ErrInvalidStaff):
		return http.StatusUnprocessableEntity, "invalid_staff"
	case errors.Is(err, payroll.ErrInvalidAdjustment):
		return http.StatusUnprocessableEntity, "invalid_adjustment"
	case errors.Is(err, payroll.ErrMalformedRateTable):
		return http.StatusUnprocessableEntity, "malformed_rate_table"
	case errors.Is(err, payroll.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity, "invalid_period"
	case errors.Is(err, payroll.ErrNoDataAvailable):
		return http.StatusNotFound, "no_data_available"
	case errors.Is(err, payroll.ErrStaffNotFound),
		errors.Is(err, payroll.ErrPeriodNotFound),
		errors.Is(err, payroll.ErrPayslipNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// record writes an audit event; failures are logged and never fail the request.
func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	evt := audit.Event{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         clientIP(r),
	}
	if err := h.Audit.Record(r.Context(), evt, before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action, "entityId", entityID)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// payslipState is the audited view of a payslip; personal identifiers stay out of the trail.
func payslipState(slip payroll.Payslip) map[string]any {
	return map[string]any{
		"staff_id":         slip.StaffID,
		"year":             slip.Year,
		"month":            slip.Month,
		"gross_salary":     slip.GrossSalary,
		"total_deductions": slip.TotalDeductions,
		"nett_pay":         slip.NettPay,
		"is_locked":        slip.IsLocked,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	api.Fail(w, http.StatusBadRequest, "invalid_request", message, middleware.GetRequestID(r.Context()))
}

// yearParam reads a year from the path or query; empty falls back to the current year.
func (h *Handler) yearParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("year must be between 2000 and 2100")
	}
	return year, nil
}

func writeDocument(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("write document failed", "err", err, "file", filename)
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
