package payrollhandler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/payroll"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
	"backoffice/internal/transport/http/shared"
)

type adjustmentsPayload struct {
	Overtime        decimal.Decimal `json:"overtime" validate:"gte=0"`
	Bonus           decimal.Decimal `json:"bonus" validate:"gte=0"`
	Commission      decimal.Decimal `json:"commission" validate:"gte=0"`
	PCB             decimal.Decimal `json:"pcb" validate:"gte=0"`
	LoanDeduction   decimal.Decimal `json:"loan_deduction" validate:"gte=0"`
	OtherDeductions decimal.Decimal `json:"other_deductions" validate:"gte=0"`

	EPFEmployee   *decimal.Decimal `json:"epf_employee" validate:"omitempty,gte=0"`
	EPFEmployer   *decimal.Decimal `json:"epf_employer" validate:"omitempty,gte=0"`
	SOCSOEmployee *decimal.Decimal `json:"socso_employee" validate:"omitempty,gte=0"`
	SOCSOEmployer *decimal.Decimal `json:"socso_employer" validate:"omitempty,gte=0"`
	EISEmployee   *decimal.Decimal `json:"eis_employee" validate:"omitempty,gte=0"`
	EISEmployer   *decimal.Decimal `json:"eis_employer" validate:"omitempty,gte=0"`
}

func (p adjustmentsPayload) adjustments() payroll.Adjustments {
	return payroll.Adjustments{
		Overtime:        p.Overtime,
		Bonus:           p.Bonus,
		Commission:      p.Commission,
		PCB:             p.PCB,
		LoanDeduction:   p.LoanDeduction,
		OtherDeductions: p.OtherDeductions,
	}
}

func (p adjustmentsPayload) overrides() payroll.StatutoryOverrides {
	return payroll.StatutoryOverrides{
		EPFEmployee:   p.EPFEmployee,
		EPFEmployer:   p.EPFEmployer,
		SOCSOEmployee: p.SOCSOEmployee,
		SOCSOEmployer: p.SOCSOEmployer,
		EISEmployee:   p.EISEmployee,
		EISEmployer:   p.EISEmployer,
	}
}

type payslipPayload struct {
	StaffID string `json:"staff_id" validate:"required"`
	Year    int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Month   int    `json:"month" validate:"required,gte=1,lte=12"`
	adjustmentsPayload
}

func (p payslipPayload) request() payroll.PayslipRequest {
	return payroll.PayslipRequest{
		StaffID:     p.StaffID,
		Year:        p.Year,
		Month:       p.Month,
		Adjustments: p.adjustments(),
		Overrides:   p.overrides(),
	}
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		badRequest(w, r, "invalid request payload")
		return false
	}
	v := shared.NewValidator()
	v.Struct(dst)
	return !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreviewPayslip(w http.ResponseWriter, r *http.Request) {
	var payload payslipPayload
	if !decodeValid(w, r, &payload) {
		return
	}
	preview, err := h.Service.PreviewPayslip(r.Context(), payload.request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, preview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGeneratePayslip(w http.ResponseWriter, r *http.Request) {
	var payload payslipPayload
	if !decodeValid(w, r, &payload) {
		return
	}
	slip, err := h.Service.GeneratePayslip(r.Context(), payload.request())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.PayslipGenerated()
	h.record(r, audit.ActionPayslipGenerated, "payslip", slip.ID, nil, payslipState(slip))
	api.Created(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	staffID := r.URL.Query().Get("staff_id")
	if staffID == "" {
		v := shared.NewValidator()
		v.Add("staff_id", "is required")
		v.Reject(w, middleware.GetRequestID(r.Context()))
		return
	}
	year, err := h.yearParam(r.URL.Query().Get("year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	slips, err := h.Service.ListPayslips(r.Context(), staffID, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, orEmpty(slips), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePayslip(w http.ResponseWriter, r *http.Request) {
	var payload adjustmentsPayload
	if !decodeValid(w, r, &payload) {
		return
	}
	payslipID := chi.URLParam(r, "payslipID")
	before, err := h.Service.GetPayslip(r.Context(), payslipID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slip, err := h.Service.UpdatePayslip(r.Context(), payslipID, payload.adjustments(), payload.overrides())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionPayslipUpdated, "payslip", slip.ID, payslipState(before), payslipState(slip))
	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePayslip(w http.ResponseWriter, r *http.Request) {
	payslipID := chi.URLParam(r, "payslipID")
	if err := h.Service.DeletePayslip(r.Context(), payslipID); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionPayslipDeleted, "payslip", payslipID, nil, nil)
	api.Success(w, map[string]any{"id": payslipID, "deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	buf, slip, err := h.Service.PayslipPDF(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.DocumentRendered()
	writeDocument(w, contentTypePDF, payslipFilename(slip), buf.Bytes())
}

func (h *Handler) handleMyPayslips(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, err := h.yearParam(r.URL.Query().Get("year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	slips, err := h.Service.MyPayslips(r.Context(), user.UserID, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, orEmpty(slips), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyPayslipPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	buf, slip, err := h.Service.MyPayslipPDF(r.Context(), user.UserID, chi.URLParam(r, "payslipID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.DocumentRendered()
	writeDocument(w, contentTypePDF, payslipFilename(slip), buf.Bytes())
}

func payslipFilename(slip payroll.Payslip) string {
	return fmt.Sprintf("payslip-%s-%04d-%02d.pdf", slip.EmployeeID, slip.Year, slip.Month)
}
