package payrollhandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/payroll"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
	"backoffice/internal/transport/http/shared"
)

type staffPayload struct {
	UserID             string           `json:"user_id"`
	EmployeeID         string           `json:"employee_id" validate:"required,max=64"`
	FullName           string           `json:"full_name" validate:"required,max=200"`
	NationalID         string           `json:"nric" validate:"max=32"`
	Designation        string           `json:"designation"`
	Department         string           `json:"department"`
	BasicSalary        *decimal.Decimal `json:"basic_salary" validate:"required,gte=0"`
	HousingAllowance   decimal.Decimal  `json:"housing_allowance" validate:"gte=0"`
	TransportAllowance decimal.Decimal  `json:"transport_allowance" validate:"gte=0"`
	MealAllowance      decimal.Decimal  `json:"meal_allowance" validate:"gte=0"`
	PhoneAllowance     decimal.Decimal  `json:"phone_allowance" validate:"gte=0"`
	OtherAllowance     decimal.Decimal  `json:"other_allowance" validate:"gte=0"`
	EmployeeEPFRate    decimal.Decimal  `json:"employee_epf_rate" validate:"gte=0,lte=100"`
	EmployerEPFRate    decimal.Decimal  `json:"employer_epf_rate" validate:"gte=0,lte=100"`
	EPFNumber          string           `json:"epf_number"`
	SOCSONumber        string           `json:"socso_number"`
	TaxNumber          string           `json:"tax_number"`
	IsActive           *bool            `json:"is_active"`
}

func (p staffPayload) toStaff(id string, active bool) payroll.Staff {
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return payroll.Staff{
		ID:          id,
		UserID:      p.UserID,
		EmployeeID:  p.EmployeeID,
		FullName:    p.FullName,
		NationalID:  p.NationalID,
		Designation: p.Designation,
		Department:  p.Department,
		BasicSalary: *p.BasicSalary,
		Allowances: payroll.Allowances{
			Housing:   p.HousingAllowance,
			Transport: p.TransportAllowance,
			Meal:      p.MealAllowance,
			Phone:     p.PhoneAllowance,
			Other:     p.OtherAllowance,
		},
		EmployeeEPFRate: p.EmployeeEPFRate,
		EmployerEPFRate: p.EmployerEPFRate,
		EPFNumber:       p.EPFNumber,
		SOCSONumber:     p.SOCSONumber,
		TaxNumber:       p.TaxNumber,
		IsActive:        active,
	}
}

func decodeStaff(w http.ResponseWriter, r *http.Request) (staffPayload, bool) {
	var payload staffPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		badRequest(w, r, "invalid request payload")
		return payload, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return payload, false
	}
	return payload, true
}

func (h *Handler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	filter := payroll.StaffFilter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, r, "active must be true or false")
			return
		}
		filter.ActiveOnly = active
	}
	staff, err := h.Service.ListStaff(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, orEmpty(staff), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeStaff(w, r)
	if !ok {
		return
	}
	created, err := h.Service.CreateStaff(r.Context(), payload.toStaff("", true))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionStaffCreated, "staff", created.ID, nil, map[string]any{"employee_id": created.EmployeeID})
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Service.GetStaff(r.Context(), chi.URLParam(r, "staffID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, staff, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")
	payload, ok := decodeStaff(w, r)
	if !ok {
		return
	}
	existing, err := h.Service.GetStaff(r.Context(), staffID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Service.UpdateStaff(r.Context(), payload.toStaff(staffID, existing.IsActive))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionStaffUpdated, "staff", updated.ID,
		map[string]any{"basic_salary": existing.BasicSalary, "is_active": existing.IsActive},
		map[string]any{"basic_salary": updated.BasicSalary, "is_active": updated.IsActive})
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateStaff(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")
	if err := h.Service.DeactivateStaff(r.Context(), staffID); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionStaffDeactivated, "staff", staffID, nil, nil)
	api.Success(w, map[string]any{"id": staffID, "is_active": false}, middleware.GetRequestID(r.Context()))
}
