package payrollhandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/domain/audit"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
	"backoffice/internal/transport/http/shared"
)

type periodPayload struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

func (h *Handler) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := h.yearParam(raw)
		if err != nil {
			badRequest(w, r, err.Error())
			return
		}
		year = parsed
	}
	periods, err := h.Service.ListPeriods(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, orEmpty(periods), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOpenPeriod(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		badRequest(w, r, "invalid request payload")
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	period, err := h.Service.OpenPeriod(r.Context(), payload.Year, payload.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionPeriodOpened, "payroll_period", period.ID, nil, period)
	api.Created(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		badRequest(w, r, "month must be between 1 and 12")
		return
	}
	period, err := h.Service.ClosePeriod(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionPeriodClosed, "payroll_period", period.ID, nil, period)
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}
