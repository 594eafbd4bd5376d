package payrollhandler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/payroll"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
	"backoffice/internal/transport/http/shared"
)

type bracketPayload struct {
	MinWage        decimal.Decimal `json:"min_wage" validate:"gte=0"`
	MaxWage        decimal.Decimal `json:"max_wage" validate:"gte=0"`
	EmployeeAmount decimal.Decimal `json:"employee_amount" validate:"gte=0"`
	EmployerAmount decimal.Decimal `json:"employer_amount" validate:"gte=0"`
}

type rateTablePayload struct {
	RateType string           `json:"rate_type" validate:"required,oneof=epf socso eis"`
	Brackets []bracketPayload `json:"brackets" validate:"required,min=1,dive"`
}

func rateTypeNames() []string {
	names := make([]string, 0, len(payroll.RateTypes))
	for _, rt := range payroll.RateTypes {
		names = append(names, string(rt))
	}
	return names
}

// rateTypeParam accepts a rate type in any case; empty or unknown values are rejected.
func rateTypeParam(w http.ResponseWriter, r *http.Request, raw string) (payroll.RateType, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	v := shared.NewValidator()
	if raw == "" {
		v.Add("rate_type", "is required")
	}
	v.Enum("rate_type", raw, rateTypeNames(), "must be one of epf socso eis")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", false
	}
	rateType, _ := payroll.ParseRateType(raw)
	return rateType, true
}

// handleListRates returns one table when rate_type is given, otherwise all three.
func (h *Handler) handleListRates(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("rate_type"); raw != "" {
		rateType, ok := rateTypeParam(w, r, raw)
		if !ok {
			return
		}
		table, err := h.Service.RateTable(r.Context(), rateType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		api.Success(w, table, middleware.GetRequestID(r.Context()))
		return
	}

	tables := make([]payroll.RateTable, 0, len(payroll.RateTypes))
	for _, rateType := range payroll.RateTypes {
		table, err := h.Service.RateTable(r.Context(), rateType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tables = append(tables, table)
	}
	api.Success(w, tables, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplaceRates(w http.ResponseWriter, r *http.Request) {
	var payload rateTablePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		badRequest(w, r, "invalid request payload")
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	table := payroll.RateTable{Type: payroll.RateType(payload.RateType)}
	for _, b := range payload.Brackets {
		table.Brackets = append(table.Brackets, payroll.Bracket(b))
	}
	saved, err := h.Service.ReplaceRateTable(r.Context(), table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.RateTableLoaded()
	h.record(r, audit.ActionRatesReplaced, "statutory_rates", string(saved.Type), nil, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClearRates(w http.ResponseWriter, r *http.Request) {
	rateType, ok := rateTypeParam(w, r, r.URL.Query().Get("rate_type"))
	if !ok {
		return
	}
	if err := h.Service.ClearRateTable(r.Context(), rateType); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionRatesCleared, "statutory_rates", string(rateType), nil, nil)
	api.Success(w, map[string]any{"rate_type": rateType, "cleared": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRateTemplate(w http.ResponseWriter, r *http.Request) {
	rateType, ok := rateTypeParam(w, r, chi.URLParam(r, "rateType"))
	if !ok {
		return
	}
	buf, err := payroll.RateSheetTemplate(rateType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDocument(w, contentTypeXLSX, fmt.Sprintf("%s-rates-template.xlsx", rateType), buf.Bytes())
}

// handleUploadRates replaces a table from a filled template sent as multipart field "file".
func (h *Handler) handleUploadRates(w http.ResponseWriter, r *http.Request) {
	rateType, ok := rateTypeParam(w, r, r.URL.Query().Get("rate_type"))
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		status, _ := statusFor(err)
		if status == http.StatusRequestEntityTooLarge {
			writeError(w, r, err)
			return
		}
		badRequest(w, r, "expected multipart form with a file field")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, r, "file is required")
		return
	}
	defer file.Close()

	saved, err := h.Service.UploadRateSheet(r.Context(), rateType, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.RateTableLoaded()
	h.record(r, audit.ActionRatesReplaced, "statutory_rates", string(saved.Type), nil, saved)
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}
