package payrollhandler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"backoffice/internal/domain/payroll"
	"backoffice/internal/transport/http/api"
	"backoffice/internal/transport/http/middleware"
)

func (h *Handler) handleEAForm(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	summary, err := h.Service.EAForm(r.Context(), chi.URLParam(r, "staffID"), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.EAFormServed()
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEAFormPDF(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	buf, summary, err := h.Service.EAFormPDF(r.Context(), chi.URLParam(r, "staffID"), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.DocumentRendered()
	writeDocument(w, contentTypePDF, eaFormFilename(summary), buf.Bytes())
}

func (h *Handler) handleMyEAForm(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	summary, err := h.Service.MyEAForm(r.Context(), user.UserID, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.EAFormServed()
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyEAFormPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	buf, summary, err := h.Service.MyEAFormPDF(r.Context(), user.UserID, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.DocumentRendered()
	writeDocument(w, contentTypePDF, eaFormFilename(summary), buf.Bytes())
}

func eaFormFilename(summary payroll.EAFormSummary) string {
	return fmt.Sprintf("ea-form-%s-%d.pdf", summary.Employee.EmployeeID, summary.Year)
}
