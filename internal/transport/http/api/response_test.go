package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessWritesDecimalsAsNumbers(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]decimal.Decimal{"nett_pay": decimal.RequireFromString("2649.01")}, "req-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success   bool                       `json:"success"`
		Data      map[string]json.RawMessage `json:"data"`
		RequestID string                     `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "2649.01", string(body.Data["nett_pay"]))
}

func TestFailOmitsData(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusConflict, "duplicate_payslip", "already generated", "req-2")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"duplicate_payslip","message":"already generated"},"requestId":"req-2"}`, rec.Body.String())
}
