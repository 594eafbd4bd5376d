package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/app/server"
	"backoffice/internal/domain/auth"
	"backoffice/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func TestPayrollJourneyAgainstPostgres(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		DataEncryptionKey: "0123456789abcdef0123456789abcdef",
		Environment:       "test",
		CompanyName:       "Journey Sdn Bhd",
		RunMigrations:     true,
		MigrationsDir:     "../../../migrations",
		MaxBodyBytes:      1 << 20,
		ShutdownTimeout:   time.Second,
	}

	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	admin, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: "journey-admin", RoleName: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	suffix := time.Now().UnixNano()
	userID := fmt.Sprintf("journey-user-%d", suffix)
	year := 2000 + int(suffix%100)

	var staff struct {
		ID   string `json:"id"`
		NRIC string `json:"nric"`
	}
	status := call(t, ts, http.MethodPost, "/api/v1/hr/staff", admin, map[string]any{
		"user_id":      userID,
		"employee_id":  fmt.Sprintf("J%d", suffix),
		"full_name":    "Journey Staff",
		"nric":         "850101-14-5678",
		"basic_salary": 3000,
	}, &staff)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "850101-14-5678", staff.NRIC)

	status = call(t, ts, http.MethodPost, "/api/v1/hr/periods", admin, map[string]any{"year": year, "month": 1}, nil)
	require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, status)

	var slip struct {
		ID      string  `json:"id"`
		NettPay float64 `json:"nett_pay"`
	}
	status = call(t, ts, http.MethodPost, "/api/v1/hr/payslips", admin, map[string]any{
		"staff_id": staff.ID, "year": year, "month": 1,
	}, &slip)
	require.Equal(t, http.StatusCreated, status)
	assert.InDelta(t, 2649.0, slip.NettPay, 0.001)

	status = call(t, ts, http.MethodPost, "/api/v1/hr/payslips", admin, map[string]any{
		"staff_id": staff.ID, "year": year, "month": 1,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	self, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: userID, RoleName: auth.RoleStaff}, time.Hour)
	require.NoError(t, err)

	var summary struct {
		MonthsReported int `json:"months_reported"`
	}
	status = call(t, ts, http.MethodGet, fmt.Sprintf("/api/v1/hr/my-ea-form/%d", year), self, nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, summary.MonthsReported)
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return resp.StatusCode
}
