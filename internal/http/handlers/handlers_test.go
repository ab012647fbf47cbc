package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/http/dto"
	"github.com/promoter-dashboard/backend/internal/middleware"
	"github.com/promoter-dashboard/backend/internal/models"
	"github.com/promoter-dashboard/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCampaigns struct {
	assigned map[uuid.UUID][]models.Campaign
	err      error
}

func (s *stubCampaigns) ListByPromoter(_ context.Context, promoterID uuid.UUID) ([]models.Campaign, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assigned[promoterID], nil
}

func (s *stubCampaigns) GetForPromoter(_ context.Context, id, promoterID uuid.UUID) (*models.Campaign, error) {
	for _, c := range s.assigned[promoterID] {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubPromoters map[uuid.UUID]*models.Promoter

func (s stubPromoters) GetByID(_ context.Context, id uuid.UUID) (*models.Promoter, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

type memoryCare map[uuid.UUID]*models.CareBoard

func (m memoryCare) Get(_ context.Context, userID uuid.UUID) (*models.CareBoard, error) {
	if b, ok := m[userID]; ok {
		return b, nil
	}
	return models.NewCareBoard(), nil
}

func (m memoryCare) Update(ctx context.Context, userID uuid.UUID, fn func(*models.CareBoard) error) (*models.CareBoard, error) {
	b, _ := m.Get(ctx, userID)
	if err := fn(b); err != nil {
		return nil, err
	}
	m[userID] = b
	return b, nil
}

type testEnv struct {
	app        *fiber.App
	cfg        *config.Config
	campaigns  *stubCampaigns
	promoterID uuid.UUID
	running    uuid.UUID
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{JWTSecret: "secret", SessionCookieName: "session"}
	promoterID := uuid.New()
	running := uuid.New()
	campaigns := &stubCampaigns{assigned: map[uuid.UUID][]models.Campaign{
		promoterID: {
			{ID: running, Name: "Running", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 31), TargetSamplings: 200, TargetScans: 50},
			{ID: uuid.New(), Name: "Done", StartDate: day(2025, 1, 1), EndDate: day(2025, 1, 31)},
			{ID: uuid.New(), Name: "Soon", StartDate: day(2025, 4, 1), EndDate: day(2025, 4, 30)},
		},
	}}
	promoters := stubPromoters{promoterID: {ID: promoterID, Name: "Asha", Phone: "9876543210"}}
	now := func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }

	dash := NewDashboardHandler(services.NewDashboardService(campaigns, promoters, now, zap.NewNop()), zap.NewNop())
	care := NewCareHandler(services.NewCareService(memoryCare{}, now, zap.NewNop()), zap.NewNop())
	pay := NewPaymentHandler(zap.NewNop())
	meta := NewMetaHandler()

	app := fiber.New()
	app.Use(middleware.RequestIDMiddleware())
	app.Get("/meta/formats", meta.GetFormats)

	protected := app.Group("", middleware.AuthMiddleware(cfg, zap.NewNop()))
	protected.Post("/payments/resolve", pay.Resolve)
	protected.Get("/care", care.GetBoard)
	protected.Put("/care/family-name", care.SetFamilyName)
	protected.Post("/care/bills/:id/toggle", care.ToggleBill)
	protected.Post("/care/:list", care.PushItem)
	protected.Delete("/care/:list/:id", care.RemoveItem)

	promoter := protected.Group("", middleware.RequirePromoter())
	promoter.Get("/dashboard", dash.GetDashboard)
	promoter.Get("/campaigns", dash.ListCampaigns)
	promoter.Get("/campaigns/:id", dash.GetCampaign)

	return &testEnv{app: app, cfg: cfg, campaigns: campaigns, promoterID: promoterID, running: running}
}

func (e *testEnv) do(t *testing.T, method, path, body string, promoter bool) (int, []byte) {
	t.Helper()

	var pid *uuid.UUID
	if promoter {
		pid = &e.promoterID
	}
	tok, err := auth.GenerateJWT(e.cfg.JWTSecret, uuid.New(), "9876543210", pid, time.Hour)
	require.NoError(t, err)

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestGetDashboard(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/dashboard", "", true)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp struct {
		Data struct {
			Promoter  models.Promoter `json:"promoter_info"`
			Campaigns struct {
				Active    []models.Campaign `json:"active"`
				Completed []models.Campaign `json:"completed"`
				Upcoming  []models.Campaign `json:"upcoming"`
				Unknown   []models.Campaign `json:"unknown"`
			} `json:"campaigns"`
			Stats models.CampaignCounts `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))

	assert.Equal(t, "Asha", resp.Data.Promoter.Name)
	assert.Equal(t, models.CampaignCounts{Assigned: 3, Active: 1, Completed: 1, Upcoming: 1}, resp.Data.Stats)
	assert.Equal(t, models.CampaignStatusActive, resp.Data.Campaigns.Active[0].Status)
	assert.NotNil(t, resp.Data.Campaigns.Unknown, "empty buckets render as []")
}

func TestDashboardRequiresPromoter(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/dashboard", "", false)
	assert.Equal(t, http.StatusForbidden, status)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, dto.CodeNoPromoter, e.Code)
}

func TestDashboardServerError(t *testing.T) {
	env := newTestEnv(t)
	env.campaigns.err = assert.AnError

	status, body := env.do(t, http.MethodGet, "/dashboard", "", true)
	assert.Equal(t, http.StatusInternalServerError, status)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, dto.CodeServerError, e.Code)
	assert.NotContains(t, e.Error, assert.AnError.Error(), "internal errors are not leaked")
}

func TestListCampaignsStatusFilter(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/campaigns?status=upcoming", "", true)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Data []models.Campaign `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Soon", resp.Data[0].Name)

	status, _ = env.do(t, http.MethodGet, "/campaigns?status=paused", "", true)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetCampaign(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/campaigns/"+env.running.String(), "", true)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Data models.CampaignDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, models.CampaignStatusActive, resp.Data.Status)
	assert.Equal(t, int64(150), resp.Data.Progress.Remaining)
	assert.Equal(t, 25, resp.Data.Progress.CompletionRate)

	for _, path := range []string{"/campaigns/" + uuid.NewString(), "/campaigns/not-a-uuid"} {
		status, body = env.do(t, http.MethodGet, path, "", true)
		assert.Equal(t, http.StatusNotFound, status, path)

		var e dto.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, dto.CodeCampaignNotFound, e.Code)
	}
}

func TestResolvePayment(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		body       string
		wantStatus int
		wantURL    string
	}{
		{`{"qr_data":"shop@okaxis"}`, http.StatusOK, "upi://pay?pa=shop%40okaxis"},
		{`{"qr_data":"upi://pay?pa=a@b&am=10"}`, http.StatusOK, "upi://pay?pa=a@b&am=10"},
		{`{"qr_data":"https://pay.example.com/x"}`, http.StatusOK, "https://pay.example.com/x"},
		{`{"qr_data":"   "}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		status, body := env.do(t, http.MethodPost, "/payments/resolve", tt.body, false)
		require.Equal(t, tt.wantStatus, status, tt.body)
		if tt.wantURL == "" {
			continue
		}
		var resp struct {
			Data struct {
				URL string `json:"payment_url"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, tt.wantURL, resp.Data.URL)
	}
}

func TestCareBoardRoutes(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPut, "/care/family-name", `{"family_name":"Sharma"}`, false)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPost, "/care/medicines", `{"name":"Metformin","time":"08:00"}`, false)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = env.do(t, http.MethodPost, "/care/medicines", `{"name":"NoTime"}`, false)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/care/pets", `{"name":"Rex"}`, false)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodDelete, "/care/medicines/99", "", false)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/care/bills/1/toggle", "", false)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetaFormats(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/meta/formats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type conflictingCare struct{ memoryCare }

func (conflictingCare) Update(context.Context, uuid.UUID, func(*models.CareBoard) error) (*models.CareBoard, error) {
	return nil, models.ErrCareConflict
}

func TestCareConflictIsRetryable(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", SessionCookieName: "session"}
	care := NewCareHandler(services.NewCareService(conflictingCare{memoryCare{}}, nil, zap.NewNop()), zap.NewNop())

	app := fiber.New()
	app.Use(middleware.RequestIDMiddleware())
	app.Put("/care/family-name", middleware.AuthMiddleware(cfg, zap.NewNop()), care.SetFamilyName)

	tok, err := auth.GenerateJWT(cfg.JWTSecret, uuid.New(), "9876543210", nil, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/care/family-name", strings.NewReader(`{"family_name":"Sharma"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, dto.CodeConflict, e.Code)
}
