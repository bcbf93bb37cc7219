package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/config"
	"littlegrow/internal/notifications"
	"littlegrow/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:                   ":0",
		SeedProducts:              true,
		DBDriver:                  "sqlite",
		DatabaseDSN:               "file:littlegrow_main_" + uuid.NewString() + "?mode=memory&cache=shared",
		DBMaxOpenConns:            1,
		JWTSecret:                 "test_jwt_secret",
		MidtransServerKey:         "SB-Mid-server-test",
		MidtransBaseURL:           "http://127.0.0.1:1",
		ProcessorTimeout:          time.Second,
		NotifyTransport:           "log",
		NotifyTimeout:             time.Second,
		EventPublishTimeout:       time.Second,
		OpsEmail:                  "ops@example.com",
		AdminCompleteAdjustsStock: true,
	}
}

func TestApplicationServesHealthAndMetrics(t *testing.T) {
	a, err := newApplication(context.Background(), testConfig(), logger.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Shutdown(time.Second)) }()

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	// The webhook route is public; everything else needs a token.
	resp, err = a.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestApplicationSeedsProducts(t *testing.T) {
	a, err := newApplication(context.Background(), testConfig(), logger.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Shutdown(time.Second)) }()

	var count int64
	require.NoError(t, a.db.DB().Table("products").Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestApplicationRejectsBadDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DBDriver = "oracle"
	_, err := newApplication(context.Background(), cfg, logger.Nop(), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestNotificationTransport(t *testing.T) {
	cfg := testConfig()
	log := logger.Nop()

	transport, err := notificationTransport(cfg, log, nil)
	require.NoError(t, err)
	assert.IsType(t, &notifications.LogTransport{}, transport)

	cfg.NotifyTransport = "resend"
	transport, err = notificationTransport(cfg, log, nil)
	require.NoError(t, err)
	assert.IsType(t, &notifications.ResendTransport{}, transport)

	cfg.NotifyTransport = "amqp"
	_, err = notificationTransport(cfg, log, nil)
	assert.Error(t, err)
}
