package app_test

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bulk-buddy-api/app"
	"bulk-buddy-api/config"
	"bulk-buddy-api/events"
	"bulk-buddy-api/middleware"
	"bulk-buddy-api/models"
	"bulk-buddy-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, cfg config.Config) (*app.App, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	a, err := app.NewWithConfig(cfg, slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, &logs
}

func TestNewMigratesSchema(t *testing.T) {
	a, _ := newApp(t, testutil.Config())

	for _, table := range []string{"users", "trips", "items", "orders", "order_items", "driver_applications"} {
		assert.True(t, a.DB.Migrator().HasTable(table), table)
	}
	assert.IsType(t, &events.LogPublisher{}, a.Publisher)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testutil.Config()
	cfg.DatabaseDriver = "oracle"
	_, err := app.NewWithConfig(cfg, nil)
	assert.Error(t, err)

	_, err = app.New(nil, config.WithDatabaseURL(""))
	assert.Error(t, err)
}

func TestNewAppliesOverrides(t *testing.T) {
	a, err := app.New(nil,
		config.WithDatabaseDriver(config.DriverSQLite),
		config.WithDatabaseURL("file::memory:"),
		config.WithGinMode("test"),
		config.WithJWTSecret("override-secret"),
		config.WithPort(9099),
	)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 9099, a.Config.Port)
	assert.Equal(t, []byte("override-secret"), a.Config.JWTSecret)
	assert.True(t, a.DB.Migrator().HasTable("driver_applications"))
}

func TestNewUsesKafkaWhenBrokersSet(t *testing.T) {
	cfg := testutil.Config()
	cfg.KafkaBrokers = []string{"localhost:9092"}
	a, _ := newApp(t, cfg)
	assert.IsType(t, &events.KafkaPublisher{}, a.Publisher)
}

func TestRouterMiddleware(t *testing.T) {
	a, logs := newApp(t, testutil.Config())

	req := httptest.NewRequest(http.MethodOptions, "/api/trips", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = testutil.DoJSON(t, a.Router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, logs.String(), `"path":"/health"`)
}

func TestEndToEndClaim(t *testing.T) {
	a, logs := newApp(t, testutil.Config())
	driver := testutil.CreateUser(t, a.DB, models.RoleDriver)
	shopper := testutil.CreateUser(t, a.DB, models.RoleShopper)
	trip := testutil.CreateTrip(t, a.DB, driver, 2)

	w := testutil.DoJSON(t, a.Router, http.MethodPost, "/api/orders", testutil.Token(t, shopper), map[string]interface{}{
		"trip_id": trip.ID,
		"items":   []map[string]interface{}{{"item_id": trip.Items[0].ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, logs.String(), string(events.OrderPlaced))

	w = testutil.DoJSON(t, a.Router, http.MethodPost, "/api/orders", testutil.Token(t, shopper), map[string]interface{}{
		"trip_id": trip.ID,
		"items":   []map[string]interface{}{{"item_id": trip.Items[0].ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testutil.Config()
	cfg.Port = freePort(t)
	a, _ := newApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1" + cfg.Addr() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
