package client

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/primecode/internal/config"
	"github.com/yukikurage/primecode/internal/database"
	"github.com/yukikurage/primecode/internal/logger"
	"github.com/yukikurage/primecode/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer serves the real API over an in-memory database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AppEnv:         "test",
		JWTSecret:      "client-test-secret",
		JWTTTL:         time.Hour,
		DBDriver:       "sqlite",
		BodyLimitBytes: 1 << 20,
	}
	srv := httptest.NewServer(router.New(router.Deps{Config: cfg, DB: db, Log: logger.Discard()}))
	t.Cleanup(func() {
		srv.Close()
		sqlDB.Close()
	})
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL+"/api", 5*time.Second)
}

func newTestStore(t *testing.T) *SQLiteTokenStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	store, err := NewSQLiteTokenStore(context.Background(), db)
	require.NoError(t, err)
	return store
}
