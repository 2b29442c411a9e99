package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

// ---------- auth stubs ----------

type stubVerifier map[string]*auth.Claims

func (s stubVerifier) VerifyAccess(raw string) (*auth.Claims, error) {
	if c, ok := s[raw]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidToken
}

func claimsFor(id int64, role domain.Role) *auth.Claims {
	return &auth.Claims{UserID: id, Email: fmt.Sprintf("u%d@example.com", id), Role: role, Type: auth.TypeAccess}
}

// ---------- request helpers ----------

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------- test DB ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role domain.Role) *auth.Claims {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, email, "hash", "Player", role)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &auth.Claims{UserID: u.ID, Email: u.Email, Role: u.Role, Type: auth.TypeAccess}
}
