package repo

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func newSchemaDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "hash", Name: "Player", Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func seedGame(t *testing.T, db *gorm.DB, title, price string, stock int) *domain.Game {
	t.Helper()
	g := &domain.Game{Title: title, Price: decimal.RequireFromString(price), Stock: stock}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("seed game %s: %v", title, err)
	}
	return g
}
