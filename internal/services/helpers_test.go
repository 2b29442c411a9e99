package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/events"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
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

func seedUser(t *testing.T, db *gorm.DB, email string, role domain.Role) auth.Principal {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, email, "hash", "Player", role)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return auth.PrincipalOf(u)
}

func seedGame(t *testing.T, db *gorm.DB, title, price string) *domain.Game {
	t.Helper()
	g, err := repo.CreateGame(context.Background(), db, repo.NewGame{Title: title, Price: decimal.RequireFromString(price), Stock: 10})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	return g
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

// userRepoShim forwards to the repo package.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, email, hash, name string, role domain.Role) (*domain.User, error) {
	return repo.CreateUser(ctx, db, email, hash, name, role)
}

func (userRepoShim) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.FindUserByEmail(ctx, db, email)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderCreated
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, evt events.OrderCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
