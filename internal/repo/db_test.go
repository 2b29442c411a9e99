package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpen_SQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := Open(config.DBConfig{
		Driver:          "sqlite",
		Path:            path,
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		fkOn        int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.User{}, &domain.Game{}, &domain.Order{}, &domain.OrderItem{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestPostgresDSN_ConnectTimeout(t *testing.T) {
	cases := []struct {
		name string
		dsn  string
		want string
	}{
		{"url", "postgres://u:p@db:5432/playmarket?sslmode=disable", "connect_timeout=2"},
		{"keyvalue", "host=db user=u dbname=playmarket", "host=db user=u dbname=playmarket connect_timeout=2"},
		{"explicit", "postgres://db/x?connect_timeout=9", "connect_timeout=9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := postgresDSN(config.DBConfig{DSN: tc.dsn, ConnectTimeout: 2 * time.Second})
			if !strings.Contains(got, tc.want) {
				t.Fatalf("postgresDSN(%q) = %q; want to contain %q", tc.dsn, got, tc.want)
			}
		})
	}
}

func TestMySQLDSN_ForcesParseTimeAndTimeout(t *testing.T) {
	got, err := mysqlDSN(config.DBConfig{DSN: "u:p@tcp(db:3306)/playmarket", ConnectTimeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("mysqlDSN: %v", err)
	}
	if !strings.Contains(got, "parseTime=true") || !strings.Contains(got, "timeout=3s") {
		t.Fatalf("unexpected DSN %q", got)
	}
	if _, err := mysqlDSN(config.DBConfig{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
