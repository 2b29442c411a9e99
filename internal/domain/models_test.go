package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Game{}, &Order{}, &OrderItem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(User{}).TableName():      "users",
		(Game{}).TableName():      "games",
		(Order{}).TableName():     "orders",
		(OrderItem{}).TableName(): "order_items",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_IndexesAndConstraints(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	if !m.HasIndex(&User{}, "ux_users_email") {
		t.Fatalf("expected unique index ux_users_email")
	}
	if !m.HasIndex(&Order{}, "idx_orders_user") {
		t.Fatalf("expected index idx_orders_user")
	}
	// Read-only join columns must not be migrated.
	if m.HasColumn(&Order{}, "email") || m.HasColumn(&OrderItem{}, "title") {
		t.Fatalf("join-only columns should not exist in tables")
	}

	u := User{Email: "a@example.com", PasswordHash: "h", Name: "Alice", Role: RoleUser}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Create(&User{Email: "a@example.com", PasswordHash: "h", Name: "Dup", Role: RoleUser}).Error; err == nil {
		t.Fatalf("expected unique violation on email")
	}
	if err := db.Create(&User{Email: "b@example.com", PasswordHash: "h", Name: "Bad", Role: "root"}).Error; err == nil {
		t.Fatalf("expected role check violation")
	}
	if err := db.Create(&Game{Title: "Neg", Price: decimal.RequireFromString("-1.00")}).Error; err == nil {
		t.Fatalf("expected price check violation")
	}
	if err := db.Create(&Game{Title: "Neg stock", Price: decimal.RequireFromString("1.00"), Stock: -1}).Error; err == nil {
		t.Fatalf("expected stock check violation")
	}

	// Order lines must reference an existing game.
	o := Order{UserID: u.ID, Total: decimal.Zero}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	bad := OrderItem{OrderID: o.ID, GameID: 999, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")}
	if err := db.Create(&bad).Error; err == nil {
		t.Fatalf("expected foreign key violation for unknown game")
	}
}

func TestOrderTotal_DecimalArithmetic(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("59.99")},
		{Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
	}
	got := OrderTotal(items)
	if !got.Equal(decimal.RequireFromString("120.28")) {
		t.Fatalf("OrderTotal = %s; want 120.28", got)
	}
	if !OrderTotal(nil).Equal(decimal.Zero) {
		t.Fatalf("empty total should be zero")
	}
	if got := (OrderItem{Quantity: 2, UnitPrice: decimal.RequireFromString("59.99")}).LineTotal(); got.String() != "119.98" {
		t.Fatalf("LineTotal = %s; want 119.98", got)
	}
}

func TestMoney_JSONShape(t *testing.T) {
	g := Game{ID: 1, Title: "Zelda", Price: decimal.RequireFromString("59.99"), Stock: 3}
	b, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"price":"59.99"`) {
		t.Fatalf("price should serialize as decimal string: %s", b)
	}

	var in OrderItem
	if err := json.Unmarshal([]byte(`{"game_id":1,"quantity":2,"unit_price":59.99}`), &in); err != nil {
		t.Fatalf("unmarshal numeric price: %v", err)
	}
	if !in.UnitPrice.Equal(decimal.RequireFromString("59.99")) {
		t.Fatalf("unit price = %s", in.UnitPrice)
	}
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	b, _ := json.Marshal(User{ID: 1, Email: "a@example.com", PasswordHash: "secret-hash", Name: "A", Role: RoleAdmin})
	if strings.Contains(string(b), "secret-hash") || strings.Contains(string(b), "password") {
		t.Fatalf("password hash leaked: %s", b)
	}
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"user", " admin "} {
		if _, err := ParseRole(in); err != nil {
			t.Fatalf("ParseRole(%q) unexpected error: %v", in, err)
		}
	}
	for _, in := range []string{"", "Admin", "root", "superuser"} {
		if _, err := ParseRole(in); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q) = %v; want ErrInvalidRole", in, err)
		}
	}
	if !RoleAdmin.IsAdmin() || RoleUser.IsAdmin() || Role("x").Valid() {
		t.Fatalf("role helpers unexpected")
	}
}

func TestEnrich_OnlyFoundMergesDetails(t *testing.T) {
	g := Game{ID: 3, Title: "Cyberpunk"}
	d := &GameDetails{GameID: 3, Description: "Night City"}

	if got := Enrich(g, Found(d)); got.Details != d {
		t.Fatalf("found lookup should attach details")
	}
	if got := Enrich(g, NotFound()); got.Details != nil {
		t.Fatalf("not found lookup should return bare row")
	}
	if got := Enrich(g, LookupFailed(errors.New("boom"))); got.Details != nil {
		t.Fatalf("failed lookup should return bare row")
	}
	if Found(nil).Outcome != DetailsNotFound {
		t.Fatalf("Found(nil) should degrade to not found")
	}

	b, _ := json.Marshal(Enrich(g, Found(d)))
	if !strings.Contains(string(b), `"title":"Cyberpunk"`) || !strings.Contains(string(b), `"details":{`) {
		t.Fatalf("enriched JSON should flatten row and nest details: %s", b)
	}
	b, _ = json.Marshal(Enrich(g, NotFound()))
	if strings.Contains(string(b), "details") {
		t.Fatalf("bare row must not carry details: %s", b)
	}
}

func TestLookupOutcome_String(t *testing.T) {
	if DetailsFound.String() != "found" || DetailsNotFound.String() != "not_found" || DetailsLookupFailed.String() != "failed" {
		t.Fatalf("unexpected outcome labels")
	}
}

func TestDetailsPatch_Empty(t *testing.T) {
	if !(DetailsPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
	desc := "x"
	if (DetailsPatch{Description: &desc}).Empty() {
		t.Fatalf("patch with description is not empty")
	}
}
