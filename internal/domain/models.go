// Package domain defines the persistence models of the marketplace: the
// relational rows (users, games, orders, order lines) mapped with GORM and the
// documents (game details, activity logs, recommendations) mapped with bson.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account able to authenticate against the API.
//
// Fields:
//   - ID: database sequence primary key.
//   - Email: unique, stored lower-cased.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Name: display name (2..100 chars).
//   - Role: closed enumeration, see Role.
type User struct {
	ID           int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"          gorm:"column:password_hash;type:varchar(255);not null"`
	Name         string    `json:"name"       gorm:"type:varchar(100);not null"`
	Role         Role      `json:"role"       gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Game is a purchasable catalog row. Price is a fixed two-decimal amount.
type Game struct {
	ID        int64           `json:"id"                  gorm:"primaryKey;autoIncrement"`
	Title     string          `json:"title"               gorm:"type:varchar(255);not null"`
	Price     decimal.Decimal `json:"price"               gorm:"type:numeric(10,2);not null;check:price >= 0"`
	Stock     int             `json:"stock"               gorm:"not null;default:0;check:stock >= 0"`
	ImageURL  *string         `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	Rating    *float64        `json:"rating,omitempty"    gorm:"check:rating IS NULL OR (rating >= 0 AND rating <= 5)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Game.
func (Game) TableName() string { return "games" }

// Order is the header of a purchase. Total is computed server-side from the
// lines and is never accepted from clients.
//
// Email is populated by the reads that join users (single order, admin listing).
type Order struct {
	ID        int64           `json:"id"              gorm:"primaryKey;autoIncrement"`
	UserID    int64           `json:"user_id"         gorm:"not null;index:idx_orders_user"`
	Total     decimal.Decimal `json:"total"           gorm:"type:numeric(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"      gorm:"index"`
	Email     string          `json:"email,omitempty" gorm:"->;-:migration"`
	Items     []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	User *User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. Title is read-only and filled by joins
// on games when an order is fetched.
type OrderItem struct {
	ID        int64           `json:"id"              gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `json:"order_id"        gorm:"not null;index:idx_order_items_order"`
	GameID    int64           `json:"game_id"         gorm:"not null;index"`
	Quantity  int             `json:"quantity"        gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `json:"unit_price"      gorm:"type:numeric(10,2);not null;check:unit_price >= 0"`
	Title     string          `json:"title,omitempty" gorm:"->;-:migration"`

	Game *Game `json:"-" gorm:"foreignKey:GameID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// LineTotal returns quantity × unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums the line totals and rounds to cents.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}
