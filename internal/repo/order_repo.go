package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// CreateOrder inserts the order header and then each line. It performs no
// transaction management of its own; pass a transaction handle to make the
// writes atomic.
func CreateOrder(ctx context.Context, db *gorm.DB, userID int64, total decimal.Decimal, items []domain.OrderItem) (*domain.Order, error) {
	o := &domain.Order{
		UserID:    userID,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	// Lines are inserted explicitly below; skip association saving.
	if err := db.WithContext(ctx).Omit("Items", "User").Create(o).Error; err != nil {
		return nil, err
	}
	for i := range items {
		it := items[i]
		it.ID = 0
		it.OrderID = o.ID
		if err := db.WithContext(ctx).Omit("Game").Create(&it).Error; err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return o, nil
}

// GetOrder fetches an order with the owner's email and its lines, each
// joined to the game title.
func GetOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id, o.user_id, o.total, o.created_at, u.email AS email").
		Joins("LEFT JOIN users u ON u.id = o.user_id").
		Where("o.id = ?", id).
		Take(&o).Error
	if err != nil {
		return nil, err
	}
	items, err := orderItems(ctx, db, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func orderItems(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.id, oi.order_id, oi.game_id, oi.quantity, oi.unit_price, g.title AS title").
		Joins("LEFT JOIN games g ON g.id = oi.game_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id asc").
		Scan(&items).Error
	return items, err
}

// ListOrders returns every order, newest first, with the owner's email.
func ListOrders(ctx context.Context, db *gorm.DB) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id, o.user_id, o.total, o.created_at, u.email AS email").
		Joins("JOIN users u ON u.id = o.user_id").
		Order("o.created_at desc, o.id desc").
		Scan(&out).Error
	return out, err
}

// ListOrdersByUser returns a user's orders, newest first, without lines.
func ListOrdersByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}
