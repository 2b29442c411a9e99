package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/services"
)

type orderFixture struct {
	db     *gorm.DB
	r      *gin.Engine
	player *auth.Claims
	other  *auth.Claims
	admin  *auth.Claims
	zelda  *domain.Game
	tetris *domain.Game
}

// newOrderFixture wires the real OrderService over SQLite behind the same
// per-route middleware the router installs.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := newTestDB(t)
	f := &orderFixture{
		db:     db,
		player: seedUser(t, db, "player@example.com", domain.RoleUser),
		other:  seedUser(t, db, "other@example.com", domain.RoleUser),
		admin:  seedUser(t, db, "admin@example.com", domain.RoleAdmin),
	}
	var err error
	ctx := context.Background()
	if f.zelda, err = repo.CreateGame(ctx, db, repo.NewGame{Title: "Zelda", Price: decimal.RequireFromString("59.99"), Stock: 5}); err != nil {
		t.Fatalf("seed game: %v", err)
	}
	if f.tetris, err = repo.CreateGame(ctx, db, repo.NewGame{Title: "Tetris", Price: decimal.RequireFromString("0.10"), Stock: 5}); err != nil {
		t.Fatalf("seed game: %v", err)
	}

	svc := &services.OrderService{DB: db, IdempotencyTTL: time.Hour}
	h := New(Services{Orders: svc})
	authn := middleware.Authenticate(stubVerifier{"player": f.player, "other": f.other, "admin": f.admin})
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: repo.IdempotencyScopeOrders},
		func(ctx context.Context, userID int64, _, key string, _ time.Time) (bool, error) {
			return svc.Replayed(ctx, userID, key)
		})

	r := newEngine()
	r.POST("/orders", authn, idem, h.CreateOrder)
	r.GET("/orders", authn, h.ListOrders)
	r.GET("/orders/:id", authn, h.GetOrder)
	r.GET("/orders/user/:userId", authn, h.ListUserOrders)
	f.r = r
	return f
}

func (f *orderFixture) body() string {
	return fmt.Sprintf(`{"items":[{"game_id":%d,"quantity":2,"unit_price":"59.99"},{"game_id":%d,"quantity":3,"unit_price":0.10}]}`,
		f.zelda.ID, f.tetris.ID)
}

func (f *orderFixture) post(token, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) domain.Order {
	t.Helper()
	var o domain.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return o
}

func TestCreateOrder_DecimalTotalAndTitles(t *testing.T) {
	f := newOrderFixture(t)

	w := f.post("player", f.body(), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":"120.28"`) {
		t.Fatalf("total should be the decimal string 120.28: %s", w.Body.String())
	}
	o := decodeOrder(t, w)
	if o.UserID != f.player.UserID || len(o.Items) != 2 || o.Items[0].Title != "Zelda" || o.Items[1].Title != "Tetris" {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newOrderFixture(t)

	if w := f.post("", f.body(), ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status=%d", w.Code)
	}
	if w := f.post("player", `{"items":[]}`, ""); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), ErrCodeValidation) {
		t.Fatalf("empty items: status=%d body=%s", w.Code, w.Body.String())
	}
	onBehalf := fmt.Sprintf(`{"user_id":%d,"items":[{"game_id":%d,"quantity":1,"unit_price":"1.00"}]}`, f.other.UserID, f.zelda.ID)
	if w := f.post("player", onBehalf, ""); w.Code != http.StatusForbidden {
		t.Fatalf("on behalf as user: status=%d", w.Code)
	}
	if w := f.post("admin", onBehalf, ""); w.Code != http.StatusCreated {
		t.Fatalf("on behalf as admin: status=%d body=%s", w.Code, w.Body.String())
	}

	unknown := `{"items":[{"game_id":999,"quantity":1,"unit_price":"1.00"}]}`
	w := f.post("player", unknown, "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), ErrCodeInvalidReference) {
		t.Fatalf("unknown game: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := f.post("player", f.body(), "not a valid key!"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad idempotency key: status=%d", w.Code)
	}
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	f := newOrderFixture(t)

	first := f.post("player", f.body(), "order-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("first: status=%d body=%s", first.Code, first.Body.String())
	}
	second := f.post("player", f.body(), "order-1")
	if second.Code != http.StatusOK || second.Header().Get("Idempotent-Replay") != "true" {
		t.Fatalf("replay: status=%d headers=%v", second.Code, second.Header())
	}
	if decodeOrder(t, first).ID != decodeOrder(t, second).ID {
		t.Fatalf("replay should return the original order")
	}

	var n int64
	f.db.Model(&domain.Order{}).Count(&n)
	if n != 1 {
		t.Fatalf("replay must not insert; orders=%d", n)
	}

	// Keys are scoped per caller.
	if w := f.post("other", f.body(), "order-1"); w.Code != http.StatusCreated {
		t.Fatalf("other user same key: status=%d", w.Code)
	}
}

func TestOrderReads_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	o := decodeOrder(t, f.post("player", f.body(), ""))
	path := fmt.Sprintf("/orders/%d", o.ID)

	if w := do(f.r, http.MethodGet, path, "player", ""); w.Code != http.StatusOK {
		t.Fatalf("owner: status=%d", w.Code)
	}
	if w := do(f.r, http.MethodGet, path, "other", ""); w.Code != http.StatusForbidden {
		t.Fatalf("stranger: status=%d", w.Code)
	}
	if w := do(f.r, http.MethodGet, path, "admin", ""); w.Code != http.StatusOK {
		t.Fatalf("admin: status=%d", w.Code)
	}
	if w := do(f.r, http.MethodGet, "/orders/424242", "admin", ""); w.Code != http.StatusNotFound {
		t.Fatalf("absent: status=%d", w.Code)
	}
	if w := do(f.r, http.MethodGet, "/orders/abc", "admin", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", w.Code)
	}

	if w := do(f.r, http.MethodGet, "/orders", "player", ""); w.Code != http.StatusForbidden {
		t.Fatalf("list all as user: status=%d", w.Code)
	}
	w := do(f.r, http.MethodGet, "/orders", "admin", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "player@example.com") {
		t.Fatalf("list all as admin: status=%d body=%s", w.Code, w.Body.String())
	}

	mine := fmt.Sprintf("/orders/user/%d", f.player.UserID)
	if w := do(f.r, http.MethodGet, mine, "player", ""); w.Code != http.StatusOK {
		t.Fatalf("own list: status=%d", w.Code)
	}
	if w := do(f.r, http.MethodGet, mine, "other", ""); w.Code != http.StatusForbidden {
		t.Fatalf("someone else's list: status=%d", w.Code)
	}
}
