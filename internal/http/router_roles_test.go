package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/docstore"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

// Every admin-only route answers 2xx to an admin, 403 to a plain user and
// 401 without a token.
func TestRegisterRoutes_AdminOnlyRoutes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("roles", func(mt *mtest.T) {
		cfg := testConfig(config.EnvTest)
		db := newTestDB(mt.T)
		tokens := auth.NewTokenService(cfg.JWT)
		ctx := context.Background()

		gin.SetMode(gin.TestMode)
		r := gin.New()
		RegisterRoutes(r, Deps{DB: db, Docs: docstore.New(mt.DB), Tokens: tokens}, cfg)

		token := func(email string, role domain.Role) (string, int64) {
			u, err := repo.CreateUser(ctx, db, email, "x", "Player", role)
			if err != nil {
				mt.Fatalf("seed %s: %v", email, err)
			}
			pair, err := tokens.IssuePair(auth.PrincipalOf(u))
			if err != nil {
				mt.Fatalf("issue %s: %v", email, err)
			}
			return pair.AccessToken, u.ID
		}
		adminTok, adminID := token("admin@playmarket.test", domain.RoleAdmin)
		userTok, _ := token("joueur@playmarket.test", domain.RoleUser)

		g, err := repo.CreateGame(ctx, db, repo.NewGame{Title: "Zelda", Price: decimal.RequireFromString("59.99"), Stock: 3})
		if err != nil {
			mt.Fatalf("seed game: %v", err)
		}

		cursor := func(coll string) func() {
			return func() {
				mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+coll, mtest.FirstBatch))
			}
		}

		cases := []struct {
			method, path, body string
			// mock queues the document store reply consumed by the admin call.
			mock func()
			want int
		}{
			{http.MethodPost, "/api/games", `{"title":"Hades","price":"24.99","stock":1}`, nil, http.StatusCreated},
			{http.MethodPatch, fmt.Sprintf("/api/games/%d/stock", g.ID), `{"stock":7}`, nil, http.StatusOK},
			{http.MethodGet, "/api/orders", "", nil, http.StatusOK},
			{http.MethodGet, "/api/users", "", nil, http.StatusOK},
			{http.MethodGet, fmt.Sprintf("/api/users/%d", adminID), "", nil, http.StatusOK},
			{
				http.MethodPost, "/api/mongo/gamedetails",
				fmt.Sprintf(`{"gameId":%d,"description":"Hyrule"}`, g.ID),
				func() { mt.AddMockResponses(mtest.CreateSuccessResponse()) },
				http.StatusCreated,
			},
			{
				http.MethodPut, fmt.Sprintf("/api/mongo/gamedetails/%d", g.ID), `{"description":"Hyrule remastered"}`,
				func() {
					mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
						{Key: "gameId", Value: g.ID},
						{Key: "description", Value: "Hyrule remastered"},
					}}))
				},
				http.StatusOK,
			},
			{http.MethodGet, "/api/mongo/activity", "", cursor(docstore.CollActivityLogs), http.StatusOK},
			{http.MethodGet, "/api/mongo/recommendations", "", cursor(docstore.CollRecommendations), http.StatusOK},
		}

		for _, tc := range cases {
			route := tc.method + " " + tc.path

			if w := send(r, tc.method, tc.path, "", tc.body); w.Code != http.StatusUnauthorized {
				mt.Fatalf("%s anonymous: got %d; want 401", route, w.Code)
			}
			if w := send(r, tc.method, tc.path, userTok, tc.body); w.Code != http.StatusForbidden {
				mt.Fatalf("%s as user: got %d; want 403", route, w.Code)
			}
			if tc.mock != nil {
				tc.mock()
			}
			if w := send(r, tc.method, tc.path, adminTok, tc.body); w.Code != tc.want {
				mt.Fatalf("%s as admin: got %d; want %d (%s)", route, w.Code, tc.want, w.Body.String())
			}
		}
	})
}
