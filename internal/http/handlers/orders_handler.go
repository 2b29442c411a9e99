// Order HTTP handlers.
//
//   - POST /orders               (Idempotency-Key aware)
//   - GET  /orders               (admin)
//   - GET  /orders/:id           (owner or admin)
//   - GET  /orders/user/:userId  (self or admin)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
	"github.com/LulDrako/playmarket-docker/internal/services"
)

// principal returns the authenticated caller or answers 401.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, found := middleware.PrincipalFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return p, found
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Place an order
// @Description Inserts the order and its lines in one transaction and returns the stored order with game titles. A repeated Idempotency-Key returns the original order with 200.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                     false  "Client-generated key for safe retries"
// @Param       body             body    services.CreateOrderInput  true   "Order"
// @Success     201  {object} domain.Order
// @Success     200  {object} domain.Order "Idempotent replay"
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     403  {object} handlers.ErrorResponse
// @Failure     429  {object} handlers.ErrorResponse
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	var in services.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	o, replayed, err := h.orders.Create(c.Request.Context(), actor, in, key)
	if err != nil {
		writeError(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replay", "true")
		ok(c, http.StatusOK, o)
		return
	}
	ok(c, http.StatusCreated, o)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List every order (admin)
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.Order
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	out, err := h.orders.ListAll(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get one order
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       id   path    int  true  "Order id"
// @Success     200  {object} domain.Order
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     403  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ListUserOrders godoc
// @ID          listUserOrders
// @Summary     List the orders of one user
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path    int  true  "User id"
// @Success     200  {array}  domain.Order
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /orders/user/{userId} [get]
func (h *Handlers) ListUserOrders(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}
	out, err := h.orders.ListByUser(c.Request.Context(), actor, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}
