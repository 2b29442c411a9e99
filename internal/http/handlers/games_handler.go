// Catalog HTTP handlers.
//
//   - GET   /games             (list, enriched, weak ETag)
//   - GET   /games/search      (?q=&limit=)
//   - GET   /games/:id
//   - POST  /games             (admin)
//   - PATCH /games/:id/stock   (admin)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/services"
	"github.com/LulDrako/playmarket-docker/internal/utils"
)

// ListGames godoc
// @ID          listGames
// @Summary     List the catalog
// @Description Returns every game ordered by id, merged with its details document when one exists. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Games
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}  domain.CatalogGame
// @Header      200  {string} ETag "Weak ETag for current catalog"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /games [get]
func (h *Handlers) ListGames(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if etag, err := h.catalog.ETag(ctx); err == nil {
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	games, err := h.catalog.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, games)
}

// SearchGames godoc
// @ID          searchGames
// @Summary     Search the catalog
// @Description Ranks games by title, description and tags. Common abbreviations (gta, rdr, lol, gow) are expanded.
// @Tags        Games
// @Produce     json
// @Param       q      query  string  true   "Search text"
// @Param       limit  query  int     false  "Max results"  minimum(1) maximum(20) default(5)
// @Success     200  {array}  domain.CatalogGame
// @Failure     400  {object} handlers.ErrorResponse
// @Router      /games/search [get]
func (h *Handlers) SearchGames(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultSearchLimit)
	out, err := h.catalog.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetGame godoc
// @ID          getGame
// @Summary     Get one game
// @Tags        Games
// @Produce     json
// @Param       id   path    int  true  "Game id"
// @Success     200  {object} domain.CatalogGame
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /games/{id} [get]
func (h *Handlers) GetGame(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	g, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}

// CreateGame godoc
// @ID          createGame
// @Summary     Add a game (admin)
// @Tags        Games
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body     services.CreateGameInput  true  "Game"
// @Success     201   {object} domain.Game
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     401   {object} handlers.ErrorResponse
// @Failure     403   {object} handlers.ErrorResponse
// @Router      /games [post]
func (h *Handlers) CreateGame(c *gin.Context) {
	var in services.CreateGameInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, g)
}

// UpdateStock godoc
// @ID          updateGameStock
// @Summary     Set the stock of a game (admin)
// @Tags        Games
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path     int                   true  "Game id"
// @Param       body  body     services.StockInput   true  "Stock"
// @Success     200   {object} domain.Game
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     404   {object} handlers.ErrorResponse
// @Router      /games/{id}/stock [patch]
func (h *Handlers) UpdateStock(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in services.StockInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.catalog.UpdateStock(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}
