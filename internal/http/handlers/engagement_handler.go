// Document store HTTP handlers, mounted under /mongo.
//
//   - GET  /gamedetails, GET /gamedetails/:gameId
//   - POST /gamedetails, PUT /gamedetails/:gameId          (admin)
//   - POST /activity, GET /activity (admin), GET /activity/:userId
//   - GET  /recommendations (admin)
//   - GET  /recommendations/:userId, PUT /recommendations/:userId
//
// Ownership rules (self or admin) are enforced by the service.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/services"
)

// ListGameDetails godoc
// @ID          listGameDetails
// @Summary     List game details documents
// @Tags        Documents
// @Produce     json
// @Success     200  {array}  domain.GameDetails
// @Router      /mongo/gamedetails [get]
func (h *Handlers) ListGameDetails(c *gin.Context) {
	out, err := h.engagement.ListDetails(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetGameDetails godoc
// @ID          getGameDetails
// @Summary     Get the details document of a game
// @Tags        Documents
// @Produce     json
// @Param       gameId  path    int  true  "Game id"
// @Success     200  {object} domain.GameDetails
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /mongo/gamedetails/{gameId} [get]
func (h *Handlers) GetGameDetails(c *gin.Context) {
	gameID, valid := pathID(c, "gameId")
	if !valid {
		return
	}
	d, err := h.engagement.GetDetails(c.Request.Context(), gameID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// CreateGameDetails godoc
// @ID          createGameDetails
// @Summary     Create a details document (admin)
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body     services.CreateDetailsInput  true  "Details"
// @Success     201   {object} domain.GameDetails
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     409   {object} handlers.ErrorResponse "A document already exists for gameId"
// @Router      /mongo/gamedetails [post]
func (h *Handlers) CreateGameDetails(c *gin.Context) {
	var in services.CreateDetailsInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.engagement.CreateDetails(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// UpdateGameDetails godoc
// @ID          updateGameDetails
// @Summary     Update a details document (admin)
// @Description Partial update of description, tags and videos; updatedAt is refreshed.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       gameId  path     int                          true  "Game id"
// @Param       body    body     services.UpdateDetailsInput  true  "Patch"
// @Success     200     {object} domain.GameDetails
// @Failure     400     {object} handlers.ErrorResponse
// @Failure     404     {object} handlers.ErrorResponse
// @Router      /mongo/gamedetails/{gameId} [put]
func (h *Handlers) UpdateGameDetails(c *gin.Context) {
	gameID, valid := pathID(c, "gameId")
	if !valid {
		return
	}
	var in services.UpdateDetailsInput
	if !bindJSON(c, &in) {
		return
	}
	d, err := h.engagement.UpdateDetails(c.Request.Context(), gameID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// RecordActivity godoc
// @ID          recordActivity
// @Summary     Append an activity event
// @Description userId defaults to the caller; only admins may record for someone else.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body     services.ActivityInput  true  "Event"
// @Success     201   {object} domain.ActivityLog
// @Failure     400   {object} handlers.ErrorResponse
// @Failure     403   {object} handlers.ErrorResponse
// @Router      /mongo/activity [post]
func (h *Handlers) RecordActivity(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	var in services.ActivityInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.engagement.RecordActivity(c.Request.Context(), actor, in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListActivity godoc
// @ID          listActivity
// @Summary     List all activity, newest first (admin)
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.ActivityLog
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /mongo/activity [get]
func (h *Handlers) ListActivity(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	out, err := h.engagement.ListActivity(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListUserActivity godoc
// @ID          listUserActivity
// @Summary     List the activity of one user, newest first
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path    int  true  "User id"
// @Success     200  {array}  domain.ActivityLog
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /mongo/activity/{userId} [get]
func (h *Handlers) ListUserActivity(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}
	out, err := h.engagement.ListUserActivity(c.Request.Context(), actor, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListRecommendations godoc
// @ID          listRecommendations
// @Summary     List every recommendation document (admin)
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.Recommendation
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /mongo/recommendations [get]
func (h *Handlers) ListRecommendations(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	out, err := h.engagement.ListRecommendations(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetRecommendation godoc
// @ID          getRecommendation
// @Summary     Get the recommendations of one user
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path    int  true  "User id"
// @Success     200  {object} domain.Recommendation
// @Failure     403  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /mongo/recommendations/{userId} [get]
func (h *Handlers) GetRecommendation(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}
	r, err := h.engagement.GetRecommendation(c.Request.Context(), actor, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ReplaceRecommendation godoc
// @ID          replaceRecommendation
// @Summary     Replace the recommendations of one user
// @Description Full replace with upsert; generatedAt is refreshed.
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       userId  path     int                            true  "User id"
// @Param       body    body     services.RecommendationsInput  true  "Items"
// @Success     200     {object} domain.Recommendation
// @Failure     400     {object} handlers.ErrorResponse
// @Failure     403     {object} handlers.ErrorResponse
// @Router      /mongo/recommendations/{userId} [put]
func (h *Handlers) ReplaceRecommendation(c *gin.Context) {
	actor, found := principal(c)
	if !found {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}
	var in services.RecommendationsInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.engagement.ReplaceRecommendation(c.Request.Context(), actor, userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
