package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListUsers godoc
// @ID          listUsers
// @Summary     List accounts (admin)
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.User
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	out, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get one account (admin)
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       id   path    int  true  "User id"
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
