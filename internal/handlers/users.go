package handlers

import (
	"net/http"

	"secure_blog/internal/models"
	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

// userUpdateRequest is a partial update; omitted fields stay unchanged.
type userUpdateRequest struct {
	Username *string      `json:"username,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.UserProfile
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.Users.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, "users_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.UserProfile
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
// @Security     BearerAuth
func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.services.Users.Get(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.respondError(c, "user_get_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Update user
// @Description  Self or admin. Only an admin may grant a non-default role.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User ID"
// @Param        body  body      userUpdateRequest  true  "Fields to change"
// @Success      200   {object}  map[string]interface{}  "message, user"
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input userUpdateRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	u, err := h.services.Users.Update(c.Request.Context(), identityFrom(c), id, service.UserUpdate{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		h.respondError(c, "user_update_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated", "user": u})
}

// @Summary      Delete user
// @Description  Admin only. Removes the user's articles and comments too.
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Users.Delete(c.Request.Context(), identityFrom(c), id); err != nil {
		h.respondError(c, "user_delete_failed", err, "user_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
