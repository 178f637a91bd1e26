package handlers

import (
	"net/http"

	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"s3cr3t-pw"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"s3cr3t-pw"`
}

// @Summary      Register
// @Description  Creates an account with the default role. Any role in the body is ignored.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account"
// @Success      201   {object}  map[string]interface{}  "message, id"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		h.respondError(c, "auth_register_failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": id})
}

// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}  "message, token, expires_at, user"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, "auth_login_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "login successful",
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user": gin.H{
			"id":       res.User.ID,
			"username": res.User.Username,
			"role":     res.User.Role,
		},
	})
}
