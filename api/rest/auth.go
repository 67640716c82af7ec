package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/my2dworld/config"
	"github.com/kasuganosora/my2dworld/model"
	"github.com/kasuganosora/my2dworld/store"
	"go.uber.org/zap"
)

// Registrar creates user accounts.
type Registrar interface {
	CreateUser(ctx context.Context, username, password string, cost int) (*model.User, error)
}

// AuthHandler handles account REST endpoints. Logging in happens on the
// WebSocket with the authenticate message.
type AuthHandler struct {
	users  Registrar
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users Registrar, sec config.SecurityConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, sec: sec, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.CreateUser(ctx, req.Username, req.Password, h.sec.BcryptCost)
	if errors.Is(err, store.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		h.logger.Error("register failed", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	c.JSON(http.StatusCreated, gin.H{"user_id": u.ID, "username": u.Username})
}
