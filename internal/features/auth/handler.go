package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/internal/features/user"
	"github.com/openlearn/courseware-server/internal/utils/jwt"
	"github.com/openlearn/courseware-server/pkg/config"
	"github.com/openlearn/courseware-server/pkg/response"
)

const (
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
)

type Handler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{db: db, cfg: cfg, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a JWT pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", nil)
		return
	}

	usr, err := user.GetByEmail(h.db, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, ErrInvalidCredentials.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "login failed", err)
		return
	}

	if !usr.CheckPassword(req.Password) {
		response.Error(c, http.StatusUnauthorized, ErrInvalidCredentials.Error(), nil)
		return
	}
	if !usr.Active {
		response.Error(c, http.StatusForbidden, ErrAccountDisabled.Error(), nil)
		return
	}

	accessToken, err := jwt.GenerateAccessToken(usr.ID, h.cfg.JWTSecret, accessTokenExpiry)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "login failed", err)
		return
	}
	refreshToken, err := jwt.GenerateRefreshToken(usr.ID, h.cfg.JWTRefreshSecret, refreshTokenExpiry)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         usr,
	}, "logged in")
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "refresh token is required", nil)
		return
	}

	claims, err := jwt.VerifyToken(req.RefreshToken, h.cfg.JWTRefreshSecret)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	usr, err := user.Get(h.db, claims.UserID)
	if err != nil || !usr.Active {
		response.Error(c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	accessToken, err := jwt.GenerateAccessToken(usr.ID, h.cfg.JWTSecret, accessTokenExpiry)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "token refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"accessToken": accessToken}, "")
}
