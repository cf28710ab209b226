package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

type registerRequest struct {
	UserName string `json:"userName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userView(u *models.User) gin.H {
	return gin.H{"id": u.ID.Hex(), "email": u.Email, "userName": u.UserName, "role": u.Role}
}

// rateLimit throttles the auth endpoints per client address.
func (h *Handler) rateLimit(c *gin.Context) {
	if !h.Cache.Allow(c.Request.Context(), "auth:"+c.ClientIP()) {
		slog.Warn("rate limit exceeded", "ip", c.ClientIP(), "path", c.FullPath())
		fail(c, http.StatusTooManyRequests, "Too many requests, please try again later")
		return
	}
	c.Next()
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	user := &models.User{
		UserName: strings.TrimSpace(req.UserName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashed,
		Role:     models.RoleUser,
	}
	if err := h.Users.Insert(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(c, http.StatusConflict, "User Already exists with the same email! Please try again")
			return
		}
		storeFailure(c, err, "")
		return
	}
	okMessage(c, http.StatusCreated, "Registration successful", userView(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusUnauthorized, "User doesn't exists! Please register first")
			return
		}
		storeFailure(c, err, "")
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		fail(c, http.StatusUnauthorized, "Incorrect password! Please try again")
		return
	}

	token, err := h.Issuer.Issue(user)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.Issuer.TTL().Seconds()), "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"token":   token,
		"user":    userView(user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.CookieSecure, true)
	okMessage(c, http.StatusOK, "Logged out successfully!", nil)
}

func (h *Handler) checkAuth(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorised user!")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Authenticated user!",
		"user": gin.H{
			"id":       claims.UserID,
			"email":    claims.Email,
			"userName": claims.UserName,
			"role":     claims.Role,
		},
	})
}
