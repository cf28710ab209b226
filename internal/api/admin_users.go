package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

func (h *Handler) allUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, users)
}

func (h *Handler) updateUserRole(c *gin.Context) {
	self, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Role.Valid() {
		fail(c, http.StatusBadRequest, "Invalid role: "+string(req.Role))
		return
	}
	if id == self && req.Role != models.RoleAdmin {
		fail(c, http.StatusBadRequest, "You can not remove your own admin role")
		return
	}
	if err := h.Users.UpdateRole(c.Request.Context(), id, req.Role); err != nil {
		storeFailure(c, err, "User not found")
		return
	}
	okMessage(c, http.StatusOK, "User role updated", nil)
}

func (h *Handler) deleteUser(c *gin.Context) {
	self, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id == self {
		fail(c, http.StatusBadRequest, "You can not delete your own account")
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		storeFailure(c, err, "User not found")
		return
	}
	okMessage(c, http.StatusOK, "User deleted", nil)
}

// storedRole reports the current role of an account; deleted accounts have
// none.
func (h *Handler) storedRole(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	user, err := h.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
