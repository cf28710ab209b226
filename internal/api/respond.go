package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/store"
)

const msgServerError = "Some error occured"

func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func okMessage(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// storeFailure answers a repository error: 404 with notFound for missing
// documents, 500 otherwise.
func storeFailure(c *gin.Context, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, notFound)
		return
	}
	_ = c.Error(err)
	slog.Error("store operation failed", "path", c.FullPath(), "error", err)
	fail(c, http.StatusInternalServerError, msgServerError)
}

func parseID(c *gin.Context, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid id: "+raw)
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	return parseID(c, c.Param(name))
}

func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := auth.CurrentUserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorised user!")
	}
	return id, ok
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return false
	}
	return true
}
