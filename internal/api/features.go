package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/models"
)

type featureRequest struct {
	Image string `json:"image" binding:"required,url"`
}

func (h *Handler) addFeatureImage(c *gin.Context) {
	var req featureRequest
	if !bindJSON(c, &req) {
		return
	}
	img := &models.FeatureImage{Image: req.Image}
	if err := h.Features.Insert(c.Request.Context(), img); err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusCreated, img)
}

func (h *Handler) featureImages(c *gin.Context) {
	imgs, err := h.Features.List(c.Request.Context())
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, imgs)
}

func (h *Handler) deleteFeatureImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Features.Delete(c.Request.Context(), id); err != nil {
		storeFailure(c, err, "Feature image not found")
		return
	}
	okMessage(c, http.StatusOK, "Feature image deleted", nil)
}
