package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/models"
)

type addressRequest struct {
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Notes   string `json:"notes"`
}

func (r addressRequest) apply(addr *models.Address) {
	addr.Address = strings.TrimSpace(r.Address)
	addr.City = strings.TrimSpace(r.City)
	addr.Pincode = strings.TrimSpace(r.Pincode)
	addr.Phone = strings.TrimSpace(r.Phone)
	addr.Notes = strings.TrimSpace(r.Notes)
}

func (h *Handler) addAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}
	addr := &models.Address{UserID: userID}
	req.apply(addr)
	if err := h.Addresses.Insert(c.Request.Context(), addr); err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusCreated, addr)
}

func (h *Handler) fetchAddresses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	addrs, err := h.Addresses.ListByUser(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, addrs)
}

func (h *Handler) editAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "addressId")
	if !ok {
		return
	}
	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}
	addr := &models.Address{ID: id, UserID: userID}
	req.apply(addr)
	if err := h.Addresses.Update(c.Request.Context(), addr); err != nil {
		storeFailure(c, err, "Address not found")
		return
	}
	success(c, http.StatusOK, addr)
}

func (h *Handler) deleteAddress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "addressId")
	if !ok {
		return
	}
	if err := h.Addresses.Delete(c.Request.Context(), userID, id); err != nil {
		storeFailure(c, err, "Address not found")
		return
	}
	okMessage(c, http.StatusOK, "Address deleted successfully", nil)
}
