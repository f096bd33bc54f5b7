package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealgrade/server/internal/geometry"
	"dealgrade/server/internal/models"
)

func (h *Handler) ListBuyers(c *gin.Context) {
	buyers, err := h.store.ListBuyers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to list buyers")
		return
	}
	c.JSON(http.StatusOK, buyers)
}

// CreateBuyer registers a buyer, or replaces it when the ID already exists.
func (h *Handler) CreateBuyer(c *gin.Context) {
	var buyer models.BuyerProfile
	if err := c.ShouldBindJSON(&buyer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if msg := validateBuyer(&buyer); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.store.SaveBuyer(c.Request.Context(), &buyer); err != nil {
		h.respondError(c, err, "Failed to save buyer")
		return
	}

	h.logger.WithField("buyer_id", buyer.ID).Info("Buyer saved")
	c.JSON(http.StatusCreated, buyer)
}

func validateBuyer(b *models.BuyerProfile) string {
	b.Name = strings.TrimSpace(b.Name)
	switch {
	case b.Name == "":
		return "name is required"
	case b.CashAvailable < 0:
		return "cash_available cannot be negative"
	case b.MinPrice != nil && *b.MinPrice < 0, b.MaxPrice != nil && *b.MaxPrice < 0:
		return "price bounds cannot be negative"
	case b.MinPrice != nil && b.MaxPrice != nil && *b.MinPrice > *b.MaxPrice:
		return "min_price is above max_price"
	}
	for _, area := range b.TargetAreas {
		if area.Center == nil && len(area.Perimeter) < 3 {
			return "target area " + area.Name + " needs a center or a perimeter of at least 3 points"
		}
		if area.Center != nil && area.RadiusKm <= 0 {
			return "target area " + area.Name + " needs a positive radius"
		}
	}
	return ""
}

// GetBuyerAreas returns the buyer's target areas as a GeoJSON
// FeatureCollection.
func (h *Handler) GetBuyerAreas(c *gin.Context) {
	buyer, err := h.store.GetBuyer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Buyer")
		return
	}
	c.JSON(http.StatusOK, geometry.TargetAreasFeatureCollection(buyer.TargetAreas))
}

// PutBuyerAreas replaces the buyer's target areas with the features of a
// GeoJSON FeatureCollection.
func (h *Handler) PutBuyerAreas(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	areas, err := geometry.ParseTargetAreas(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	buyer, err := h.store.GetBuyer(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Buyer")
		return
	}
	buyer.TargetAreas = areas
	if msg := validateBuyer(buyer); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := h.store.SaveBuyer(ctx, buyer); err != nil {
		h.respondError(c, err, "Failed to save buyer")
		return
	}

	h.logger.WithFields(logrus.Fields{"buyer_id": buyer.ID, "areas": len(areas)}).Info("Buyer target areas replaced")
	c.JSON(http.StatusOK, buyer)
}
