package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealgrade/server/internal/models"
)

// ListMarkets returns all stored market snapshots
func (h *Handler) ListMarkets(c *gin.Context) {
	snaps, err := h.store.ListMarketSnapshots(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to list market snapshots")
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// GetMarket returns the city snapshot, or the statewide one when the city has
// none. Without a city parameter only the statewide snapshot is considered.
func (h *Handler) GetMarket(c *gin.Context) {
	snap, err := h.store.GetMarketSnapshot(c.Request.Context(), c.Param("state"), c.Param("city"))
	if err != nil {
		h.respondError(c, err, "Market snapshot")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// PutMarket replaces the snapshot for the state and city in the path
func (h *Handler) PutMarket(c *gin.Context) {
	var snap models.MarketSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	snap.State = c.Param("state")
	snap.City = c.Param("city")

	if msg := validateSnapshot(snap); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.store.SaveMarketSnapshot(c.Request.Context(), snap); err != nil {
		h.respondError(c, err, "Failed to save market snapshot")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func validateSnapshot(s models.MarketSnapshot) string {
	switch {
	case s.MedianPrice != nil && *s.MedianPrice <= 0:
		return "median_price must be positive"
	case s.RentPerSqft != nil && *s.RentPerSqft < 0:
		return "rent_per_sqft cannot be negative"
	case s.TaxRate != nil && *s.TaxRate < 0:
		return "tax_rate cannot be negative"
	case s.InventoryMonths != nil && *s.InventoryMonths < 0:
		return "inventory_months cannot be negative"
	case s.DaysOnMarket != nil && *s.DaysOnMarket < 0:
		return "days_on_market cannot be negative"
	}
	return ""
}
