// Package handlers maps HTTP requests to typed service calls. No business
// logic lives here: parameter parsing in, envelope formatting out.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spots/internal/domain/entities"
	"spots/internal/geo"
	"spots/internal/services"
	"spots/internal/store"
)

type SpotHandler struct {
	spotService *services.SpotService
}

func NewSpotHandler(spotService *services.SpotService) *SpotHandler {
	return &SpotHandler{spotService: spotService}
}

type SaveSpotRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Continent   string  `json:"continent" binding:"required"`
	Country     string  `json:"country" binding:"required"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Save handles POST /spots: create when no id is given, full overwrite
// otherwise.
func (h *SpotHandler) Save(c *gin.Context) {
	var req SaveSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot := &entities.Spot{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Continent:   req.Continent,
		Country:     req.Country,
		Position:    entities.NewPosition(req.Lat, req.Lon),
	}

	id, err := h.spotService.Save(c.Request.Context(), spot)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Get handles GET /spots/:id.
func (h *SpotHandler) Get(c *gin.Context) {
	spot, err := h.spotService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if spot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "spot not found"})
		return
	}
	c.JSON(http.StatusOK, spot)
}

// List handles GET /spots. Backed by a full table scan; not a production
// query pattern.
func (h *SpotHandler) List(c *gin.Context) {
	allSpots, err := h.spotService.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spots": allSpots, "count": len(allSpots)})
}

type SearchSpotsRequest struct {
	Continent    string   `form:"continent" binding:"required"`
	Country      string   `form:"country"`
	Lat          *float64 `form:"lat"`
	Lon          *float64 `form:"lon"`
	RadiusMeters *float64 `form:"radius"`
}

func (r *SearchSpotsRequest) radial() bool {
	return r.Lat != nil || r.Lon != nil || r.RadiusMeters != nil
}

// Search handles GET /spots/search. Continent is always required; with
// lat/lon/radius it is a radius search, with a country it filters by
// country, otherwise it lists the continent. The radius parameters come as
// a full triple or not at all; a partial triple is rejected rather than
// silently falling through to a region listing.
func (h *SpotHandler) Search(c *gin.Context) {
	var req SearchSpotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	switch {
	case req.radial():
		if req.Lat == nil || req.Lon == nil || req.RadiusMeters == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lon and radius must be provided together"})
			return
		}
		center := entities.NewPosition(*req.Lat, *req.Lon)
		results, err := h.spotService.FindInRadius(ctx, req.Continent, center, *req.RadiusMeters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})

	case req.Country != "":
		found, err := h.spotService.FindByCountry(ctx, req.Continent, req.Country)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"spots": found, "count": len(found)})

	default:
		found, err := h.spotService.FindByContinent(ctx, req.Continent)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"spots": found, "count": len(found)})
	}
}

// Delete handles DELETE /spots/:id. Deleting an absent spot still answers
// 204.
func (h *SpotHandler) Delete(c *gin.Context) {
	spot := &entities.Spot{ID: c.Param("id")}
	if err := h.spotService.Delete(c.Request.Context(), spot); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps the service error taxonomy to HTTP statuses. Errors
// surface unmodified from the engine; only the status mapping happens here.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStoreUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
