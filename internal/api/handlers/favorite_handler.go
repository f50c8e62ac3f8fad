package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spots/internal/domain/entities"
	"spots/internal/services"
)

type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

type FavoriteRequest struct {
	Username string `json:"username" binding:"required"`
	SpotID   string `json:"spot_id" binding:"required"`
}

// Save handles PUT /favorites.
func (h *FavoriteHandler) Save(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	favorite := &entities.Favorite{Username: req.Username, SpotID: req.SpotID}
	if _, err := h.favoriteService.Save(c.Request.Context(), favorite); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, favorite)
}

// ListByUser handles GET /favorites/:username.
func (h *FavoriteHandler) ListByUser(c *gin.Context) {
	favorites, err := h.favoriteService.FindByUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

// Delete handles DELETE /favorites; removing an absent favorite is a no-op.
func (h *FavoriteHandler) Delete(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	favorite := &entities.Favorite{Username: req.Username, SpotID: req.SpotID}
	if err := h.favoriteService.Delete(c.Request.Context(), favorite); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
