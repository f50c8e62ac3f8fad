// Package api wires the HTTP surface. Request routing and response
// serialization live here as a thin layer over the services; retry policy
// and deadlines are likewise the HTTP layer's business, not the engine's.
package api

import (
	"github.com/gin-gonic/gin"

	"spots/internal/api/handlers"
)

type Router struct {
	spotHandler     *handlers.SpotHandler
	favoriteHandler *handlers.FavoriteHandler
	userHandler     *handlers.UserHandler
}

func NewRouter(
	spotHandler *handlers.SpotHandler,
	favoriteHandler *handlers.FavoriteHandler,
	userHandler *handlers.UserHandler,
) *Router {
	return &Router{
		spotHandler:     spotHandler,
		favoriteHandler: favoriteHandler,
		userHandler:     userHandler,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	spots := engine.Group("/spots")
	{
		spots.POST("", r.spotHandler.Save)
		spots.GET("", r.spotHandler.List)
		spots.GET("/search", r.spotHandler.Search)
		spots.GET("/:id", r.spotHandler.Get)
		spots.DELETE("/:id", r.spotHandler.Delete)
	}

	favorites := engine.Group("/favorites")
	{
		favorites.PUT("", r.favoriteHandler.Save)
		favorites.DELETE("", r.favoriteHandler.Delete)
		favorites.GET("/:username", r.favoriteHandler.ListByUser)
	}

	users := engine.Group("/users")
	{
		users.POST("", r.userHandler.Save)
		users.GET("/:username", r.userHandler.Get)
	}
}
