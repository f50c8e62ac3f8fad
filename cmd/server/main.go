package main

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"spots/internal/api"
	"spots/internal/api/handlers"
	"spots/internal/config"
	"spots/internal/services"
	"spots/internal/store"
	"spots/internal/store/dynamo"
	"spots/internal/store/memory"
	"spots/internal/store/redis"
)

func main() {
	cfg := config.Load()

	backend, err := newBackend(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.Store.Driver, err)
	}

	spotService := services.NewSpotService(backend, cfg)
	favoriteService := services.NewFavoriteService(backend, cfg.Store.PageSize)
	userService := services.NewUserService(backend)

	spotHandler := handlers.NewSpotHandler(spotService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	userHandler := handlers.NewUserHandler(userService)

	router := api.NewRouter(spotHandler, favoriteHandler, userHandler)

	engine := gin.Default()
	router.Setup(engine)

	addr := cfg.Server.Port
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}
	log.Printf("Starting spots server on %s (store driver: %s)", addr, cfg.Store.Driver)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Driver {
	case config.DriverDynamoDB:
		return dynamo.Connect(ctx, cfg.Store.AWSRegion)
	case config.DriverRedis:
		return redis.Connect(cfg.Store.RedisAddr), nil
	default:
		return memory.New(), nil
	}
}
