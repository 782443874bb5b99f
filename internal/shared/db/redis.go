package db

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"fleettrack/internal/shared/models"
)

func ConnectToRedis(cfg *models.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Unable to ping redis: %v\n", err)
	}

	return rdb
}
