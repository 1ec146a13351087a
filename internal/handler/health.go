package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Health reports storage and cache connectivity. Only storage decides the
// status code; the QR cache is optional.
func Health(store storage.Storage, backend string, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		storageStatus := "connected"
		if store.Ping(ctx) != nil {
			storageStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		status := http.StatusOK
		if storageStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":      status == http.StatusOK,
			"backend": backend,
			"storage": storageStatus,
			"redis":   redisStatus,
		})
	}
}
