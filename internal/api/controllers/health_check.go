package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthCheckResponse struct {
	Status           string            `json:"status"`
	Database         string            `json:"database"`
	ExternalServices map[string]string `json:"external_services"`
}

// HealthCheckHandler checks API health, the database connection and Redis
// when it is configured. rdb may be nil.
func HealthCheckHandler(db *gorm.DB, rdb redis.Cmdable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthCheckResponse{
			Status:           "API is running",
			ExternalServices: make(map[string]string),
		}
		code := http.StatusOK

		// Check database connection
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Database = "Database connection failed"
			code = http.StatusServiceUnavailable
		} else {
			response.Database = "Database connection is healthy"
		}

		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				response.ExternalServices["redis"] = "Unreachable"
				code = http.StatusServiceUnavailable
			} else {
				response.ExternalServices["redis"] = "Available"
			}
		}

		respondWithJSON(w, code, response)
	}
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
