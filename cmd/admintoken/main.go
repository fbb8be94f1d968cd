// Command admintoken mints an admin bearer token for the /admin routes.
//
//	ADMIN_JWT_SECRET=... go run ./cmd/admintoken -subject ops@example.com -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"movie-api/internal/logger"
	"movie-api/internal/services"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	subject := flag.String("subject", "", "operator identity recorded in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.LogEvent(logrus.DebugLevel, "No .env file loaded", logrus.Fields{"error": err.Error()})
	}

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		logger.Logger.Fatal("ADMIN_JWT_SECRET environment variable is required")
	}
	if *subject == "" {
		logger.Logger.Fatal("-subject is required")
	}

	token, err := services.NewAdminTokenService(secret).Mint(*subject, *ttl)
	if err != nil {
		logger.Logger.Fatalf("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}
