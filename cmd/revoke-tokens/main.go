package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/database"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: revoke-tokens <username>")
		os.Exit(1)
	}

	username := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	result, err := db.Pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = (SELECT id FROM users WHERE username = $1)
	`, username)
	if err != nil {
		log.Fatalf("Failed to revoke tokens: %v", err)
	}

	fmt.Printf("Revoked %d refresh tokens for %s\n", result.RowsAffected(), username)
}
