// Command setup creates the PostgreSQL database named by DB_NAME if it is missing and applies
// the store migrations. The server migrates on start as well; this is for provisioning ahead of time.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/osse101/chunkward/internal/database"
	"github.com/osse101/chunkward/internal/persistence"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	ctx := context.Background()
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "chunkward")
	sslMode := getEnv("DB_SSLMODE", "disable")

	// 1. Connect to the maintenance database to create the target
	conn, err := pgx.Connect(ctx, database.ConnString(user, password, host, port, "postgres", sslMode))
	if err != nil {
		log.Fatalf("Unable to connect to postgres database: %v", err)
	}

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbname).Scan(&exists)
	if err != nil {
		_ = conn.Close(ctx)
		log.Fatalf("Failed to check if database exists: %v", err)
	}

	if !exists {
		fmt.Printf("Creating database %s...\n", dbname)
		if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbname}.Sanitize()); err != nil {
			_ = conn.Close(ctx)
			log.Fatalf("Failed to create database: %v", err)
		}
		fmt.Println("Database created successfully.")
	} else {
		fmt.Printf("Database %s already exists.\n", dbname)
	}
	_ = conn.Close(ctx)

	// 2. Apply migrations to the target
	pool, err := database.NewPool(ctx, database.ConnString(user, password, host, port, dbname, sslMode), database.PoolConfig{MaxConns: 2})
	if err != nil {
		log.Fatalf("Unable to connect to %s database: %v", dbname, err)
	}
	store := persistence.NewPostgresStore(pool)
	defer store.Close()

	fmt.Println("Running migrations...")
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	fmt.Println("Migrations completed successfully.")
}
