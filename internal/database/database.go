package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// InitDB opens the connection pool, verifies it and applies the schema file
// when one is configured.
func InitDB(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	utils.LogInfo("Connected to the database", map[string]interface{}{"host": cfg.Host, "name": cfg.Name})

	if err := applySchema(ctx, db, cfg.SchemaPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// applySchema reads and executes the db_schema.sql file
func applySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		utils.LogDebug("No schema path provided, skipping schema application")
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"path": schemaPath})
	return nil
}
