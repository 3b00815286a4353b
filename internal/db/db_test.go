package db_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"trackerscope/internal/db"
	"trackerscope/internal/models"
)

func getTestDB(t *testing.T) *db.Database {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	database, err := db.Connect(dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return database
}

func TestHealthCheck(t *testing.T) {
	database := getTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.HealthCheck(ctx); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	database := getTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := []models.CookieResult{{CookieName: "_ga", CookieDomain: "example.com", TrackingScore: 70, LikelyTracking: true}}
	saved, err := database.SaveRun(ctx, models.RunKindCookies, 1, 1, results)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if saved.ID == uuid.Nil || saved.CreatedAt.IsZero() {
		t.Errorf("expected id and created_at, got %+v", saved)
	}

	got, err := database.GetRun(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Kind != models.RunKindCookies || got.InputCount != 1 || got.FlaggedCount != 1 {
		t.Errorf("unexpected run %+v", got)
	}

	total, err := database.CountRuns(ctx)
	if err != nil {
		t.Fatalf("CountRuns failed: %v", err)
	}
	if total < 1 {
		t.Errorf("expected at least one run, got %d", total)
	}

	runs, err := database.ListRuns(ctx, 5, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	t.Logf("Found %d recent runs", len(runs))
}

func TestGetRun_NotFound(t *testing.T) {
	database := getTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := database.GetRun(ctx, uuid.New()); !errors.Is(err, db.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
