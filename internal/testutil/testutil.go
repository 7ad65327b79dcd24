// Package testutil provides shared test helpers for setting up databases
// and seeded template registries.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/marloe/tend/internal/store"
	"github.com/marloe/tend/internal/template"
)

// Now is the fixed instant used by deterministic test clocks.
var Now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a clock function frozen at Now.
func Clock() func() time.Time {
	return func() time.Time { return Now }
}

// TestDB creates a temporary SQLite database that is automatically
// cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tend-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Categories is a small template definition used across tests.
func Categories() template.Categories {
	min, max := 0.0, 150.0
	return template.Categories{
		"personal": {
			Description: "Personal details",
			Fields: map[string]template.Field{
				"city":     {Type: template.TypeString},
				"age":      {Type: template.TypeNumber, Min: &min, Max: &max},
				"birthday": {Type: template.TypeDate},
				"vip":      {Type: template.TypeBoolean},
			},
		},
		"work": {
			Fields: map[string]template.Field{
				"company": {Type: template.TypeString},
				"email":   {Type: template.TypeString, Pattern: `^[^@\s]+@[^@\s]+$`},
			},
		},
	}
}

// TestRegistry creates a registry over db with one published version of
// the test template.
func TestRegistry(t *testing.T, db *store.DB) *template.Registry {
	t.Helper()
	r, err := template.NewRegistry(context.Background(), db, Clock())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Publish(context.Background(), Categories()); err != nil {
		t.Fatal(err)
	}
	return r
}
