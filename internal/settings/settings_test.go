package settings

import (
	"context"
	"testing"

	dbpkg "github.com/chitworks/chitfund-api/internal/db"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestSetRefreshAndFloat(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if errSet := Set(ctx, conn, models.SettingDefaultCommissionRate, 0.08); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if got := DefaultCommissionRate(); got != 0.08 {
		t.Fatalf("commission = %v, want 0.08", got)
	}

	// Upsert overwrites the stored value.
	if errSet := Set(ctx, conn, models.SettingDefaultCommissionRate, 0.1); errSet != nil {
		t.Fatalf("set again: %v", errSet)
	}
	if errRefresh := Refresh(ctx, conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if got := DefaultCommissionRate(); got != 0.1 {
		t.Fatalf("commission after refresh = %v, want 0.1", got)
	}
}

func TestFloatFallback(t *testing.T) {
	conn := openTestDB(t)
	if errRefresh := Refresh(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if got := Float("missing_key", 1.5); got != 1.5 {
		t.Fatalf("fallback = %v, want 1.5", got)
	}
	if got := DefaultCommissionRate(); got != 0.05 {
		t.Fatalf("default commission = %v, want 0.05", got)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	conn := openTestDB(t)
	if errSet := Set(context.Background(), conn, "  ", 1); errSet == nil {
		t.Fatal("expected error for empty key")
	}
}
