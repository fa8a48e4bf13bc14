package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesCoreTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{
		"users", "customers", "chit_schemes", "customer_schemes",
		"collections", "auctions", "passbook_entries", "settings",
	} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestMigrateSQLiteEnrollmentColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"customer_id", "scheme_id", "amount_per_day", "duration", "balance", "status"} {
		if !conn.Migrator().HasColumn("customer_schemes", column) {
			t.Fatalf("customer_schemes missing column %s", column)
		}
	}

	for _, column := range []string{"members_enrolled", "number_of_members", "end_date"} {
		if !conn.Migrator().HasColumn("chit_schemes", column) {
			t.Fatalf("chit_schemes missing column %s", column)
		}
	}
}
