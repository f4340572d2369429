package demodata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"winsbygroup.com/licserver/internal/demodata"
	"winsbygroup.com/licserver/internal/sqlite"
)

// TestDemoDataLoadedOnNewDB verifies the sample data applies cleanly to a
// freshly migrated database.
func TestDemoDataLoadedOnNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "newtest.db")

	isNewDB := false
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		isNewDB = true
	}
	if !isNewDB {
		t.Fatal("expected isNewDB to be true for non-existent database")
	}

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := sqlite.RunMigrations(db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := demodata.Load(db.DB); err != nil {
		t.Fatalf("load demo data: %v", err)
	}

	var licenseCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM license`).Scan(&licenseCount); err != nil {
		t.Fatalf("count licenses: %v", err)
	}
	if licenseCount == 0 {
		t.Error("expected demo licenses to be loaded")
	}

	// Every demo activation must reference a demo license
	var orphans int
	err = db.QueryRow(`
        SELECT COUNT(*) FROM activation a
        LEFT JOIN license l ON l.license_id = a.license_id
        WHERE l.license_id IS NULL
    `).Scan(&orphans)
	if err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d demo activations reference missing licenses", orphans)
	}
}

// TestDemoDataNotLoadedOnExistingDB mirrors the server.Build() logic that
// checks isNewDB before loading.
func TestDemoDataNotLoadedOnExistingDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := sqlite.RunMigrations(db.DB); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	// Insert a license that should NOT be overwritten
	_, err = db.Exec(`INSERT INTO license (license_key, product_name, tier_name, status, seats) VALUES ('existing-key', 'ExistingProduct', 'Team', 'active', 1)`)
	if err != nil {
		db.Close()
		t.Fatalf("insert existing license: %v", err)
	}
	db.Close()

	isNewDB := false
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		isNewDB = true
	}
	if isNewDB {
		t.Fatal("expected isNewDB to be false for existing database")
	}

	db, err = sqlx.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()

	demoMode := true
	if demoMode && isNewDB {
		// This block should NOT execute for existing DB
		if err := demodata.Load(db.DB); err != nil {
			t.Fatalf("load demo data: %v", err)
		}
	}

	var existing string
	if err := db.QueryRow(`SELECT license_key FROM license WHERE license_key = 'existing-key'`).Scan(&existing); err != nil {
		t.Fatalf("existing license should still exist: %v", err)
	}

	var demoCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM license WHERE license_key LIKE 'demo-%'`).Scan(&demoCount); err != nil {
		t.Fatalf("query demo licenses: %v", err)
	}
	if demoCount != 0 {
		t.Error("demo data should NOT have been loaded on existing database")
	}
}
