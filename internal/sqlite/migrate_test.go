package sqlite_test

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"winsbygroup.com/licserver/internal/sqlite"
)

func TestMigrationsApplyCleanly(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	// Verify the core tables exist
	for _, table := range []string{"license", "activation"} {
		row := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?;`, table)
		var name string
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected %s table to exist: %v", table, err)
		}
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}

func TestMigrationsSetsApplicationID(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	var appID int
	if err := db.QueryRow("PRAGMA application_id;").Scan(&appID); err != nil {
		t.Fatalf("read application_id: %v", err)
	}

	if appID != sqlite.ApplicationID {
		t.Errorf("expected application_id 0x%X, got 0x%X", sqlite.ApplicationID, appID)
	}
}

func TestVerifyApplicationID(t *testing.T) {
	t.Run("accepts new database with appID 0", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()

		// New database has application_id = 0
		if err := sqlite.VerifyApplicationID(db); err != nil {
			t.Errorf("expected no error for new database, got %v", err)
		}
	})

	t.Run("accepts licserver database", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()

		// Run migrations to set application_id
		if err := sqlite.RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}

		if err := sqlite.VerifyApplicationID(db); err != nil {
			t.Errorf("expected no error for licserver database, got %v", err)
		}
	})

	t.Run("rejects database with wrong appID", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()

		if err := sqlite.RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}
		// Simulate database with wrong appID
		if _, err := db.Exec("PRAGMA application_id = 305419896;"); err != nil { // 0x12345678
			t.Fatalf("set application_id: %v", err)
		}

		err = sqlite.VerifyApplicationID(db)
		if err == nil {
			t.Fatal("expected error for wrong application_id, got nil")
		}
		if !errors.Is(err, sqlite.ErrInvalidDatabase) {
			t.Errorf("expected ErrInvalidDatabase, got %v", err)
		}
	})

	t.Run("rejects database with tables but no appID", func(t *testing.T) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		defer db.Close()

		// Simulate another app's database that never set application_id
		if _, err := db.Exec("CREATE TABLE other_app (id INTEGER);"); err != nil {
			t.Fatalf("create table: %v", err)
		}

		err = sqlite.VerifyApplicationID(db)
		if err == nil {
			t.Fatal("expected error for foreign database, got nil")
		}
		if !errors.Is(err, sqlite.ErrInvalidDatabase) {
			t.Errorf("expected ErrInvalidDatabase, got %v", err)
		}
	})
}

// TestCascadeDeleteLicense verifies that deleting a license removes its
// activation records but leaves other licenses' records alone.
func TestCascadeDeleteLicense(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := sqlite.RunMigrations(db); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	if _, err := db.Exec(`
		INSERT INTO license (license_id, license_key, product_name, tier_name, status, seats) VALUES
			(1, 'key-one', 'Product One', 'Pro', 'active', 5),
			(2, 'key-two', 'Product One', 'Pro', 'active', 5);

		INSERT INTO activation (activation_id, license_id, host_identifier, activated_at, last_seen_at, is_active) VALUES
			('a1', 1, 'host-1a', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z', 1),
			('a2', 1, 'host-1b', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z', 0),
			('a3', 2, 'host-2a', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z', 1);
	`); err != nil {
		t.Fatalf("insert test data: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM license WHERE license_id = 1`); err != nil {
		t.Fatalf("delete license: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM activation`).Scan(&count); err != nil {
		t.Fatalf("count activations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 surviving activation, got %d", count)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM activation WHERE license_id = 2`).Scan(&count); err != nil {
		t.Fatalf("count license 2 activations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected license 2 activation to survive, got %d", count)
	}
}
