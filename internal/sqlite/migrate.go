package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/GuiaBolso/darwin"
	_ "github.com/mattn/go-sqlite3"
)

// ApplicationID is the SQLite application_id for licserver databases.
// "LICS" in ASCII: L=0x4C, I=0x49, C=0x43, S=0x53
const ApplicationID = 0x4C494353

// ErrInvalidDatabase is returned when the database is not a valid licserver database.
var ErrInvalidDatabase = errors.New("not a valid 'licserver' database")

// defineMigrations returns a slice of database migrations
// Each migration is defined in a separate row (versioned by major db release)
// comments must only appear after sql on a line and cannot span lines (comments are stripped before checksum calc)
// *NEVER* change/remove a step once released! (because a checksum of the script is saved with the migration)
func defineMigrations() []darwin.Migration {
	m := []darwin.Migration{

		// Each database change release is given a major version number (1.xx, 2.xx) with minor numbers (x.01, x.02)
		// representing the actual migration steps within that release. Version numbers must be ascending.

		// Set application_id first to identify this as a licserver database
		// 0x4C494353 = "LICS" in ASCII (L=0x4C, I=0x49, C=0x43, S=0x53)
		{Version: 1.00, Description: "Set application_id", Script: `
		PRAGMA application_id = 0x4C494353;`},

		{Version: 1.01, Description: "Create Table 'license'", Script: `
		CREATE TABLE IF NOT EXISTS license (
			license_id INTEGER PRIMARY KEY AUTOINCREMENT,
			license_key VARCHAR(64) NOT NULL COLLATE NOCASE,
			product_name VARCHAR(255) NOT NULL,
			tier_name VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active' CHECK (status IN ('active','suspended','expired','revoked')),
			seats INTEGER NOT NULL DEFAULT 1,
			max_hosts INTEGER,
			allowed_networks TEXT NOT NULL DEFAULT '[]',
			concurrent_sessions INTEGER,
			usage_hours_limit INTEGER,
			expiry_date VARCHAR(10),
			features TEXT NOT NULL DEFAULT '[]',
			addons TEXT NOT NULL DEFAULT '[]',
			last_active_at VARCHAR(25)
		);`},

		{Version: 1.02, Description: "Create Unique Index 'idx_license_key'", Script: `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_license_key ON license (license_key);`},

		{Version: 1.03, Description: "Create Index 'idx_license_product_name'", Script: `
		CREATE INDEX IF NOT EXISTS idx_license_product_name ON license (product_name ASC);`},

		{Version: 1.04, Description: "Create Table 'activation'", Script: `
		CREATE TABLE IF NOT EXISTS activation (
			activation_id VARCHAR(36) NOT NULL,
			license_id INTEGER NOT NULL,
			host_identifier VARCHAR(255) NOT NULL,
			host_name VARCHAR(255) NOT NULL DEFAULT '',
			host_ip VARCHAR(64) NOT NULL DEFAULT '',
			activated_at VARCHAR(25) NOT NULL,
			last_seen_at VARCHAR(25) NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			metadata TEXT NOT NULL DEFAULT '{}',
			CONSTRAINT pk_activation PRIMARY KEY (activation_id),
			FOREIGN KEY (license_id) REFERENCES license (license_id) ON DELETE CASCADE
		);`},

		{Version: 1.05, Description: "Create Unique Index 'idx_activation_license_host'", Script: `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_activation_license_host ON activation (license_id, host_identifier);`},

		{Version: 1.06, Description: "Create Index 'idx_activation_license_active'", Script: `
		CREATE INDEX IF NOT EXISTS idx_activation_license_active ON activation (license_id, is_active);`},
	}
	return m
}

// changes returns a user-friendly display of database version changes
func changes(v1, v2 float64) string {
	if v1 != v2 {
		return fmt.Sprintf("DB Version: %.2f (migrated from %.2f to %.2f)", v2, v1, v2)
	}
	return fmt.Sprintf("DB Version: %.2f", v1)
}

// currentVersion reads from migration table to get the latest version and number of steps applied
func currentVersion(db *sql.DB) (count int, ver float64, err error) {
	// might not have any migrations yet...
	s := `select count(*) as n from sqlite_master where tbl_name = 'darwin_migrations';`
	err = db.QueryRow(s).Scan(&count)
	if err != nil || count == 0 {
		return 0, 0, err
	}

	s = `select count(*) as n, max(version) as ver from darwin_migrations;`
	err = db.QueryRow(s).Scan(&count, &ver)
	return count, ver, err
}

// minifiedMigrations returns our migrations with minified scripts so comments or formatting changes
// will not generate a new checksum
func minifiedMigrations() []darwin.Migration {
	migrations := defineMigrations()
	for i := range migrations {
		migrations[i].Script = minify(migrations[i].Script)
	}
	return migrations
}

// minify simplifies the script to keep certain changes (spaces, tabs, case and comments) from
// creating a new checksum
func minify(script string) string {
	b := strings.Builder{}
	s := strings.ToLower(strings.ReplaceAll(script, "/*", "--"))
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		if i := strings.Index(line, "--"); i != -1 {
			line = line[0:i]
		}
		b.WriteString(strings.TrimSpace(line) + "\n")
	}
	result := strings.TrimSpace(strings.ReplaceAll(b.String(), "\t", " "))
	before := 0
	for len(result) != before {
		before = len(result)
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return strings.TrimSpace(result)
}

// progress returns the steps attempted during this migration
func progress(ch <-chan darwin.MigrationInfo) string {
	var b strings.Builder

	for info := range ch {
		_, _ = fmt.Fprintf(&b, "v%.2f: \"%s\" (%s) Error: %v\n",
			info.Migration.Version, info.Migration.Description, info.Status.String(), info.Error)
	}
	return b.String()
}

// Schema returns the current sqlite definitions as a string for display (without comments)
func Schema() string {
	var b strings.Builder

	schema := defineMigrations()
	for _, m := range schema {
		_, _ = fmt.Fprintf(&b, "-- %s (%.2f)\n%s\n\n", m.Description, m.Version, m.Script)
	}
	return b.String()
}

// VerifyApplicationID checks that the database has the correct application_id.
// Returns ErrInvalidDatabase if the database belongs to a different application.
// Returns nil for empty databases (application_id = 0, no tables) or licserver databases.
func VerifyApplicationID(db *sql.DB) error {
	var appID int
	if err := db.QueryRow("PRAGMA application_id;").Scan(&appID); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}

	// Accept our application ID
	if appID == ApplicationID {
		return nil
	}

	// Reject non-zero application IDs that aren't ours
	if appID != 0 {
		return fmt.Errorf("%w (application_id 0x%X)", ErrInvalidDatabase, appID)
	}

	// appID is 0 - only accept if database is empty (no user tables)
	var tableCount int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check tables: %w", err)
	}
	if tableCount > 0 {
		return fmt.Errorf("%w (has tables but no application_id)", ErrInvalidDatabase)
	}

	return nil
}

// RunMigrations applies all migrations to an already-open *sql.DB.
// This is perfect for tests using :memory: SQLite.
func RunMigrations(db *sql.DB) error {
	// Verify this is a licserver database (or new) before migrating
	if err := VerifyApplicationID(db); err != nil {
		return err
	}

	count, v1, err := currentVersion(db)
	if err != nil {
		return err
	}

	migrations := minifiedMigrations()
	if count == len(migrations) && v1 == migrations[count-1].Version {
		log.Printf("Database version %.2f is current, no migrations needed", v1)
		return nil // already up to date
	}

	// setup for the migrations
	driver := darwin.NewGenericDriver(db, darwin.SqliteDialect{})
	infoChan := make(chan darwin.MigrationInfo, len(migrations))
	d := darwin.New(driver, migrations, infoChan)

	// perform the migrations
	var v2 float64
	if err := d.Migrate(); err != nil {
		close(infoChan)
		_, v2, _ = currentVersion(db)
		prog := progress(infoChan)
		log.Printf("migration (was v%.2f now v%.2f): %v (%s)", v1, v2, err, prog)
		return fmt.Errorf("migration error: %w\n%s", err, prog)
	}
	close(infoChan)

	_, v2, err = currentVersion(db)
	if err != nil {
		return err
	}

	log.Print(changes(v1, v2))
	return nil
}
