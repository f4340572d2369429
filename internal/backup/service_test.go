package backup_test

import (
	"compress/gzip"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"winsbygroup.com/licserver/internal/activation"
	"winsbygroup.com/licserver/internal/backup"
	"winsbygroup.com/licserver/internal/license"
	"winsbygroup.com/licserver/internal/testutil"
)

func TestBackupService(t *testing.T) {
	ctx := context.Background()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db := testutil.NewTestDBAt(t, dbPath)

	licSvc := license.NewService(db)
	lic, err := licSvc.Create(ctx, &license.License{
		LicenseKey:  "backup-key-1",
		ProductName: "WinsbyPro",
		TierName:    "Team",
		Status:      license.StatusActive,
		Seats:       5,
		MaxHosts:    sql.NullInt64{Int64: 2, Valid: true},
		Features:    license.StringList{"reporting"},
	})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}
	if _, err := activation.NewService(db).Activate(ctx, lic, &activation.ActivateParams{
		HostIdentifier: "backup-host",
	}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	result, err := backup.NewService(db, dbPath).Create(ctx)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}

	if !strings.HasSuffix(result.Filename, "_licdump.sql.gz") {
		t.Errorf("unexpected filename: %s", result.Filename)
	}
	if result.Size == 0 {
		t.Error("backup file is empty")
	}

	// Decompress and inspect the dump
	f, err := os.Open(result.Path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("open gzip: %v", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	dump := string(data)

	for _, want := range []string{
		"CREATE TABLE",
		"backup-key-1",
		"backup-host",
		"BEGIN TRANSACTION;",
		"COMMIT;",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q", want)
		}
	}

	if strings.Contains(dump, "DROP TABLE") {
		t.Error("dump should not contain DROP statements")
	}
}
