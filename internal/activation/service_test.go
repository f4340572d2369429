package activation

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"winsbygroup.com/licserver/internal/errcode"
	"winsbygroup.com/licserver/internal/license"
	"winsbygroup.com/licserver/internal/testutil"
)

func seedLicense(t *testing.T, db *sqlx.DB, key string, maxHosts int64) *license.License {
	t.Helper()

	lic := &license.License{
		LicenseKey:  key,
		ProductName: "WinsbyPro",
		TierName:    "Team",
		Status:      license.StatusActive,
		Seats:       10,
	}
	if maxHosts > 0 {
		lic.MaxHosts = sql.NullInt64{Int64: maxHosts, Valid: true}
	}
	created, err := license.NewService(db).Create(context.Background(), lic)
	if err != nil {
		t.Fatalf("seed license: %v", err)
	}
	return created
}

func TestActivateEnforcesCeiling(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "CEIL-0001", 2)

	for _, host := range []string{"host-a", "host-b"} {
		a, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: host})
		if err != nil {
			t.Fatalf("activate %s: %v", host, err)
		}
		if !a.IsActive {
			t.Fatalf("activate %s: record not active", host)
		}
	}

	_, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-c"})
	if !errcode.Is(err, errcode.MaxHostsReached) {
		t.Fatalf("third host: want MAX_HOSTS_REACHED, got %v", err)
	}

	count, err := svc.repo.CountActive(ctx, lic.LicenseID)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if count != 2 {
		t.Fatalf("active hosts = %d, want 2", count)
	}
}

func TestActivateIsIdempotentPerHost(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "IDEM-0001", 1)

	first, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"})
	if err != nil {
		t.Fatalf("first activate: %v", err)
	}

	// Same host again must succeed without consuming another slot, even at
	// the ceiling
	second, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"})
	if err != nil {
		t.Fatalf("repeat activate: %v", err)
	}
	if second.ActivationID != first.ActivationID {
		t.Fatalf("repeat activate created a new record: %s != %s", second.ActivationID, first.ActivationID)
	}

	count, err := svc.repo.CountActive(ctx, lic.LicenseID)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if count != 1 {
		t.Fatalf("active hosts = %d, want 1", count)
	}
}

func TestActivateUnlimitedLicense(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "UNLIM-0001", 0)

	hosts := []string{"h1", "h2", "h3", "h4", "h5"}
	for _, host := range hosts {
		if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: host}); err != nil {
			t.Fatalf("activate %s: %v", host, err)
		}
	}

	info, err := svc.Slots(ctx, lic)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if info.ActiveHosts != int64(len(hosts)) {
		t.Fatalf("active hosts = %d, want %d", info.ActiveHosts, len(hosts))
	}
	if info.MaxHosts != nil || info.RemainingSlots != nil {
		t.Fatal("unlimited license must report nil max_hosts and remaining_slots")
	}
}

func TestDeactivateFreesSlot(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "FREE-0001", 1)

	if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"}); err != nil {
		t.Fatalf("activate host-a: %v", err)
	}
	if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-b"}); !errcode.Is(err, errcode.MaxHostsReached) {
		t.Fatalf("host-b before deactivation: want MAX_HOSTS_REACHED, got %v", err)
	}

	if err := svc.Deactivate(ctx, lic, "host-a"); err != nil {
		t.Fatalf("deactivate host-a: %v", err)
	}

	if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-b"}); err != nil {
		t.Fatalf("host-b after deactivation: %v", err)
	}

	// host-a's inactive record survives but cannot reactivate past the
	// ceiling
	_, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"})
	if !errcode.Is(err, errcode.MaxHostsReached) {
		t.Fatalf("reactivate host-a at ceiling: want MAX_HOSTS_REACHED, got %v", err)
	}
}

func TestDeactivateUnknownHostIsNoOp(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	lic := seedLicense(t, db, "NOOP-0001", 2)

	if err := svc.Deactivate(context.Background(), lic, "never-activated"); err != nil {
		t.Fatalf("deactivate unknown host: %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "BEAT-0001", 2)

	t.Run("requires an active record", func(t *testing.T) {
		err := svc.Heartbeat(ctx, lic, "host-a")
		if !errcode.Is(err, errcode.NotActivated) {
			t.Fatalf("want NOT_ACTIVATED, got %v", err)
		}
	})

	t.Run("refreshes last_seen_at", func(t *testing.T) {
		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return base }

		a, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"})
		if err != nil {
			t.Fatalf("activate: %v", err)
		}

		svc.now = func() time.Time { return base.Add(30 * time.Minute) }
		if err := svc.Heartbeat(ctx, lic, "host-a"); err != nil {
			t.Fatalf("heartbeat: %v", err)
		}

		after, err := svc.repo.GetByHost(ctx, lic.LicenseID, "host-a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if after.LastSeenAt <= a.LastSeenAt {
			t.Fatalf("last_seen_at not advanced: %s -> %s", a.LastSeenAt, after.LastSeenAt)
		}
	})

	t.Run("rejects a deactivated record", func(t *testing.T) {
		if err := svc.Deactivate(ctx, lic, "host-a"); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		err := svc.Heartbeat(ctx, lic, "host-a")
		if !errcode.Is(err, errcode.NotActivated) {
			t.Fatalf("want NOT_ACTIVATED, got %v", err)
		}
	})
}

func TestStatusListsAllRecordsNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "STAT-0001", 0)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, host := range []string{"h-old", "h-mid", "h-new"} {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: host}); err != nil {
			t.Fatalf("activate %s: %v", host, err)
		}
	}
	if err := svc.Deactivate(ctx, lic, "h-mid"); err != nil {
		t.Fatalf("deactivate h-mid: %v", err)
	}

	records, err := svc.Status(ctx, lic)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 (inactive records stay listed)", len(records))
	}
	if records[0].HostIdentifier != "h-new" || records[2].HostIdentifier != "h-old" {
		t.Fatalf("unexpected order: %s, %s, %s",
			records[0].HostIdentifier, records[1].HostIdentifier, records[2].HostIdentifier)
	}
	for _, r := range records {
		if r.HostIdentifier == "h-mid" && r.IsActive {
			t.Fatal("h-mid should be inactive")
		}
	}
}

func TestSlotAccounting(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "SLOT-0001", 3)

	if _, err := svc.Activate(ctx, lic, &ActivateParams{HostIdentifier: "host-a"}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	info, err := svc.Slots(ctx, lic)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if info.MaxHosts == nil || *info.MaxHosts != 3 {
		t.Fatalf("max_hosts = %v, want 3", info.MaxHosts)
	}
	if info.ActiveHosts != 1 {
		t.Fatalf("active_hosts = %d, want 1", info.ActiveHosts)
	}
	if info.RemainingSlots == nil || *info.RemainingSlots != 2 {
		t.Fatalf("remaining_slots = %v, want 2", info.RemainingSlots)
	}
}

// Two hosts race for the last slot; exactly one may win.
func TestConcurrentActivationNeverExceedsCeiling(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "RACE-0001", 1)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Activate(ctx, lic, &ActivateParams{
				HostIdentifier: "racer-" + string(rune('a'+i)),
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case errcode.Is(err, errcode.MaxHostsReached):
		default:
			t.Fatalf("contender %d: unexpected error %v", i, err)
		}
	}
	if won != 1 {
		t.Fatalf("%d contenders admitted, want exactly 1", won)
	}

	count, err := svc.repo.CountActive(ctx, lic.LicenseID)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if count != 1 {
		t.Fatalf("active hosts = %d, want 1", count)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	lic := seedLicense(t, db, "META-0001", 0)

	_, err := svc.Activate(ctx, lic, &ActivateParams{
		HostIdentifier: "host-a",
		HostName:       "build-runner-1",
		HostIP:         "10.0.0.17",
		Metadata:       map[string]string{"os": "linux", "agent": "2.4.1"},
	})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	a, err := svc.repo.GetByHost(ctx, lic.LicenseID, "host-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.HostName != "build-runner-1" || a.HostIP != "10.0.0.17" {
		t.Fatalf("host details not stored: %+v", a)
	}
	if a.Metadata["os"] != "linux" || a.Metadata["agent"] != "2.4.1" {
		t.Fatalf("metadata not stored: %v", a.Metadata)
	}
}
