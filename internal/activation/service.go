package activation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"winsbygroup.com/licserver/internal/errcode"
	"winsbygroup.com/licserver/internal/license"
	"winsbygroup.com/licserver/internal/sqlite"
)

// Service is the activation registry: it owns the set of per-host activation
// records for a license and enforces the host-count ceiling.
type Service struct {
	repo Repository
	db   *sqlx.DB
	now  func() time.Time
}

func NewService(db *sqlx.DB) *Service {
	return &Service{
		db:   db,
		repo: New(db),
		now:  time.Now,
	}
}

// ActivateParams carries the caller-supplied host details for an activation.
type ActivateParams struct {
	HostIdentifier string
	HostName       string
	HostIP         string
	Metadata       map[string]string
}

// Activate admits a host to one of the license's activation slots.
// Re-activating an already-active host is an idempotent success that consumes
// no slot. The ceiling check and the admitting write are a single guarded
// statement, so two concurrent calls can never both take the last slot.
func (s *Service) Activate(ctx context.Context, lic *license.License, p *ActivateParams) (*Activation, error) {
	now := s.timestamp()
	unlimited := !lic.MaxHosts.Valid
	limit := lic.MaxHosts.Int64

	// Two passes: the second handles losing a create race to a concurrent
	// request for the same host, which then looks like a reactivation.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.repo.GetByHost(ctx, lic.LicenseID, p.HostIdentifier)
		if err != nil {
			return nil, err
		}

		if existing != nil && existing.IsActive {
			if _, err := s.repo.TouchActive(ctx, lic.LicenseID, p.HostIdentifier, now); err != nil {
				return nil, err
			}
			existing.LastSeenAt = now
			return existing, nil
		}

		if existing != nil {
			ok, err := s.repo.ReactivateIfBelowLimit(ctx, lic.LicenseID, p.HostIdentifier,
				now, p.HostName, p.HostIP, p.Metadata, unlimited, limit)
			if err != nil {
				return nil, err
			}
			if ok {
				return s.repo.GetByHost(ctx, lic.LicenseID, p.HostIdentifier)
			}
			// Zero rows: either the ceiling is hit or a concurrent request
			// flipped this host active first
			current, err := s.repo.GetByHost(ctx, lic.LicenseID, p.HostIdentifier)
			if err != nil {
				return nil, err
			}
			if current != nil && current.IsActive {
				return current, nil
			}
			return nil, maxHostsError(limit)
		}

		a := &Activation{
			ActivationID:   uuid.NewString(),
			LicenseID:      lic.LicenseID,
			HostIdentifier: p.HostIdentifier,
			HostName:       p.HostName,
			HostIP:         p.HostIP,
			ActivatedAt:    now,
			LastSeenAt:     now,
			IsActive:       true,
			Metadata:       p.Metadata,
		}
		ok, err := s.repo.InsertIfBelowLimit(ctx, a, unlimited, limit)
		if err != nil {
			if sqlite.IsUniqueConstraintError(err) {
				continue
			}
			return nil, fmt.Errorf("insert activation: %w", err)
		}
		if !ok {
			return nil, maxHostsError(limit)
		}
		return a, nil
	}

	return nil, fmt.Errorf("activate %q: lost create race twice", p.HostIdentifier)
}

// Deactivate releases a host's slot. A missing record is a no-op success so
// caller retries stay safe.
func (s *Service) Deactivate(ctx context.Context, lic *license.License, hostIdentifier string) error {
	_, err := s.repo.Deactivate(ctx, lic.LicenseID, hostIdentifier, s.timestamp())
	return err
}

// Heartbeat refreshes last_seen_at of an active record.
func (s *Service) Heartbeat(ctx context.Context, lic *license.License, hostIdentifier string) error {
	found, err := s.repo.TouchActive(ctx, lic.LicenseID, hostIdentifier, s.timestamp())
	if err != nil {
		return err
	}
	if !found {
		return errcode.New(errcode.NotActivated, "host %q has no active activation for this license", hostIdentifier)
	}
	return nil
}

// Status returns every activation record for the license, active and
// inactive, newest first.
func (s *Service) Status(ctx context.Context, lic *license.License) ([]Activation, error) {
	return s.repo.ListForLicense(ctx, lic.LicenseID)
}

// Slots computes the license's slot accounting from current registry state.
func (s *Service) Slots(ctx context.Context, lic *license.License) (*SlotInfo, error) {
	active, err := s.repo.CountActive(ctx, lic.LicenseID)
	if err != nil {
		return nil, err
	}
	info := &SlotInfo{ActiveHosts: active}
	if lic.MaxHosts.Valid {
		maxHosts := lic.MaxHosts.Int64
		remaining := maxHosts - active
		if remaining < 0 {
			remaining = 0
		}
		info.MaxHosts = &maxHosts
		info.RemainingSlots = &remaining
	}
	return info, nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func maxHostsError(limit int64) error {
	return errcode.New(errcode.MaxHostsReached, "maximum of %d active hosts reached", limit)
}
