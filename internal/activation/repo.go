package activation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetByHost(ctx context.Context, licenseID int64, hostIdentifier string) (*Activation, error)
	ListForLicense(ctx context.Context, licenseID int64) ([]Activation, error)
	CountActive(ctx context.Context, licenseID int64) (int64, error)

	InsertIfBelowLimit(ctx context.Context, a *Activation, unlimited bool, limit int64) (bool, error)
	ReactivateIfBelowLimit(ctx context.Context, licenseID int64, hostIdentifier, ts, hostName, hostIP string, metadata MetadataMap, unlimited bool, limit int64) (bool, error)
	TouchActive(ctx context.Context, licenseID int64, hostIdentifier, ts string) (bool, error)
	Deactivate(ctx context.Context, licenseID int64, hostIdentifier, ts string) (bool, error)
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetByHost(ctx context.Context, licenseID int64, hostIdentifier string) (*Activation, error) {
	var a Activation
	err := r.db.GetContext(ctx, &a, getActivationSQL, licenseID, hostIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activation: %w", err)
	}
	return &a, nil
}

func (r *repo) ListForLicense(ctx context.Context, licenseID int64) ([]Activation, error) {
	var out []Activation
	err := r.db.SelectContext(ctx, &out, listForLicenseSQL, licenseID)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	return out, nil
}

func (r *repo) CountActive(ctx context.Context, licenseID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, countActiveSQL, licenseID)
	if err != nil {
		return 0, fmt.Errorf("count active hosts: %w", err)
	}
	return count, nil
}

func (r *repo) InsertIfBelowLimit(ctx context.Context, a *Activation, unlimited bool, limit int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertIfBelowLimitSQL,
		a.ActivationID,
		a.LicenseID,
		a.HostIdentifier,
		a.HostName,
		a.HostIP,
		a.ActivatedAt,
		a.LastSeenAt,
		a.Metadata,
		unlimited,
		a.LicenseID,
		limit,
	)
	if err != nil {
		// Unique-constraint failures bubble up so the service can retry
		// the race as a reactivation
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert activation: %w", err)
	}
	return n > 0, nil
}

func (r *repo) ReactivateIfBelowLimit(ctx context.Context, licenseID int64, hostIdentifier, ts, hostName, hostIP string, metadata MetadataMap, unlimited bool, limit int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, reactivateIfBelowLimitSQL,
		ts,
		hostName,
		hostIP,
		metadata,
		licenseID,
		hostIdentifier,
		unlimited,
		licenseID,
		limit,
	)
	if err != nil {
		return false, fmt.Errorf("reactivate host: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reactivate host: %w", err)
	}
	return n > 0, nil
}

func (r *repo) TouchActive(ctx context.Context, licenseID int64, hostIdentifier, ts string) (bool, error) {
	res, err := r.db.ExecContext(ctx, touchActiveSQL, ts, licenseID, hostIdentifier)
	if err != nil {
		return false, fmt.Errorf("touch activation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch activation: %w", err)
	}
	return n > 0, nil
}

func (r *repo) Deactivate(ctx context.Context, licenseID int64, hostIdentifier, ts string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deactivateSQL, ts, licenseID, hostIdentifier)
	if err != nil {
		return false, fmt.Errorf("deactivate host: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate host: %w", err)
	}
	return n > 0, nil
}
