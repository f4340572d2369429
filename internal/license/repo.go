package license

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetByKey(ctx context.Context, licenseKey string) (*License, error)
	GetByKeyAndProduct(ctx context.Context, licenseKey, productName string) (*License, error)
	GetByID(ctx context.Context, licenseID int64) (*License, error)
	List(ctx context.Context) ([]License, error)

	Create(ctx context.Context, tx *sqlx.Tx, lic *License) (int64, error)
	Update(ctx context.Context, tx *sqlx.Tx, lic *License) error
	Delete(ctx context.Context, tx *sqlx.Tx, licenseKey string) (bool, error)

	MarkExpired(ctx context.Context, licenseID int64) (bool, error)
	TouchLastActive(ctx context.Context, licenseID int64, ts string) error
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetByKey(ctx context.Context, licenseKey string) (*License, error) {
	var lic License
	err := r.db.GetContext(ctx, &lic, getLicenseByKeySQL, strings.ToLower(licenseKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license by key: %w", err)
	}
	return &lic, nil
}

func (r *repo) GetByKeyAndProduct(ctx context.Context, licenseKey, productName string) (*License, error) {
	var lic License
	err := r.db.GetContext(ctx, &lic, getLicenseByKeyAndProductSQL, strings.ToLower(licenseKey), productName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license by key and product: %w", err)
	}
	return &lic, nil
}

func (r *repo) GetByID(ctx context.Context, licenseID int64) (*License, error) {
	var lic License
	err := r.db.GetContext(ctx, &lic, getLicenseByIDSQL, licenseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get license by id: %w", err)
	}
	return &lic, nil
}

func (r *repo) List(ctx context.Context) ([]License, error) {
	var out []License
	err := r.db.SelectContext(ctx, &out, listLicensesSQL)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return out, nil
}

func (r *repo) Create(ctx context.Context, tx *sqlx.Tx, lic *License) (int64, error) {
	res, err := tx.ExecContext(ctx, createLicenseSQL,
		strings.ToLower(lic.LicenseKey),
		lic.ProductName,
		lic.TierName,
		lic.Status,
		lic.Seats,
		lic.MaxHosts,
		lic.AllowedNetworks,
		lic.ConcurrentSessions,
		lic.UsageHoursLimit,
		lic.ExpiryDate,
		lic.Features,
		lic.Addons,
	)
	if err != nil {
		return 0, fmt.Errorf("create license: %w", err)
	}
	return res.LastInsertId()
}

func (r *repo) Update(ctx context.Context, tx *sqlx.Tx, lic *License) error {
	_, err := tx.ExecContext(ctx, updateLicenseSQL,
		lic.ProductName,
		lic.TierName,
		lic.Status,
		lic.Seats,
		lic.MaxHosts,
		lic.AllowedNetworks,
		lic.ConcurrentSessions,
		lic.UsageHoursLimit,
		lic.ExpiryDate,
		lic.Features,
		lic.Addons,
		strings.ToLower(lic.LicenseKey),
	)
	if err != nil {
		return fmt.Errorf("update license: %w", err)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, tx *sqlx.Tx, licenseKey string) (bool, error) {
	res, err := tx.ExecContext(ctx, deleteLicenseSQL, strings.ToLower(licenseKey))
	if err != nil {
		return false, fmt.Errorf("delete license: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete license: %w", err)
	}
	return n > 0, nil
}

func (r *repo) MarkExpired(ctx context.Context, licenseID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, markExpiredSQL, licenseID)
	if err != nil {
		return false, fmt.Errorf("mark license expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark license expired: %w", err)
	}
	return n > 0, nil
}

func (r *repo) TouchLastActive(ctx context.Context, licenseID int64, ts string) error {
	_, err := r.db.ExecContext(ctx, touchLastActiveSQL, ts, licenseID)
	if err != nil {
		return fmt.Errorf("touch last_active_at: %w", err)
	}
	return nil
}
