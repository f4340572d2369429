package license

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Service struct {
	repo Repository
	db   *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{
		db:   db,
		repo: New(db),
	}
}

func (s *Service) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Service) GetByKey(ctx context.Context, licenseKey string) (*License, error) {
	return s.repo.GetByKey(ctx, licenseKey)
}

// GetByKeyAndProduct looks up a license by key, additionally filtered by
// product name when productName is non-empty.
func (s *Service) GetByKeyAndProduct(ctx context.Context, licenseKey, productName string) (*License, error) {
	if productName == "" {
		return s.repo.GetByKey(ctx, licenseKey)
	}
	return s.repo.GetByKeyAndProduct(ctx, licenseKey, productName)
}

func (s *Service) GetByID(ctx context.Context, licenseID int64) (*License, error) {
	return s.repo.GetByID(ctx, licenseID)
}

func (s *Service) List(ctx context.Context) ([]License, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, lic *License) (*License, error) {
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		id, err := s.repo.Create(ctx, tx, lic)
		if err != nil {
			return err
		}
		lic.LicenseID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, lic.LicenseID)
}

func (s *Service) Update(ctx context.Context, lic *License) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.Update(ctx, tx, lic)
	})
}

func (s *Service) Delete(ctx context.Context, licenseKey string) (bool, error) {
	var found bool
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		found, err = s.repo.Delete(ctx, tx, licenseKey)
		return err
	})
	return found, err
}

// MarkExpired flips an active license to expired. Returns true only for the
// call that actually performed the transition.
func (s *Service) MarkExpired(ctx context.Context, licenseID int64) (bool, error) {
	return s.repo.MarkExpired(ctx, licenseID)
}

// TouchLastActive records the time of a successful validation. Telemetry
// only; callers treat failures as non-fatal.
func (s *Service) TouchLastActive(ctx context.Context, licenseID int64, ts string) error {
	return s.repo.TouchLastActive(ctx, licenseID, ts)
}
