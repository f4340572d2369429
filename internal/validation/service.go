package validation

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"winsbygroup.com/licserver/internal/errcode"
	"winsbygroup.com/licserver/internal/license"
	"winsbygroup.com/licserver/internal/network"
)

// Request asks whether a license key grants entitlement right now, optionally
// scoped to a product and checked against the caller's network address.
type Request struct {
	LicenseKey  string `json:"license_key"`
	ProductName string `json:"product_name,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`

	// Accepted but not matched against the activation registry; validation
	// and activation are decoupled operations.
	HostIdentifier string `json:"host_identifier,omitempty"`
}

// LicenseDetail is the entitlement descriptor returned on a valid check.
// ExpiryDate is omitted for perpetual licenses.
type LicenseDetail struct {
	ProductName        string   `json:"product_name"`
	TierName           string   `json:"tier_name"`
	Status             string   `json:"status"`
	Seats              int      `json:"seats"`
	MaxHosts           *int64   `json:"max_hosts"`
	AllowedNetworks    []string `json:"allowed_networks"`
	ConcurrentSessions *int64   `json:"concurrent_sessions,omitempty"`
	UsageHoursLimit    *int64   `json:"usage_hours_limit,omitempty"`
	ExpiryDate         string   `json:"expiry_date,omitempty"`
	Perpetual          bool     `json:"is_perpetual"`
	Features           []string `json:"features"`
	Addons             []string `json:"addons"`
}

// Response is the validation verdict. Error and ErrorCode are set only when
// Valid is false.
type Response struct {
	Valid     bool           `json:"valid"`
	License   *LicenseDetail `json:"license,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// Service decides entitlement. It is the only writer of the active-to-expired
// status transition.
type Service struct {
	licenses *license.Service
	now      func() time.Time
}

func NewService(db *sqlx.DB) *Service {
	return &Service{
		licenses: license.NewService(db),
		now:      time.Now,
	}
}

// Validate runs the entitlement checks in order: existence, status, expiry,
// network. The first failing check decides the verdict.
func (s *Service) Validate(ctx context.Context, req *Request) *Response {
	if req.LicenseKey == "" {
		return deny(errcode.New(errcode.MissingParams, "license_key is required"))
	}

	lic, err := s.licenses.GetByKeyAndProduct(ctx, req.LicenseKey, req.ProductName)
	if err != nil {
		log.Printf("validation lookup failed (key %q): %v", req.LicenseKey, err)
		return deny(errcode.New(errcode.Internal, "internal error"))
	}
	if lic == nil {
		return deny(errcode.New(errcode.LicenseNotFound, "license key not found"))
	}

	if lic.Status != license.StatusActive {
		return deny(errcode.New(errcode.LicenseInactive, "license is %s", lic.Status))
	}

	if lic.IsExpiredAsOf(s.today()) {
		// Persist the transition so later checks short-circuit on status.
		// Only one caller wins the flip; the rest see a no-op.
		if _, err := s.licenses.MarkExpired(ctx, lic.LicenseID); err != nil {
			log.Printf("mark license %d expired failed: %v", lic.LicenseID, err)
		}
		return deny(errcode.New(errcode.LicenseExpired, "license expired on %s", lic.ExpiryDate.String))
	}

	// The network check only applies when the caller says where it is; a
	// request without a client address skips it
	if req.ClientIP != "" && len(lic.AllowedNetworks) > 0 && !network.Match(req.ClientIP, lic.AllowedNetworks) {
		return deny(errcode.New(errcode.NetworkNotAllowed, "client address is outside the allowed networks"))
	}

	// Telemetry only, a failed write never invalidates the verdict
	if err := s.licenses.TouchLastActive(ctx, lic.LicenseID, s.now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("touch last_active_at for license %d failed: %v", lic.LicenseID, err)
	}

	return &Response{Valid: true, License: toDetail(lic)}
}

func (s *Service) today() string {
	return s.now().UTC().Format(license.DateFormat)
}

func deny(pe *errcode.Error) *Response {
	return &Response{
		Valid:     false,
		Error:     pe.Message,
		ErrorCode: pe.Code,
	}
}

func toDetail(lic *license.License) *LicenseDetail {
	d := &LicenseDetail{
		ProductName:     lic.ProductName,
		TierName:        lic.TierName,
		Status:          lic.Status,
		Seats:           lic.Seats,
		AllowedNetworks: lic.AllowedNetworks,
		Perpetual:       lic.IsPerpetual(),
		Features:        lic.Features,
		Addons:          lic.Addons,
	}
	if d.AllowedNetworks == nil {
		d.AllowedNetworks = []string{}
	}
	if d.Features == nil {
		d.Features = []string{}
	}
	if d.Addons == nil {
		d.Addons = []string{}
	}
	if lic.MaxHosts.Valid {
		v := lic.MaxHosts.Int64
		d.MaxHosts = &v
	}
	if lic.ConcurrentSessions.Valid {
		v := lic.ConcurrentSessions.Int64
		d.ConcurrentSessions = &v
	}
	if lic.UsageHoursLimit.Valid {
		v := lic.UsageHoursLimit.Int64
		d.UsageHoursLimit = &v
	}
	if !d.Perpetual {
		d.ExpiryDate = lic.ExpiryDate.String
	}
	return d
}
