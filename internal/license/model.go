package license

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"winsbygroup.com/licserver/internal/network"
)

// License statuses. Only "active" licenses accept protocol operations.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
	StatusRevoked   = "revoked"
)

// DateFormat is the storage format for expiry dates.
const DateFormat = "2006-01-02"

// Tiers exempt from expiry enforcement regardless of any stored expiry date.
var perpetualTiers = map[string]bool{
	"Commercial": true,
	"Free":       true,
}

// Validation errors
var (
	ErrInvalidStatus   = errors.New("status must be one of active, suspended, expired, revoked")
	ErrInvalidSeats    = errors.New("seats must not be negative")
	ErrInvalidMaxHosts = errors.New("max_hosts must be at least 1 when set")
	ErrInvalidNetwork  = errors.New("allowed_networks entries must be IP addresses or CIDR ranges")
	ErrInvalidExpiry   = errors.New("expiry_date must be empty or in YYYY-MM-DD format")
)

// License is the persisted entitlement grant. It is created and edited by the
// admin API; the enforcement core only flips status to expired and bumps
// last_active_at.
type License struct {
	LicenseID          int64          `db:"license_id"`
	LicenseKey         string         `db:"license_key"`
	ProductName        string         `db:"product_name"`
	TierName           string         `db:"tier_name"`
	Status             string         `db:"status"`
	Seats              int            `db:"seats"`
	MaxHosts           sql.NullInt64  `db:"max_hosts"`
	AllowedNetworks    StringList     `db:"allowed_networks"`
	ConcurrentSessions sql.NullInt64  `db:"concurrent_sessions"`
	UsageHoursLimit    sql.NullInt64  `db:"usage_hours_limit"`
	ExpiryDate         sql.NullString `db:"expiry_date"`
	Features           StringList     `db:"features"`
	Addons             StringList     `db:"addons"`
	LastActiveAt       sql.NullString `db:"last_active_at"`
}

// IsPerpetual reports whether the license is exempt from expiry checks,
// either by tier designation or by having no expiry date at all.
func (l *License) IsPerpetual() bool {
	if perpetualTiers[l.TierName] {
		return true
	}
	return !l.ExpiryDate.Valid || l.ExpiryDate.String == ""
}

// IsExpiredAsOf reports whether a non-perpetual license's expiry date has
// passed. today is a DateFormat date string.
func (l *License) IsExpiredAsOf(today string) bool {
	if l.IsPerpetual() {
		return false
	}
	return l.ExpiryDate.String < today
}

// Validate checks business rules for a license record
func (l *License) Validate() error {
	switch l.Status {
	case StatusActive, StatusSuspended, StatusExpired, StatusRevoked:
	default:
		return ErrInvalidStatus
	}
	if l.Seats < 0 {
		return ErrInvalidSeats
	}
	if l.MaxHosts.Valid && l.MaxHosts.Int64 < 1 {
		return ErrInvalidMaxHosts
	}
	for _, entry := range l.AllowedNetworks {
		if !network.ValidEntry(entry) {
			return fmt.Errorf("%w: %q", ErrInvalidNetwork, entry)
		}
	}
	if l.ExpiryDate.Valid && l.ExpiryDate.String != "" && !validDate(l.ExpiryDate.String) {
		return ErrInvalidExpiry
	}
	return nil
}

// validDate requires a zero-padded YYYY-MM-DD naming a real calendar date.
// The length check rejects unpadded dates that time.Parse would accept.
func validDate(s string) bool {
	if len(s) != len(DateFormat) {
		return false
	}
	_, err := time.Parse(DateFormat, s)
	return err == nil
}

// StringList stores an ordered set of strings as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
}
