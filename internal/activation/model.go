package activation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Activation binds one host to one license. Records are never deleted:
// deactivation flips is_active off, a later activation for the same host
// flips it back, preserving history.
type Activation struct {
	ActivationID   string      `db:"activation_id"`
	LicenseID      int64       `db:"license_id"`
	HostIdentifier string      `db:"host_identifier"`
	HostName       string      `db:"host_name"`
	HostIP         string      `db:"host_ip"`
	ActivatedAt    string      `db:"activated_at"`
	LastSeenAt     string      `db:"last_seen_at"`
	IsActive       bool        `db:"is_active"`
	Metadata       MetadataMap `db:"metadata"`
}

// SlotInfo is the slot accounting attached to every activation response.
// MaxHosts and RemainingSlots are nil for unlimited licenses.
type SlotInfo struct {
	MaxHosts       *int64 `json:"max_hosts"`
	ActiveHosts    int64  `json:"active_hosts"`
	RemainingSlots *int64 `json:"remaining_slots"`
}

// MetadataMap stores free-form host metadata as a JSON object column.
type MetadataMap map[string]string

func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		m = MetadataMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

func (m *MetadataMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = MetadataMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}
}
