package admin

import (
	"database/sql"

	"winsbygroup.com/licserver/internal/activation"
	"winsbygroup.com/licserver/internal/license"
)

// -------------------------
// License DTOs
// -------------------------

type LicenseRequest struct {
	LicenseKey         string   `json:"licenseKey"`
	ProductName        string   `json:"productName"`
	TierName           string   `json:"tierName"`
	Status             string   `json:"status"`
	Seats              int      `json:"seats"`
	MaxHosts           *int64   `json:"maxHosts"`
	AllowedNetworks    []string `json:"allowedNetworks"`
	ConcurrentSessions *int64   `json:"concurrentSessions"`
	UsageHoursLimit    *int64   `json:"usageHoursLimit"`
	ExpiryDate         string   `json:"expiryDate"`
	Features           []string `json:"features"`
	Addons             []string `json:"addons"`
}

type LicenseResponse struct {
	LicenseID          int64    `json:"licenseId"`
	LicenseKey         string   `json:"licenseKey"`
	ProductName        string   `json:"productName"`
	TierName           string   `json:"tierName"`
	Status             string   `json:"status"`
	Seats              int      `json:"seats"`
	MaxHosts           *int64   `json:"maxHosts"`
	AllowedNetworks    []string `json:"allowedNetworks"`
	ConcurrentSessions *int64   `json:"concurrentSessions"`
	UsageHoursLimit    *int64   `json:"usageHoursLimit"`
	ExpiryDate         string   `json:"expiryDate,omitempty"`
	Features           []string `json:"features"`
	Addons             []string `json:"addons"`
	LastActiveAt       string   `json:"lastActiveAt,omitempty"`
}

type ActivationResponse struct {
	ActivationID   string            `json:"activationId"`
	HostIdentifier string            `json:"hostIdentifier"`
	HostName       string            `json:"hostName,omitempty"`
	HostIP         string            `json:"hostIp,omitempty"`
	ActivatedAt    string            `json:"activatedAt"`
	LastSeenAt     string            `json:"lastSeenAt"`
	IsActive       bool              `json:"isActive"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (r *LicenseRequest) toModel() *license.License {
	lic := &license.License{
		LicenseKey:      r.LicenseKey,
		ProductName:     r.ProductName,
		TierName:        r.TierName,
		Status:          r.Status,
		Seats:           r.Seats,
		AllowedNetworks: license.StringList(r.AllowedNetworks),
		Features:        license.StringList(r.Features),
		Addons:          license.StringList(r.Addons),
	}
	if lic.Status == "" {
		lic.Status = license.StatusActive
	}
	if r.MaxHosts != nil {
		lic.MaxHosts = sql.NullInt64{Int64: *r.MaxHosts, Valid: true}
	}
	if r.ConcurrentSessions != nil {
		lic.ConcurrentSessions = sql.NullInt64{Int64: *r.ConcurrentSessions, Valid: true}
	}
	if r.UsageHoursLimit != nil {
		lic.UsageHoursLimit = sql.NullInt64{Int64: *r.UsageHoursLimit, Valid: true}
	}
	if r.ExpiryDate != "" {
		lic.ExpiryDate = sql.NullString{String: r.ExpiryDate, Valid: true}
	}
	return lic
}

func toResponse(lic *license.License) *LicenseResponse {
	out := &LicenseResponse{
		LicenseID:       lic.LicenseID,
		LicenseKey:      lic.LicenseKey,
		ProductName:     lic.ProductName,
		TierName:        lic.TierName,
		Status:          lic.Status,
		Seats:           lic.Seats,
		AllowedNetworks: lic.AllowedNetworks,
		Features:        lic.Features,
		Addons:          lic.Addons,
	}
	if out.AllowedNetworks == nil {
		out.AllowedNetworks = []string{}
	}
	if out.Features == nil {
		out.Features = []string{}
	}
	if out.Addons == nil {
		out.Addons = []string{}
	}
	if lic.MaxHosts.Valid {
		v := lic.MaxHosts.Int64
		out.MaxHosts = &v
	}
	if lic.ConcurrentSessions.Valid {
		v := lic.ConcurrentSessions.Int64
		out.ConcurrentSessions = &v
	}
	if lic.UsageHoursLimit.Valid {
		v := lic.UsageHoursLimit.Int64
		out.UsageHoursLimit = &v
	}
	if lic.ExpiryDate.Valid {
		out.ExpiryDate = lic.ExpiryDate.String
	}
	if lic.LastActiveAt.Valid {
		out.LastActiveAt = lic.LastActiveAt.String
	}
	return out
}

func toActivationResponse(a *activation.Activation) *ActivationResponse {
	return &ActivationResponse{
		ActivationID:   a.ActivationID,
		HostIdentifier: a.HostIdentifier,
		HostName:       a.HostName,
		HostIP:         a.HostIP,
		ActivatedAt:    a.ActivatedAt,
		LastSeenAt:     a.LastSeenAt,
		IsActive:       a.IsActive,
		Metadata:       a.Metadata,
	}
}
