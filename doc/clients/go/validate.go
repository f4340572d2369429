// sample implementation, do not build or test
//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type ValidateRequest struct {
	LicenseKey  string `json:"license_key"`
	ProductName string `json:"product_name,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
}

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

type ValidateResponse struct {
	Valid     bool           `json:"valid"`
	License   *LicenseDetail `json:"license,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// ValidateLicense checks whether the key grants entitlement for the product.
func ValidateLicense(baseURL, licenseKey, productName string) (*ValidateResponse, error) {
	body, err := json.Marshal(ValidateRequest{
		LicenseKey:  licenseKey,
		ProductName: productName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", baseURL+"/api/v1/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

// HasFeature reports whether a validated license carries the named feature.
func HasFeature(detail *LicenseDetail, name string) bool {
	if detail == nil {
		return false
	}
	for _, f := range detail.Features {
		if f == name {
			return true
		}
	}
	return false
}
