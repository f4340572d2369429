// sample implementation, do not build or test
//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type ActivationRequest struct {
	LicenseKey     string            `json:"license_key"`
	HostIdentifier string            `json:"host_identifier"`
	HostName       string            `json:"host_name,omitempty"`
	HostIP         string            `json:"host_ip,omitempty"`
	Action         string            `json:"action"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type ActivationRecord struct {
	ID             string            `json:"id"`
	HostIdentifier string            `json:"host_identifier"`
	HostName       string            `json:"host_name,omitempty"`
	HostIP         string            `json:"host_ip,omitempty"`
	ActivatedAt    string            `json:"activated_at"`
	LastSeenAt     string            `json:"last_seen_at"`
	IsActive       bool              `json:"is_active"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type SlotInfo struct {
	MaxHosts       *int64 `json:"max_hosts"`
	ActiveHosts    int64  `json:"active_hosts"`
	RemainingSlots *int64 `json:"remaining_slots"`
}

type ActivationResponse struct {
	Success     bool               `json:"success"`
	Action      string             `json:"action,omitempty"`
	Activation  *ActivationRecord  `json:"activation,omitempty"`
	Activations []ActivationRecord `json:"activations,omitempty"`
	LicenseInfo *SlotInfo          `json:"license_info,omitempty"`
	Error       string             `json:"error,omitempty"`
	ErrorCode   string             `json:"error_code,omitempty"`
}

// SendActivation posts one activation protocol request. action is one of
// "activate", "deactivate", "heartbeat" or "status".
func SendActivation(baseURL, licenseKey, hostIdentifier, hostName, action string) (*ActivationResponse, error) {
	reqBody := ActivationRequest{
		LicenseKey:     licenseKey,
		HostIdentifier: hostIdentifier,
		HostName:       hostName,
		Action:         action,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", baseURL+"/api/v1/activation", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// Policy rejections also carry a decoded body, so decode before
	// checking the status
	var result ActivationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !result.Success && result.ErrorCode == "" {
		return nil, fmt.Errorf("activation failed: %s", resp.Status)
	}
	return &result, nil
}

// SlotsRemaining reports how many activation slots are left, or -1 when the
// license is unlimited.
func SlotsRemaining(resp *ActivationResponse) int64 {
	if resp.LicenseInfo == nil || resp.LicenseInfo.RemainingSlots == nil {
		return -1
	}
	return *resp.LicenseInfo.RemainingSlots
}
