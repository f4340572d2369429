package activation

import (
	"context"
	"errors"
	"log"

	"winsbygroup.com/licserver/internal/errcode"
	"winsbygroup.com/licserver/internal/license"
)

// Protocol actions.
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionHeartbeat  = "heartbeat"
	ActionStatus     = "status"
)

// ProtocolRequest is the activation protocol envelope.
type ProtocolRequest struct {
	LicenseKey     string            `json:"license_key"`
	HostIdentifier string            `json:"host_identifier"`
	HostName       string            `json:"host_name,omitempty"`
	HostIP         string            `json:"host_ip,omitempty"`
	Action         string            `json:"action"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ActivationInfo is the wire shape of one activation record.
type ActivationInfo struct {
	ID             string            `json:"id"`
	HostIdentifier string            `json:"host_identifier"`
	HostName       string            `json:"host_name,omitempty"`
	HostIP         string            `json:"host_ip,omitempty"`
	ActivatedAt    string            `json:"activated_at"`
	LastSeenAt     string            `json:"last_seen_at"`
	IsActive       bool              `json:"is_active"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ProtocolResponse is the activation protocol reply. LicenseInfo reflects
// slot accounting after the operation.
type ProtocolResponse struct {
	Success     bool             `json:"success"`
	Action      string           `json:"action,omitempty"`
	Activation  *ActivationInfo  `json:"activation,omitempty"`
	Activations []ActivationInfo `json:"activations,omitempty"`
	LicenseInfo *SlotInfo        `json:"license_info,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorCode   string           `json:"error_code,omitempty"`
}

// Dispatcher is the single entry point for the activation protocol. It is
// transport-agnostic: handlers decode a ProtocolRequest, call Dispatch, and
// encode the ProtocolResponse.
type Dispatcher struct {
	licenses *license.Service
	registry *Service
}

func NewDispatcher(licenses *license.Service, registry *Service) *Dispatcher {
	return &Dispatcher{
		licenses: licenses,
		registry: registry,
	}
}

// Dispatch validates the request, loads the license once, routes the action
// to the registry, and shapes a uniform response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *ProtocolRequest) *ProtocolResponse {
	switch req.Action {
	case ActionActivate, ActionDeactivate, ActionHeartbeat, ActionStatus:
	default:
		return failure(req.Action,
			errcode.New(errcode.InvalidAction, "unknown action %q", req.Action))
	}

	if req.LicenseKey == "" {
		return failure(req.Action,
			errcode.New(errcode.MissingParams, "license_key is required"))
	}
	if req.Action != ActionStatus && req.HostIdentifier == "" {
		return failure(req.Action,
			errcode.New(errcode.MissingParams, "host_identifier is required"))
	}

	lic, err := d.licenses.GetByKey(ctx, req.LicenseKey)
	if err != nil {
		return d.internalError(req.Action, nil, err)
	}
	if lic == nil {
		return failure(req.Action,
			errcode.New(errcode.LicenseNotFound, "license key not found"))
	}
	if lic.Status != license.StatusActive {
		return failure(req.Action,
			errcode.New(errcode.LicenseInactive, "license is %s", lic.Status))
	}

	resp := &ProtocolResponse{Success: true, Action: req.Action}

	switch req.Action {
	case ActionActivate:
		a, err := d.registry.Activate(ctx, lic, &ActivateParams{
			HostIdentifier: req.HostIdentifier,
			HostName:       req.HostName,
			HostIP:         req.HostIP,
			Metadata:       req.Metadata,
		})
		if err != nil {
			return d.operationError(ctx, req.Action, lic, err)
		}
		resp.Activation = toInfo(a)

	case ActionDeactivate:
		if err := d.registry.Deactivate(ctx, lic, req.HostIdentifier); err != nil {
			return d.operationError(ctx, req.Action, lic, err)
		}

	case ActionHeartbeat:
		if err := d.registry.Heartbeat(ctx, lic, req.HostIdentifier); err != nil {
			return d.operationError(ctx, req.Action, lic, err)
		}

	case ActionStatus:
		activations, err := d.registry.Status(ctx, lic)
		if err != nil {
			return d.operationError(ctx, req.Action, lic, err)
		}
		resp.Activations = make([]ActivationInfo, 0, len(activations))
		for i := range activations {
			resp.Activations = append(resp.Activations, *toInfo(&activations[i]))
		}
	}

	slots, err := d.registry.Slots(ctx, lic)
	if err != nil {
		return d.internalError(req.Action, lic, err)
	}
	resp.LicenseInfo = slots

	return resp
}

// operationError shapes a registry failure, attaching post-operation slot
// accounting when it can still be read. Policy violations are expected
// traffic and are not logged.
func (d *Dispatcher) operationError(ctx context.Context, action string, lic *license.License, err error) *ProtocolResponse {
	var pe *errcode.Error
	if !errors.As(err, &pe) {
		return d.internalError(action, lic, err)
	}

	resp := failure(action, pe)
	if slots, serr := d.registry.Slots(ctx, lic); serr == nil {
		resp.LicenseInfo = slots
	}
	return resp
}

func (d *Dispatcher) internalError(action string, lic *license.License, err error) *ProtocolResponse {
	key := ""
	if lic != nil {
		key = lic.LicenseKey
	}
	log.Printf("activation %s failed (license %q): %v", action, key, err)
	return failure(action, errcode.New(errcode.Internal, "internal error"))
}

func failure(action string, pe *errcode.Error) *ProtocolResponse {
	return &ProtocolResponse{
		Success:   false,
		Action:    action,
		Error:     pe.Message,
		ErrorCode: pe.Code,
	}
}

func toInfo(a *Activation) *ActivationInfo {
	return &ActivationInfo{
		ID:             a.ActivationID,
		HostIdentifier: a.HostIdentifier,
		HostName:       a.HostName,
		HostIP:         a.HostIP,
		ActivatedAt:    a.ActivatedAt,
		LastSeenAt:     a.LastSeenAt,
		IsActive:       a.IsActive,
		Metadata:       a.Metadata,
	}
}
