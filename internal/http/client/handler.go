package client

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"winsbygroup.com/licserver/internal/activation"
	"winsbygroup.com/licserver/internal/errcode"
	"winsbygroup.com/licserver/internal/validation"
)

type Handler struct {
	Dispatcher *activation.Dispatcher
	Validator  *validation.Service
}

func NewHandler(d *activation.Dispatcher, v *validation.Service) *Handler {
	return &Handler{
		Dispatcher: d,
		Validator:  v,
	}
}

// POST /activation
func (h *Handler) Activation(c echo.Context) error {
	var req activation.ProtocolRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	resp := h.Dispatcher.Dispatch(c.Request().Context(), &req)
	if !resp.Success {
		return c.JSON(statusFor(resp.ErrorCode), resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /validate
func (h *Handler) Validate(c echo.Context) error {
	var req validation.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	// Fall back to the connection's address when the client doesn't say
	// where it is
	if req.ClientIP == "" {
		req.ClientIP = c.RealIP()
	}

	resp := h.Validator.Validate(c.Request().Context(), &req)
	if !resp.Valid {
		return c.JSON(statusFor(resp.ErrorCode), resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// statusFor maps protocol error codes onto HTTP statuses. The codes stay
// transport-independent; only this layer knows about HTTP.
func statusFor(code string) int {
	switch code {
	case errcode.MissingParams, errcode.InvalidAction:
		return http.StatusBadRequest
	case errcode.LicenseNotFound:
		return http.StatusNotFound
	case errcode.LicenseInactive, errcode.LicenseExpired, errcode.NetworkNotAllowed:
		return http.StatusForbidden
	case errcode.MaxHostsReached, errcode.NotActivated:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
