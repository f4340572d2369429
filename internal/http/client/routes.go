package client

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all client-facing endpoints under the given Echo group.
// Both endpoints authenticate with the license key in the request body, so no
// extra middleware is needed here.
func RegisterRoutes(g *echo.Group, h *Handler) {

	// Activation protocol: activate, deactivate, heartbeat, status
	g.POST("/activation", h.Activation)

	// Entitlement check
	g.POST("/validate", h.Validate)
}
