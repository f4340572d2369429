package admin

import "github.com/labstack/echo/v4"

func RegisterRoutes(g *echo.Group, h *Handler) {

	// Licenses
	g.GET("/licenses", h.GetLicenses)
	g.GET("/licenses/:key", h.GetLicense)
	g.POST("/licenses", h.CreateLicense)
	g.PUT("/licenses/:key", h.UpdateLicense)
	g.DELETE("/licenses/:key", h.DeleteLicense)

	// Activations
	g.GET("/licenses/:key/activations", h.GetActivations)
	g.DELETE("/licenses/:key/activations/:host", h.DeactivateHost)

	// Backup
	g.POST("/backup", h.BackupDatabase)
}
