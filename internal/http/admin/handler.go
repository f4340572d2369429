package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"winsbygroup.com/licserver/internal/activation"
	"winsbygroup.com/licserver/internal/backup"
	"winsbygroup.com/licserver/internal/license"
)

type Handler struct {
	licenses *license.Service
	registry *activation.Service
	backups  *backup.Service
}

func NewHandler(licenses *license.Service, registry *activation.Service, backups *backup.Service) *Handler {
	return &Handler{
		licenses: licenses,
		registry: registry,
		backups:  backups,
	}
}

// Licenses

func (h *Handler) GetLicenses(c echo.Context) error {
	all, err := h.licenses.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	out := make([]LicenseResponse, 0, len(all))
	for i := range all {
		out = append(out, *toResponse(&all[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetLicense(c echo.Context) error {
	lic, err := h.licenses.GetByKey(c.Request().Context(), c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if lic == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "license not found"})
	}
	return c.JSON(http.StatusOK, toResponse(lic))
}

func (h *Handler) CreateLicense(c echo.Context) error {
	var req LicenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.LicenseKey == "" || req.ProductName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "licenseKey and productName are required"})
	}

	lic := req.toModel()
	if err := lic.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if existing, err := h.licenses.GetByKey(ctx, lic.LicenseKey); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	} else if existing != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "license key already exists"})
	}

	created, err := h.licenses.Create(ctx, lic)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, toResponse(created))
}

func (h *Handler) UpdateLicense(c echo.Context) error {
	key := c.Param("key")
	ctx := c.Request().Context()

	existing, err := h.licenses.GetByKey(ctx, key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "license not found"})
	}

	var req LicenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	// The key in the URL wins; updates cannot rename a license
	lic := req.toModel()
	lic.LicenseKey = existing.LicenseKey
	lic.LicenseID = existing.LicenseID
	if err := lic.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.licenses.Update(ctx, lic); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteLicense(c echo.Context) error {
	found, err := h.licenses.Delete(c.Request().Context(), c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "license not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Activations

func (h *Handler) GetActivations(c echo.Context) error {
	ctx := c.Request().Context()
	lic, err := h.licenses.GetByKey(ctx, c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if lic == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "license not found"})
	}

	records, err := h.registry.Status(ctx, lic)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	out := make([]ActivationResponse, 0, len(records))
	for i := range records {
		out = append(out, *toActivationResponse(&records[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// DeactivateHost force-releases a host's slot from the admin side.
func (h *Handler) DeactivateHost(c echo.Context) error {
	ctx := c.Request().Context()
	lic, err := h.licenses.GetByKey(ctx, c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if lic == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "license not found"})
	}

	if err := h.registry.Deactivate(ctx, lic, c.Param("host")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// Backup

func (h *Handler) BackupDatabase(c echo.Context) error {
	result, err := h.backups.Create(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}
