package screenconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"photobooth-admin-api/internal/middlewares"
	"photobooth-admin-api/internal/report"
)

type ScreenConfigController struct {
	ScreenConfigService ScreenConfigServiceAPI
}

type UpdateInput struct {
	Path  any `json:"path"`
	Value any `json:"value"`
}

func (sc *ScreenConfigController) ListScreens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": sc.ScreenConfigService.Screens(c.Request.Context())})
}

func (sc *ScreenConfigController) GetConfig(c *gin.Context) {
	view, err := sc.ScreenConfigService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PATCH /api/screens/:key/config  {"path": "capture_params.countdown", "value": 5}
func (sc *ScreenConfigController) UpdateConfig(c *gin.Context) {
	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := sc.ScreenConfigService.Update(c.Request.Context(), c.Param("key"), input.Path, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (sc *ScreenConfigController) SaveConfig(c *gin.Context) {
	view, err := sc.ScreenConfigService.Save(c.Request.Context(), c.Param("key"), middlewares.OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/screens/:key/config/export[?archive=true]
func (sc *ScreenConfigController) ExportConfig(c *gin.Context) {
	key := c.Param("key")

	if archive, _ := strconv.ParseBool(c.Query("archive")); archive {
		location, err := sc.ScreenConfigService.ArchiveExport(c.Request.Context(), key, middlewares.OperatorID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"location": location})
		return
	}

	doc, err := sc.ScreenConfigService.Export(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("%s-config-%s.json", key, time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", doc)
}

func (sc *ScreenConfigController) ListArchives(c *gin.Context) {
	urls, err := sc.ScreenConfigService.Archives(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": urls})
}

// POST /api/screens/:key/config/import with the exported document as body.
func (sc *ScreenConfigController) ImportConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON document"})
		return
	}

	view, err := sc.ScreenConfigService.Import(c.Request.Context(), c.Param("key"), json.RawMessage(body), middlewares.OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (sc *ScreenConfigController) CloseSession(c *gin.Context) {
	if !sc.ScreenConfigService.CloseSession(c.Param("key")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no open session for screen"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (sc *ScreenConfigController) DownloadReport(c *gin.Context) {
	out, err := sc.ScreenConfigService.Report(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("screens-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, report.ContentType, out)
}

// GET /api/terminal/config/:key?last_modified=...
//
// last_modified is the updated_at of the copy the terminal already has,
// as RFC3339 or unix milliseconds.
func (sc *ScreenConfigController) GetTerminalConfig(c *gin.Context) {
	since, err := parseOptionalTime(c.Query("last_modified"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_modified (use RFC3339 or unix ms)"})
		return
	}

	res, err := sc.ScreenConfigService.GetIfModified(c.Request.Context(), c.Param("key"), since)
	if err != nil {
		respondError(c, err)
		return
	}

	cfg := res.Config
	c.Header("Last-Modified", cfg.UpdatedAt.UTC().Format(http.TimeFormat))

	if res.NotModified {
		c.JSON(http.StatusOK, gin.H{
			"not_modified": true,
			"screen_key":   cfg.ScreenKey,
			"id":           cfg.ID,
			"updated_at":   cfg.UpdatedAt,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"not_modified": false,
		"screen_key":   cfg.ScreenKey,
		"id":           cfg.ID,
		"updated_at":   cfg.UpdatedAt,
		"config":       cfg,
	})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrClosed):
		return http.StatusConflict
	case errors.Is(err, ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseOptionalTime(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t, nil
	}

	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		t := time.UnixMilli(ms)
		return &t, nil
	}

	return nil, strconv.ErrSyntax
}
