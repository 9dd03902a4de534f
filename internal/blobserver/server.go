// Package blobserver is the remote persistence endpoint: one opaque JSON
// document per identifier, upserted whole. It is intentionally
// unauthenticated -- in a single-household deployment any client may read or
// write any identifier, including the shared settings document. That is a
// known property of the protocol, not an oversight; deployments beyond one
// household need an auth layer in front.
package blobserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"contas/internal/models"
	"contas/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxDocumentBytes bounds a single stored document.
const maxDocumentBytes = 4 << 20

// Handler serves the blob store API.
type Handler struct {
	DB  *gorm.DB
	hub *hub
}

// New constructs the handler around the document database.
func New(db *gorm.DB) *Handler {
	return &Handler{DB: db, hub: newHub()}
}

// Router configures the gin engine with all blob store routes.
func Router(mode string, db *gorm.DB) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := New(db)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/db", h.GetDocument)
	api.POST("/db", h.PutDocument)
	api.GET("/watch", h.Watch)
	api.GET("/export/csv", h.ExportCSV)
	api.GET("/export/xlsx", h.ExportXLSX)

	return r
}

// GetDocument returns the raw stored document. Absence is a plain 404 so
// clients can treat "no record yet" as a normal first-sync branch.
func (h *Handler) GetDocument(c *gin.Context) {
	identifier := c.Query("identifier")
	if identifier == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "identifier is required")
		return
	}
	if h.DB == nil {
		util.Error(c, http.StatusServiceUnavailable, util.CodeUnavailable, "storage not configured")
		return
	}

	var doc models.Document
	if err := h.DB.First(&doc, "identifier = ?", identifier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "no record")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", doc.Body)
}

// PutDocument upserts the document for an identifier and broadcasts the
// change to watch subscribers.
func (h *Handler) PutDocument(c *gin.Context) {
	identifier := c.Query("identifier")
	if identifier == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "identifier is required")
		return
	}
	if h.DB == nil {
		util.Error(c, http.StatusServiceUnavailable, util.CodeUnavailable, "storage not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil || len(body) == 0 || len(body) > maxDocumentBytes {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid body")
		return
	}
	if !json.Valid(body) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "body must be JSON")
		return
	}

	doc := models.Document{Identifier: identifier, Body: datatypes.JSON(body), UpdatedAt: time.Now()}
	if err := h.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed")
		return
	}

	h.hub.broadcast(identifier)

	util.Success(c, util.Response{
		"identifier": identifier,
		"bytes":      len(body),
	})
}
