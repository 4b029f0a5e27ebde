package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/logtrackr/internal/api/middleware"
	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/services"
)

// multipartOverhead leaves room for the form envelope around the file.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	service    *services.UploadService
	auth       *services.AuthService
	errorLimit int
}

// NewUploadHandler returns an UploadHandler reporting at most errorLimit row
// errors per response.
func NewUploadHandler(service *services.UploadService, auth *services.AuthService, errorLimit int) *UploadHandler {
	if errorLimit < 1 {
		errorLimit = 10
	}
	return &UploadHandler{service: service, auth: auth, errorLimit: errorLimit}
}

// Upload ingests the CSV in the multipart field "file".
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxBytes()+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, ingest.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	up := services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
		ActorID:  middleware.UserID(c),
	}
	if user, err := h.auth.GetUserByID(up.ActorID); err == nil {
		up.ActorName = user.Email
	}

	res, err := h.service.Ingest(c.Request.Context(), up)
	var noRows *ingest.NoValidRowsError
	switch {
	case errors.As(err, &noRows):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "No valid records found in file",
			"errors": res.Messages(h.errorLimit),
		})
		return
	case err != nil:
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       fmt.Sprintf("Successfully uploaded %d records", res.Created),
		"created_count": res.Created,
		"error_count":   res.Rejected,
		"errors":        res.Messages(h.errorLimit),
	})
}

// History lists the caller's most recent uploads.
func (h *UploadHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	audits, err := h.service.RecentAudits(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": audits})
}

// RegisterRoutes mounts the upload endpoints. limit, when non-nil, guards
// the ingest endpoint only.
func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	handlers := []gin.HandlerFunc{h.Upload}
	if limit != nil {
		handlers = append([]gin.HandlerFunc{limit}, handlers...)
	}
	rg.POST("/upload", handlers...)
	rg.GET("/upload/history", h.History)
}
