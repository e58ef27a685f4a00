package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/middleware"
	"rachmat-backend/internal/models"
	"rachmat-backend/internal/storage"
)

type PatternsHandler struct {
	dbClient *database.Client
	store    *storage.Store
}

func NewPatternsHandler(dbClient *database.Client, store *storage.Store) *PatternsHandler {
	return &PatternsHandler{
		dbClient: dbClient,
		store:    store,
	}
}

// CreatePattern godoc
// @Summary     Create a pattern
// @Description Creates a new pattern owned by the authenticated designer. Files are uploaded separately, one per format.
// @Tags        patterns
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreatePatternRequest true "Pattern details"
// @Success     200 {object} models.PatternResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /patterns [post]
func (h *PatternsHandler) CreatePattern(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	designerID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	var req models.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	pattern := &models.Pattern{
		ID:         uuid.New(),
		DesignerID: designerID,
		Title:      req.Title,
		Price:      req.Price,
		Active:     true,
	}

	pattern, err = h.dbClient.CreatePattern(pattern)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create pattern",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, patternResponse(pattern))
}

// ListMyPatterns godoc
// @Summary     List my patterns
// @Description Returns all patterns owned by the authenticated designer.
// @Tags        patterns
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.PatternListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /designers/me/patterns [get]
func (h *PatternsHandler) ListMyPatterns(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	designerID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	patterns, err := h.dbClient.ListPatternsByDesigner(designerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list patterns",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.PatternResponse, len(patterns))
	for i := range patterns {
		responses[i] = patternResponse(&patterns[i])
	}

	c.JSON(http.StatusOK, models.PatternListResponse{Patterns: responses})
}

// UploadPatternFile godoc
// @Summary     Upload a pattern file
// @Description Appends one downloadable file (a machine format of the design) to a pattern owned by the authenticated designer. The first uploaded file becomes the primary one.
// @Tags        patterns
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       pattern_id path string true "Pattern ID (UUID)"
// @Param       file formData file true "Pattern file"
// @Param       format formData string false "Format tag (defaults to the file extension)"
// @Success     200 {object} models.PatternResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /patterns/{pattern_id}/files [post]
func (h *PatternsHandler) UploadPatternFile(c *gin.Context) {
	if h.dbClient == nil || h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	designerID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	patternID, err := uuid.Parse(c.Param("pattern_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid pattern id"})
		return
	}

	pattern, err := h.dbClient.GetPattern(patternID)
	if err != nil || pattern.DesignerID != designerID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "pattern not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file", Message: err.Error()})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to open file", Message: err.Error()})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	originalName := filepath.Base(fileHeader.Filename)
	format := c.PostForm("format")
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	}

	// Prefix with a short random id so re-uploading the same filename never
	// overwrites an already-sold file.
	storagePath := fmt.Sprintf("patterns/%s/%s_%s", patternID, uuid.New().String()[:8], originalName)
	if err := h.store.Write(storagePath, data); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store file",
			Message: err.Error(),
		})
		return
	}

	file := models.PatternFile{
		Path:         storagePath,
		OriginalName: originalName,
		Format:       format,
		Size:         int64(len(data)),
		Primary:      len(pattern.Files) == 0,
	}

	if err := h.dbClient.AppendPatternFile(patternID, designerID, file); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save file metadata",
			Message: err.Error(),
		})
		return
	}

	pattern, err = h.dbClient.GetPattern(patternID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to reload pattern",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, patternResponse(pattern))
}

func patternResponse(pattern *models.Pattern) models.PatternResponse {
	files := make([]models.PatternFileResponse, len(pattern.Files))
	for i, f := range pattern.Files {
		files[i] = models.PatternFileResponse{
			OriginalName: f.OriginalName,
			Format:       f.Format,
			Size:         f.Size,
			Primary:      f.Primary,
		}
	}

	return models.PatternResponse{
		ID:            pattern.ID.String(),
		DesignerID:    pattern.DesignerID.String(),
		Title:         pattern.Title,
		Price:         pattern.Price,
		Active:        pattern.Active,
		Files:         files,
		PreviewImages: pattern.PreviewImages,
		CreatedAt:     pattern.CreatedAt,
		UpdatedAt:     pattern.UpdatedAt,
	}
}
