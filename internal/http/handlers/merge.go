package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ram-020998/nexusmerge/internal/archive"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/http/response"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
	"github.com/ram-020998/nexusmerge/internal/services"
)

// formFieldByRole maps package roles to the multipart field carrying the
// corresponding zip upload.
var formFieldByRole = map[string]string{
	merge.RoleBase:       "base_package",
	merge.RoleCustomized: "customized_package",
	merge.RoleNewVendor:  "new_vendor_package",
}

type MergeHandler struct {
	log   *logger.Logger
	merge services.MergeService

	maxUploadBytes int64
}

func NewMergeHandler(log *logger.Logger, mergeSvc services.MergeService, maxUploadBytes int64) *MergeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 256 << 20
	}
	return &MergeHandler{
		log:            log.With("handler", "MergeHandler"),
		merge:          mergeSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateSession accepts the three zip uploads, unpacks them, and runs the
// full comparison pipeline before responding.
func (h *MergeHandler) CreateSession(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	form := c.Request.MultipartForm
	if form == nil {
		response.RespondError(c, http.StatusBadRequest, "missing_packages", nil)
		return
	}

	workDir, err := os.MkdirTemp("", "nexusmerge-upload-*")
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "workspace_unavailable", err)
		return
	}
	defer os.RemoveAll(workDir)

	inputs := make([]services.PackageInput, 0, len(formFieldByRole))
	for role, field := range formFieldByRole {
		headers := form.File[field]
		if len(headers) == 0 {
			response.RespondError(c, http.StatusBadRequest, "missing_package",
				fmt.Errorf("multipart field %q is required", field))
			return
		}
		dir, err := h.unpackUpload(c, headers[0], workDir, field)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_package_archive", err)
			return
		}
		inputs = append(inputs, services.PackageInput{
			Role:     role,
			Filename: filepath.Base(headers[0].Filename),
			Dir:      dir,
		})
	}

	session, err := h.merge.CreateMergeSession(c.Request.Context(), inputs)
	if err != nil {
		// A session row that reached ERROR is still useful to the client.
		if session != nil {
			response.RespondUnprocessable(c, session)
			return
		}
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, session)
}

func (h *MergeHandler) unpackUpload(c *gin.Context, fh *multipart.FileHeader, workDir, field string) (string, error) {
	zipPath := filepath.Join(workDir, field+".zip")
	if err := c.SaveUploadedFile(fh, zipPath); err != nil {
		return "", fmt.Errorf("save upload %q: %w", field, err)
	}
	destDir := filepath.Join(workDir, field)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	if err := archive.ExtractZip(zipPath, destDir); err != nil {
		return "", err
	}
	return destDir, nil
}

func (h *MergeHandler) ListSessions(c *gin.Context) {
	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	sessions, err := h.merge.ListSessions(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

func (h *MergeHandler) GetSession(c *gin.Context) {
	detail, err := h.merge.GetSession(c.Request.Context(), c.Param("reference_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func (h *MergeHandler) GetWorkingSet(c *gin.Context) {
	entries, progress, err := h.merge.GetWorkingSet(c.Request.Context(), c.Param("reference_id"), strings.TrimSpace(c.Query("classification")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"changes": entries, "progress": progress})
}

func (h *MergeHandler) GetChangeDetail(c *gin.Context) {
	changeID, err := uuid.Parse(c.Param("change_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_change_id", err)
		return
	}
	detail, err := h.merge.GetChangeDetail(c.Request.Context(), c.Param("reference_id"), changeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

type reviewRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *MergeHandler) ReviewChange(c *gin.Context) {
	changeID, err := uuid.Parse(c.Param("change_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_change_id", err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}
	if err := h.merge.ReviewChange(c.Request.Context(), c.Param("reference_id"), changeID, req.Status, req.Notes); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "updated"})
}

func (h *MergeHandler) DeleteSession(c *gin.Context) {
	if err := h.merge.DeleteSession(c.Request.Context(), c.Param("reference_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted"})
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
