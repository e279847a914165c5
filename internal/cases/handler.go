package cases

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"casetrack-backend/internal/shared/server/middleware"
	"casetrack-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches case mutation routes to the router group. The
// derived views (today, upcoming week, sorted list) live in the schedule
// handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cases", h.create)
	rg.GET("/cases/:caseId", h.get)
	rg.PATCH("/cases/:caseId", h.update)
	rg.DELETE("/cases/:caseId", h.delete)

	rg.POST("/cases/:caseId/hearings", h.addHearing)
	rg.PATCH("/cases/:caseId/hearings/:hearingId", h.updateHearing)
	rg.DELETE("/cases/:caseId/hearings/:hearingId", h.deleteHearing)

	rg.POST("/cases/:caseId/files", h.uploadFiles)
	rg.POST("/cases/:caseId/files/register", h.registerFile)
	rg.DELETE("/cases/:caseId/files/:fileId", h.deleteFile)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	in := CreateCaseInput{
		ClientName: req.ClientName,
		CaseNumber: req.CaseNumber,
		CourtName:  req.CourtName,
		Status:     req.Status,
		Notes:      req.Notes,
	}
	for _, hr := range req.HearingDates {
		in.HearingDates = append(in.HearingDates, HearingDate{
			Date:  hr.Date,
			Time:  hr.Time,
			Notes: hr.Notes,
		})
	}
	for _, fr := range req.Files {
		in.Files = append(in.Files, CaseFile{
			FileName: fr.FileName,
			FileType: fr.FileType,
			FileData: fr.FileData,
		})
	}

	created, err := h.Svc.CreateCase(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to create case")
		return
	}
	respond.JSON(c, http.StatusCreated, ToResponse(created))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	found, err := h.Svc.Get(c.Request.Context(), userID, c.Param("caseId"))
	if err != nil {
		h.respondError(c, err, "failed to fetch case")
		return
	}
	respond.OK(c, ToResponse(found))
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	updated, err := h.Svc.UpdateCase(c.Request.Context(), userID, c.Param("caseId"), CaseUpdate{
		ClientName: req.ClientName,
		CaseNumber: req.CaseNumber,
		CourtName:  req.CourtName,
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "failed to update case")
		return
	}
	respond.OK(c, ToResponse(updated))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.DeleteCase(c.Request.Context(), userID, c.Param("caseId")); err != nil {
		h.respondError(c, err, "failed to delete case")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addHearing(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createHearingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	added, err := h.Svc.AddHearing(c.Request.Context(), userID, c.Param("caseId"), HearingDate{
		Date:  req.Date,
		Time:  req.Time,
		Notes: req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "failed to add hearing")
		return
	}
	respond.JSON(c, http.StatusCreated, toHearingResponse(added))
}

func (h *Handler) updateHearing(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateHearingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Svc.UpdateHearing(c.Request.Context(), userID, c.Param("caseId"), c.Param("hearingId"), HearingUpdate{
		Date:  req.Date,
		Time:  req.Time,
		Notes: req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "failed to update hearing")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteHearing(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.Svc.DeleteHearing(c.Request.Context(), userID, c.Param("caseId"), c.Param("hearingId"))
	if err != nil {
		h.respondError(c, err, "failed to delete hearing")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadFiles(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}

	uploads := make([]FileUpload, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		uploads = append(uploads, FileUpload{
			FileName: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}

	results, err := h.Svc.UploadFiles(c.Request.Context(), userID, c.Param("caseId"), uploads)
	if err != nil {
		h.respondError(c, err, "failed to upload files")
		return
	}

	resp := make([]fileResultResponse, 0, len(results))
	anyFailed := false
	for _, res := range results {
		item := fileResultResponse{FileName: res.FileName, OK: !res.Failed()}
		if res.Failed() {
			anyFailed = true
			item.Error = res.Err.Error()
		} else {
			fr := FileResponse{
				ID:         res.File.ID,
				FileName:   res.File.FileName,
				FileType:   res.File.FileType,
				FileData:   res.File.FileData,
				UploadedAt: res.File.UploadedAt,
			}
			item.File = &fr
		}
		resp = append(resp, item)
	}

	status := http.StatusCreated
	if anyFailed {
		status = http.StatusMultiStatus
	}
	respond.JSON(c, status, gin.H{"results": resp})
}

func (h *Handler) registerFile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req registerFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	f, err := h.Svc.RegisterStoredFile(c.Request.Context(), userID, c.Param("caseId"), req.StorageKey, req.FileName, req.FileType)
	if err != nil {
		h.respondError(c, err, "failed to register file")
		return
	}
	respond.JSON(c, http.StatusCreated, FileResponse{
		ID:         f.ID,
		FileName:   f.FileName,
		FileType:   f.FileType,
		FileData:   f.FileData,
		UploadedAt: f.UploadedAt,
	})
}

func (h *Handler) deleteFile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	err := h.Svc.DeleteFile(c.Request.Context(), userID, c.Param("caseId"), c.Param("fileId"))
	if err != nil {
		h.respondError(c, err, "failed to delete file")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, err.Error())
	}
}
