package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

const maxUploadBytes = 50 << 20

type IngestHandler struct {
	ingest *service.IngestService
	pdfs   *service.PDFService
}

func NewIngestHandler(ingest *service.IngestService, pdfs *service.PDFService) *IngestHandler {
	return &IngestHandler{ingest: ingest, pdfs: pdfs}
}

type ingestRequest struct {
	UserID    string                   `json:"user_id"`
	Documents []service.IngestDocument `json:"documents"`
}

// Ingest accepts pre-chunked documents, the shape clients that parse files
// locally submit.
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	report, err := h.ingest.Ingest(c.Request.Context(), req.UserID, req.Documents)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

// IngestFile accepts raw file uploads and chunks them server side.
func (h *IngestHandler) IngestFile(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "at least one file is required")
		return
	}

	var docs []service.IngestDocument
	for _, file := range files {
		if file.Size > maxUploadBytes {
			response.Error(c, errcode.ErrInvalidFile, "file too large: "+file.Filename)
			return
		}
		opened, err := file.Open()
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to open file: "+file.Filename)
			return
		}
		data, err := io.ReadAll(opened)
		opened.Close()
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to read file: "+file.Filename)
			return
		}
		chunks, err := h.pdfs.ExtractChunks(c.Request.Context(), file.Filename, data)
		if err != nil {
			handleError(c, err)
			return
		}
		h.pdfs.SaveOriginal(c.Request.Context(), userID, file.Filename, data)
		docs = append(docs, service.IngestDocument{Filename: file.Filename, Chunks: chunks})
	}

	report, err := h.ingest.Ingest(c.Request.Context(), userID, docs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
