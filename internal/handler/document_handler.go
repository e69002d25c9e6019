package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) ListPDFs(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	pdfs, err := h.documents.ListPDFs(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	if pdfs == nil {
		pdfs = []model.PDFInfo{}
	}
	response.Success(c, gin.H{"pdfs": pdfs})
}

func (h *DocumentHandler) GetChunks(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = parsed
	}
	chunks, err := h.documents.GetChunks(c.Request.Context(), userID, c.QueryArray("pdf_id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if chunks == nil {
		chunks = []model.ChunkRecord{}
	}
	response.Success(c, gin.H{"chunks": chunks})
}
