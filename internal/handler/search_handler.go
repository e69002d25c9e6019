package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	userID := c.Query("user_id")
	query := c.Query("q")
	if userID == "" || query == "" {
		response.Error(c, errcode.ErrInvalid, "user_id and q are required")
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
	mode := c.Query("search_mode")
	switch mode {
	case "", service.SearchModeUnified, service.SearchModeIndividual:
	default:
		response.Error(c, errcode.ErrInvalid, "invalid search_mode")
		return
	}
	results, err := h.search.Search(c.Request.Context(), service.SearchRequest{
		UserID: userID,
		Query:  query,
		PDFIDs: c.QueryArray("pdf_id"),
		Mode:   mode,
		Limit:  limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	response.Success(c, gin.H{"results": results})
}
