package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/middleware"
)

type RouterDeps struct {
	Ingest      *IngestHandler
	Search      *SearchHandler
	Documents   *DocumentHandler
	Admin       *AdminHandler
	RateLimitMS int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	group := api.Group("")
	if deps.RateLimitMS > 0 {
		group.Use(middleware.RateLimit(time.Duration(deps.RateLimitMS) * time.Millisecond))
	}
	group.POST("/ingest", deps.Ingest.Ingest)
	group.POST("/ingest/file", deps.Ingest.IngestFile)
	group.GET("/search", deps.Search.Search)
	group.GET("/pdfs", deps.Documents.ListPDFs)
	group.GET("/chunks", deps.Documents.GetChunks)

	api.POST("/admin/reset_table", deps.Admin.ResetTable)
}
