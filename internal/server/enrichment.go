package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	enrichmentdomain "github.com/skipscan/skipscan/internal/enrichment/domain"
)

type enrichRequest struct {
	enrichmentdomain.EnrichmentRequest
	Label string `json:"label"`
}

func (s *Server) Enrich(c *gin.Context) {
	kind := strings.TrimSpace(c.Param("kind"))

	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.enrichmentSvc.Invoke(c.Request.Context(), kind, strings.TrimSpace(req.Label), req.EnrichmentRequest)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type batchUploadRequest struct {
	Label    string                          `json:"label"`
	Rows     []enrichmentdomain.BatchRow     `json:"rows"`
	Mappings enrichmentdomain.ColumnMappings `json:"mappings"`
}

func (s *Server) EnrichBatch(c *gin.Context) {
	var req batchUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.enrichmentSvc.ProcessBatch(c.Request.Context(), strings.TrimSpace(req.Label), req.Rows, req.Mappings)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
