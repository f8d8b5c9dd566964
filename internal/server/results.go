package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	queryresultdomain "github.com/skipscan/skipscan/internal/queryresult/domain"
)

func (s *Server) ListResults(c *gin.Context) {
	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	results, err := s.resultSvc.List(c.Request.Context(), queryresultdomain.ListRequest{
		Limit: query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) GetResultByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	result, err := s.resultSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
