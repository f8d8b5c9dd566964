package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListPackages(c *gin.Context) {
	packages, err := s.packageSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": packages})
}
