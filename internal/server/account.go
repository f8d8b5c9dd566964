package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAccount(c *gin.Context) {
	account, err := s.accountSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": account})
}

// GetBalance exists for pollers that only want the credit counter and
// not the whole account document.
func (s *Server) GetBalance(c *gin.Context) {
	balance, err := s.accountSvc.Balance(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"credits": balance}})
}
