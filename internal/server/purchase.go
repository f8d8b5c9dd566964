package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/skipscan/skipscan/internal/purchase/domain"
)

type createCheckoutRequest struct {
	PackageID string `json:"package_id"`
	Quantity  int64  `json:"quantity"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.purchaseSvc.CreateSession(c.Request.Context(), purchasedomain.CreateSessionRequest{
		PackageID: strings.TrimSpace(req.PackageID),
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

type verifyCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

// VerifyCheckout is the pull side of reconciliation: the success page
// calls it with the session ID so credits land even when the webhook
// delivery is delayed or lost.
func (s *Server) VerifyCheckout(c *gin.Context) {
	var req verifyCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		AbortWithError(c, newValidationError("session_id", "required", "session_id is required"))
		return
	}

	result, err := s.paymentSvc.VerifySession(c.Request.Context(), sessionID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) SandboxGrant(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	outcome, err := s.purchaseSvc.GrantDirect(c.Request.Context(), purchasedomain.CreateSessionRequest{
		PackageID: strings.TrimSpace(req.PackageID),
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcome})
}
