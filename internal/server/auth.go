package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
)

type signupRequest struct {
	Email             string `json:"email"`
	DisplayName       string `json:"display_name"`
	IsPartnerCRMUser  bool   `json:"is_partner_crm_user"`
	PartnerLocationID string `json:"partner_location_id"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateAccountRequest{
		Email:             strings.TrimSpace(req.Email),
		DisplayName:       strings.TrimSpace(req.DisplayName),
		IsPartnerCRMUser:  req.IsPartnerCRMUser,
		PartnerLocationID: strings.TrimSpace(req.PartnerLocationID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"account": account,
		"token":   token,
	}})
}
