package domain

import (
	"context"
	"errors"
)

type CreateAccountRequest struct {
	Email             string
	DisplayName       string
	IsPartnerCRMUser  bool
	PartnerLocationID string
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	Get(ctx context.Context) (Account, error)
	Balance(ctx context.Context) (int64, error)
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrEmailTaken     = errors.New("email_taken")
	ErrNotFound       = errors.New("not_found")
)
