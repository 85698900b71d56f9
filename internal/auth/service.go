package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agri-broker/broker-portal/broker-portal-backend/internal/users"
	"agri-broker/broker-portal/broker-portal-backend/pkg/apperrors"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
)

// RegisterRequest creates an account of any role
type RegisterRequest struct {
	Email        string         `json:"email" binding:"required,email"`
	Password     string         `json:"password" binding:"required,min=6"`
	Role         users.Role     `json:"role" binding:"required"`
	FirmName     string         `json:"firm_name" binding:"required"`
	Phone        string         `json:"phone" binding:"required"`
	Address      string         `json:"address"`
	PanNumber    string         `json:"pan_number"`
	AadharNumber string         `json:"aadhar_number"`
	UpiID        string         `json:"upi_id"`
	BankInfo     map[string]any `json:"bank_info"`
}

// LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

// Service handles account registration and login
type Service struct {
	repo   users.Repository
	tokens *TokenManager
	logger *zap.Logger
}

func NewService(repo users.Repository, tokens *TokenManager, logger *zap.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register stores the user with a bcrypt password hash and returns a token
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !req.Role.Valid() {
		return nil, apperrors.Validation("invalid role %q", req.Role)
	}
	if len(notify.LastTen(req.Phone)) != 10 {
		return nil, apperrors.Validation("phone must contain at least 10 digits")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	user := &users.User{
		Email:        &email,
		Password:     string(hash),
		Role:         req.Role,
		FirmName:     req.FirmName,
		Phone:        req.Phone,
		Address:      req.Address,
		PanNumber:    req.PanNumber,
		AadharNumber: req.AadharNumber,
		UpiID:        req.UpiID,
		BankInfo:     req.BankInfo,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to issue token")
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &AuthResponse{User: user, Token: token}, nil
}

// Login verifies the password and returns a fresh token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}
