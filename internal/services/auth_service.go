package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
	"github.com/lotsaero/rifa-backend/internal/utils"
)

// ErrInvalidCredentials is returned for any failed login attempt. The
// response never distinguishes unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthService defines the interface for admin authentication
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	EnsureBootstrapAdmin(ctx context.Context) error
}

// Compile-time check to ensure authService implements AuthService
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repositories.AdminUserRepository
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(userRepo repositories.AdminUserRepository, cfg *config.Config, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Login verifies admin credentials and issues a JWT
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", req.Email).Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role, s.cfg)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", user.Email).Msg("admin logged in")
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// EnsureBootstrapAdmin seeds the configured admin account on first
// start so the console is reachable without manual database setup.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context) error {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		s.logger.Warn().Msg("no bootstrap admin configured, skipping seed")
		return nil
	}

	_, err := s.userRepo.FindByEmail(ctx, s.cfg.Admin.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.AdminUser{
		Name:      "Administrator",
		Email:     s.cfg.Admin.Email,
		Password:  string(hashed),
		Role:      "admin",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("email", user.Email).Msg("bootstrap admin created")
	return nil
}
