package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/auth"
	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken indicates the refresh token could not be used.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles account registration and token issuance.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	users      repository.UserRepository
	access     *auth.Signer
	refresh    *auth.Signer
	validator  *validator.Validate
	logger     zerolog.Logger
	bcryptCost int
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, access, refresh *auth.Signer, validator *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		access:     access,
		refresh:    refresh,
		validator:  validator,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	payload.Email = normalizeEmail(payload.Email)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.createUser(ctx, payload.Email, payload.Password, models.UserRoleUser)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	payload.Email = normalizeEmail(payload.Email)
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Info().Uint("user_id", user.ID).Msg("login rejected")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	identity, err := s.refresh.Parse(payload.RefreshToken)
	if err != nil {
		return dto.AuthResponse{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidRefreshToken
		}
		return dto.AuthResponse{}, err
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

// EnsureAdmin creates an administrator account when none exists for email.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := s.createUser(ctx, email, password, models.UserRoleAdmin)
	if err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("admin account created")
	return nil
}

func (s *authService) createUser(ctx context.Context, email, password, role string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusUser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	identity := auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}

	accessToken, accessExpiry, err := s.access.Issue(identity)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	refreshToken, refreshExpiry, err := s.refresh.Issue(identity)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
		TokenType:        "Bearer",
		User:             dto.NewUserResponse(user),
	}, nil
}
