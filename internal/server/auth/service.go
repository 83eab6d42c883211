package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noteit/noteit/internal/models"
	"github.com/noteit/noteit/internal/server/otp"
	"github.com/noteit/noteit/internal/server/refresh"
	"github.com/noteit/noteit/internal/server/storage"
	"github.com/noteit/noteit/internal/server/token"
)

var (
	// ErrInvalidCredentials is returned when email/password verification fails
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidOTP is returned when the signup OTP is missing, expired, or wrong
	ErrInvalidOTP = errors.New("invalid otp")
)

// Service orchestrates session issuance: it authenticates a user, then mints
// the access/refresh pair through the token signer and rotation service.
type Service struct {
	logger   *slog.Logger
	users    storage.UserStorage
	signer   *token.Service
	rotation *refresh.Service
	otps     *otp.Cache
	mailer   otp.Mailer
}

// NewService creates a session issuance service
func NewService(
	logger *slog.Logger,
	users storage.UserStorage,
	signer *token.Service,
	rotation *refresh.Service,
	otps *otp.Cache,
	mailer otp.Mailer,
) *Service {
	return &Service{
		logger:   logger,
		users:    users,
		signer:   signer,
		rotation: rotation,
		otps:     otps,
		mailer:   mailer,
	}
}

// LoginResult carries everything a successful login produces.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken *models.RefreshToken
}

// Login verifies the credentials and mints a fresh access/refresh pair.
// The refresh record overwrites the user's previous one.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed: bad password", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.signer.SignAccess(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.rotation.CreateOrRotate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Signup checks that the username and email are free, then generates an OTP
// and hands it to the mailer. The account is only created after VerifyOTP.
func (s *Service) Signup(ctx context.Context, username, email string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return fmt.Errorf("%w: username taken", storage.ErrUserAlreadyExists)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email taken", storage.ErrUserAlreadyExists)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	code, err := otp.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	s.otps.Save(email, code)

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}

	s.logger.InfoContext(ctx, "signup otp sent", slog.String("email", email))

	return nil
}

// VerifyOTP consumes the pending OTP for the email and creates the account.
func (s *Service) VerifyOTP(ctx context.Context, email, code, username, password string) (*models.User, error) {
	if !s.otps.Verify(email, code) {
		return nil, ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", username))

	return user, nil
}
