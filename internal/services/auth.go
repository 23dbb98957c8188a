package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quizzer-backend/internal/middleware"
	"quizzer-backend/internal/models"
	"quizzer-backend/internal/repository"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// bcrypt only reads the first 72 bytes and x/crypto rejects longer input.
const bcryptMaxBytes = 72

// bcryptInput truncates the password to what bcrypt hashes, so long
// passwords log in the same way on create and on verify.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

type AuthService struct {
	users           UserStore
	jwt             *middleware.JWTAuth
	verifyPasswords bool
	log             *zap.Logger
}

func NewAuthService(users UserStore, jwt *middleware.JWTAuth, verifyPasswords bool, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, verifyPasswords: verifyPasswords, log: log.Named("auth")}
}

// Login signs the user in, creating the account on first use. The password is
// only checked against the stored hash when verification is enabled.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	fieldErrors := make(map[string]string)
	if username == "" {
		fieldErrors["username"] = "Username is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if email != "" && !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if len(fieldErrors) > 0 {
		msg := "Username and password are required."
		if username != "" && req.Password != "" {
			msg = "Invalid email format."
		}
		return nil, &ValidationError{Message: msg, Fields: fieldErrors}
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.provision(ctx, username, req.Password, email)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if s.verifyPasswords {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), bcryptInput(req.Password)); err != nil {
				return nil, &UnauthorizedError{Message: "Invalid username or password"}
			}
		}
		if email != "" && (user.Email == nil || *user.Email != email) {
			if err := s.users.UpdateEmail(ctx, user.ID, email); err != nil {
				return nil, fmt.Errorf("failed to update email: %w", err)
			}
			user.Email = &email
		}
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.LoginResponse{
		Message: "Mock login successful.",
		Token:   token,
		UserID:  user.ID,
	}, nil
}

func (s *AuthService) provision(ctx context.Context, username, password, email string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if email != "" {
		user.Email = &email
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent login created the same user first.
		return s.users.GetByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("user provisioned", zap.String("user_id", user.ID.String()), zap.String("username", username))
	return user, nil
}
