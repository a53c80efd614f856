package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmptyPassword      = errors.New("password is required")
	// bcrypt ignores everything past 72 bytes.
	ErrPasswordTooLong = errors.New("password too long (max 72 bytes)")
)

// TokenIssuer signs access tokens for an owner.
type TokenIssuer interface {
	Generate(owner string) (string, error)
	TTL() time.Duration
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AuthService struct {
	users  store.UserStore
	tokens TokenIssuer
	cost   int
	now    func() time.Time
	logger *applog.Logger
}

func NewAuthService(users store.UserStore, tokens TokenIssuer, logger *applog.Logger) *AuthService {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentAuth)
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: logger.WithComponent(applog.ComponentAuth),
	}
}

// Register creates an account. The username becomes the owner id.
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := core.User{Username: username, PasswordHash: string(hash), CreatedAt: s.now().UTC()}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered",
		applog.FieldOwner, username,
		applog.FieldOperation, applog.OpRegister)
	return nil
}

// Login checks the password and issues an access token.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	u, err := s.users.GetUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login failed",
			applog.FieldOwner, username,
			applog.FieldOperation, applog.OpLogin)
		return Token{}, ErrInvalidCredentials
	}

	tok, err := s.tokens.Generate(u.Username)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
	}, nil
}
