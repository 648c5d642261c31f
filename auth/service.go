package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong login or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInvalidToken signals a missing, malformed, expired or forged token.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service handles center registration, authentication, and token issuance.
type Service struct {
	repo        Repository
	jwtSecret   []byte
	tokenTTL    time.Duration
	idGenerator func() string
	now         func() time.Time
}

// LoginResult bundles the token and domain center returned after a successful login.
type LoginResult struct {
	Token  string
	Center Center
}

// NewService creates a new authentication service. A tokenTTL of zero issues
// tokens without an expiry claim.
func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithIDGenerator overrides id generation, intended for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

// WithClock overrides the time source, intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new center account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Center, error) {
	if len(req.Password) < 8 {
		return Center{}, ErrWeakPassword
	}

	name := strings.TrimSpace(req.Name)
	login := strings.TrimSpace(req.Login)
	address := strings.TrimSpace(req.Address)
	if name == "" || login == "" || address == "" {
		return Center{}, fmt.Errorf("auth: name, login and address are required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Center{}, fmt.Errorf("auth: hash password: %w", err)
	}

	center, err := s.repo.CreateCenter(ctx, CreateCenterParams{
		ID:           s.idGenerator(),
		Name:         name,
		Login:        login,
		PasswordHash: string(passwordHash),
		Address:      address,
	})
	if err != nil {
		return Center{}, err
	}

	return center, nil
}

// Login authenticates a center, appends one audit record, and returns a
// signed bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	center, err := s.repo.GetCenterByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, ErrCenterNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(center.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(center.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	if err := s.repo.InsertAuthEvent(ctx, s.idGenerator(), center.ID); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Token:  token,
		Center: center,
	}, nil
}

// GetCenterByID retrieves center information by ID.
func (s *Service) GetCenterByID(ctx context.Context, centerID string) (Center, error) {
	return s.repo.GetCenterByID(ctx, centerID)
}

// AuthEvents returns the most recent audit records for a center.
func (s *Service) AuthEvents(ctx context.Context, centerID string, limit int) ([]AuthEvent, error) {
	return s.repo.ListAuthEvents(ctx, centerID, limit)
}

// VerifyToken validates a bearer token and returns the center ID it carries.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	centerID, ok := claims["center_id"].(string)
	if !ok || centerID == "" {
		return "", ErrInvalidToken
	}
	return centerID, nil
}

// generateToken signs a JWT carrying the center identity. Expiry is enforced
// at validation time by jwt.Parse whenever the exp claim is present.
func (s *Service) generateToken(centerID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"center_id": centerID,
		"iat":       now.Unix(),
	}
	if s.tokenTTL > 0 {
		claims["exp"] = now.Add(s.tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
