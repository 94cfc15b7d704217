package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/signage-backend/internal/platform/apierr"
	"github.com/yungbote/signage-backend/internal/platform/ctxutil"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type Config struct {
	SecretKey string
	AccessTTL time.Duration
	Username  string
	// Password may be plain text or a bcrypt hash ("$2a$...").
	Password string
}

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
}

type service struct {
	log          *logger.Logger
	secret       []byte
	accessTTL    time.Duration
	username     string
	passwordHash []byte
	now          func() time.Time
}

func NewService(cfg Config, log *logger.Logger) (Service, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("missing JWT secret key")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("admin credentials are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	hash := []byte(cfg.Password)
	if _, err := bcrypt.Cost(hash); err != nil {
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}
	return &service{
		log:          log.With("service", "AuthService"),
		secret:       []byte(cfg.SecretKey),
		accessTTL:    cfg.AccessTTL,
		username:     cfg.Username,
		passwordHash: hash,
		now:          time.Now,
	}, nil
}

// Login checks the admin credentials and returns a signed access token.
func (s *service) Login(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.log.Warn("Rejected login", "username", username)
		return "", apierr.Unauthorized("invalid username or password")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("Admin logged in", "username", username)
	return signed, nil
}

func (s *service) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return ctx, apierr.Unauthorized("failed to parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tokenString, Actor: claims.Subject}), nil
}

func (s *service) AccessTTL() time.Duration {
	return s.accessTTL
}
