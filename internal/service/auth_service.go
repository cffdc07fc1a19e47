package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/repository"
)

var (
	ErrPrincipalExists    = errors.New("principal already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPrincipalInactive  = errors.New("principal is inactive")
	ErrPrincipalBanned    = errors.New("principal is banned")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	JWTSecret          string
	Issuer             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register registers a new principal and issues a token pair
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Principal, *domain.TokenPair, error)
	// Login authenticates a principal and issues a token pair
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.Principal, *domain.TokenPair, error)
	// Refresh rotates a refresh token and issues a new pair
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	// Logout revokes the presented refresh token
	Logout(ctx context.Context, refreshToken string) error
	// ValidateAccessToken verifies an access token and returns its claims
	ValidateAccessToken(tokenString string) (*domain.Claims, error)
	// GetPrincipal retrieves a principal by ID
	GetPrincipal(ctx context.Context, id string) (*domain.Principal, error)
	// SetBanned bans or unbans a principal, revoking refresh tokens on ban
	SetBanned(ctx context.Context, id string, banned bool) error
	// SetActive deactivates or reactivates a principal
	SetActive(ctx context.Context, id string, active bool) error
}

// authService implements AuthService
type authService struct {
	principalRepo repository.PrincipalRepository
	tokenRepo     repository.RefreshTokenRepository
	config        *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	principalRepo repository.PrincipalRepository,
	tokenRepo repository.RefreshTokenRepository,
	config *AuthServiceConfig,
) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.AccessTokenExpiry == 0 {
		config.AccessTokenExpiry = 15 * time.Minute
	}
	if config.RefreshTokenExpiry == 0 {
		config.RefreshTokenExpiry = 30 * 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "storefront"
	}
	return &authService{
		principalRepo: principalRepo,
		tokenRepo:     tokenRepo,
		config:        config,
	}
}

// Register registers a new principal and issues a token pair
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Principal, *domain.TokenPair, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.principalRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrPrincipalExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	principal := &domain.Principal{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Role:         domain.RoleClient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.principalRepo.Create(ctx, principal); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, principal)
	if err != nil {
		return nil, nil, err
	}

	return principal, pair, nil
}

// Login authenticates a principal and issues a token pair
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.Principal, *domain.TokenPair, error) {
	principal, err := s.principalRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, nil, err
	}
	if principal == nil {
		// Burn a comparison anyway so missing accounts cost the same as
		// wrong passwords
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"), []byte(req.Password))
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if principal.IsBanned {
		return nil, nil, ErrPrincipalBanned
	}
	if !principal.IsActive {
		return nil, nil, ErrPrincipalInactive
	}

	pair, err := s.issueTokenPair(ctx, principal)
	if err != nil {
		return nil, nil, err
	}

	return principal, pair, nil
}

// Refresh rotates a refresh token and issues a new pair. Presenting a
// revoked token is treated as theft: every live token for that
// principal is revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.tokenRepo.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}
	if record.Revoked() {
		_ = s.tokenRepo.RevokeAllForPrincipal(ctx, record.PrincipalID)
		return nil, ErrTokenRevoked
	}
	if record.Expired() {
		return nil, ErrTokenExpired
	}

	principal, err := s.principalRepo.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		return nil, err
	}
	if principal.IsBanned {
		return nil, ErrPrincipalBanned
	}
	if !principal.IsActive {
		return nil, ErrPrincipalInactive
	}

	pair, newID, err := s.issueTokenPairWithID(ctx, principal)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Revoke(ctx, record.ID, newID); err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout revokes the presented refresh token. An unknown token is
// already logged out.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.tokenRepo.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	return s.tokenRepo.Revoke(ctx, record.ID, "")
}

// ValidateAccessToken verifies an access token and returns its claims
func (s *authService) ValidateAccessToken(tokenString string) (*domain.Claims, error) {
	return s.parseToken(tokenString)
}

// GetPrincipal retrieves a principal by ID
func (s *authService) GetPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	return s.principalRepo.GetByID(ctx, id)
}

// SetBanned bans or unbans a principal. Banning also revokes every
// live refresh token so the session dies within one access token TTL.
func (s *authService) SetBanned(ctx context.Context, id string, banned bool) error {
	if err := s.principalRepo.SetBanned(ctx, id, banned); err != nil {
		return err
	}
	if banned {
		return s.tokenRepo.RevokeAllForPrincipal(ctx, id)
	}
	return nil
}

// SetActive deactivates or reactivates a principal
func (s *authService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.principalRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		return s.tokenRepo.RevokeAllForPrincipal(ctx, id)
	}
	return nil
}

// issueTokenPair issues a signed access and refresh token pair and
// persists the refresh token's hash
func (s *authService) issueTokenPair(ctx context.Context, principal *domain.Principal) (*domain.TokenPair, error) {
	pair, _, err := s.issueTokenPairWithID(ctx, principal)
	return pair, err
}

func (s *authService) issueTokenPairWithID(ctx context.Context, principal *domain.Principal) (*domain.TokenPair, string, error) {
	now := time.Now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"principal_id": principal.ID,
		"email":        principal.Email,
		"role":         string(principal.Role),
		"iss":          s.config.Issuer,
		"exp":          now.Add(s.config.AccessTokenExpiry).Unix(),
		"iat":          now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, "", err
	}

	jti := uuid.New().String()
	refreshExpiry := now.Add(s.config.RefreshTokenExpiry)
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"principal_id": principal.ID,
		"email":        principal.Email,
		"role":         string(principal.Role),
		"jti":          jti,
		"iss":          s.config.Issuer,
		"exp":          refreshExpiry.Unix(),
		"iat":          now.Unix(),
	})

	refreshTokenString, err := refreshToken.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, "", err
	}

	record := &domain.RefreshToken{
		ID:          jti,
		PrincipalID: principal.ID,
		TokenHash:   hashToken(refreshTokenString),
		ExpiresAt:   refreshExpiry,
		CreatedAt:   now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, "", err
	}

	return &domain.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
	}, jti, nil
}

// parseToken verifies signature, expiry and issuer and extracts
// identity claims
func (s *authService) parseToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	principalID, ok := claims["principal_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &domain.Claims{
		PrincipalID: principalID,
		Email:       email,
		Role:        domain.Role(role),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
