// Package auth validates bearer tokens issued by the identity provider
// against its published JWKS.
package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrMissingSub   = errors.New("token has no subject")
	ErrJWKSFetch    = errors.New("failed to fetch JWKS")
)

const (
	defaultCacheDuration = time.Hour
	defaultFetchTimeout  = 10 * time.Second
)

// Claims are the identity claims the API reads from an access token
type Claims struct {
	Sub       string `json:"sub"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`

	jwt.RegisteredClaims
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"` // Key type
	Kid string `json:"kid"` // Key ID
	Use string `json:"use"` // Public key use
	Alg string `json:"alg"` // Algorithm
	Crv string `json:"crv"` // Curve (EC)
	X   string `json:"x"`   // X coordinate (EC)
	Y   string `json:"y"`   // Y coordinate (EC)
	N   string `json:"n"`   // Modulus (RSA)
	E   string `json:"e"`   // Exponent (RSA)
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Config configures token validation
type Config struct {
	JWKSURL  string
	Issuer   string
	DevMode  bool
	DevToken string
	DevUser  string
}

// Service validates tokens using keys from a JWKS endpoint
type Service struct {
	cfg           Config
	httpClient    *http.Client
	keys          map[string]crypto.PublicKey
	keysMutex     sync.RWMutex
	lastFetch     time.Time
	cacheDuration time.Duration
}

// NewService creates a validator. A JWKS URL is required unless dev mode
// is on, in which case only the dev token is accepted without one.
func NewService(cfg Config) (*Service, error) {
	if cfg.JWKSURL == "" && !cfg.DevMode {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	if cfg.DevUser == "" {
		cfg.DevUser = "dev-user"
	}

	s := &Service{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: defaultFetchTimeout},
		keys:          make(map[string]crypto.PublicKey),
		cacheDuration: defaultCacheDuration,
	}

	if cfg.JWKSURL != "" {
		if err := s.fetchJWKS(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
		}
	}

	if cfg.DevMode {
		log.Warn("Dev authentication enabled", "user", cfg.DevUser)
	}

	return s, nil
}

// fetchJWKS fetches and parses the JWKS
func (s *Service) fetchJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.JWKSURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrJWKSFetch, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		key, err := parseKey(jwk)
		if err != nil {
			log.Debug("Skipping JWK", "kid", jwk.Kid, "kty", jwk.Kty, "error", err)
			continue
		}
		keys[jwk.Kid] = key
	}

	s.keysMutex.Lock()
	s.keys = keys
	s.lastFetch = time.Now()
	s.keysMutex.Unlock()

	log.Debug("Loaded JWKS", "keys", len(keys))
	return nil
}

func parseKey(jwk JWK) (crypto.PublicKey, error) {
	switch jwk.Kty {
	case "EC":
		return parseECKey(jwk)
	case "RSA":
		return parseRSAKey(jwk)
	default:
		return nil, fmt.Errorf("unsupported key type %q", jwk.Kty)
	}
}

// parseECKey converts a P-256 JWK to an ECDSA public key
func parseECKey(jwk JWK) (*ecdsa.PublicKey, error) {
	if jwk.Crv != "" && jwk.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve %q", jwk.Crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode X coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// parseRSAKey converts an RSA JWK to a public key
func parseRSAKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}

// getPublicKey retrieves a public key by kid, refreshing JWKS if necessary
func (s *Service) getPublicKey(ctx context.Context, kid string) (crypto.PublicKey, error) {
	s.keysMutex.RLock()
	key, exists := s.keys[kid]
	shouldRefresh := time.Since(s.lastFetch) > s.cacheDuration
	s.keysMutex.RUnlock()

	if (!exists || shouldRefresh) && s.cfg.JWKSURL != "" {
		if err := s.fetchJWKS(ctx); err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}

		s.keysMutex.RLock()
		key, exists = s.keys[kid]
		s.keysMutex.RUnlock()
	}

	if !exists {
		return nil, fmt.Errorf("key with id %s not found", kid)
	}

	return key, nil
}

// ValidateToken validates a bearer token and returns its claims
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)

	if s.cfg.DevMode && s.cfg.DevToken != "" &&
		subtle.ConstantTimeCompare([]byte(tokenString), []byte(s.cfg.DevToken)) == 1 {
		return s.DevClaims(), nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"ES256", "RS256"}),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("no kid found in token header")
		}
		return s.getPublicKey(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, ErrJWKSFetch) {
			return nil, apperrors.ExternalServiceError("jwks", err)
		}
		log.Debug("Token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Sub == "" {
		return nil, ErrMissingSub
	}

	return claims, nil
}

// DevClaims returns the fixed identity used for the dev token
func (s *Service) DevClaims() *Claims {
	now := time.Now()
	return &Claims{
		Sub:       s.cfg.DevUser,
		Email:     s.cfg.DevUser + "@localhost",
		FirstName: "Dev",
		LastName:  "User",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}
