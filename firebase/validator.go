package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hostelcare/complaint-api/auth"
)

// DefaultJWKSURL serves the public keys that sign Firebase ID tokens
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// issuerPrefix is followed by the project ID in every Firebase ID token
const issuerPrefix = "https://securetoken.google.com/"

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = auth.ErrInvalidToken

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = auth.ErrTokenExpired

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = fmt.Errorf("%w: invalid issuer", auth.ErrInvalidToken)

	// ErrInvalidAudience is returned when the token audience is invalid
	ErrInvalidAudience = fmt.Errorf("%w: invalid audience", auth.ErrInvalidToken)

	// ErrMissingSubject is returned when the token has no subject
	ErrMissingSubject = fmt.Errorf("%w: missing subject", auth.ErrInvalidToken)

	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = fmt.Errorf("%w: failed to fetch JWKS", auth.ErrVerifierUnavailable)
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Claims are the claims of a Firebase ID token
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	AuthTime      int64  `json:"auth_time"`
	UserID        string `json:"user_id"`
}

// Validator validates Firebase ID tokens against Google's published keys
type Validator struct {
	projectID  string
	issuer     string
	jwksURL    string
	httpClient *http.Client

	jwksCache     *JWKS
	jwksCacheExp  time.Time
	jwksCacheTTL  time.Duration
	jwksFetchedAt time.Time
	minRefresh    time.Duration
	cacheMu       sync.RWMutex

	keyCache   map[string]*rsa.PublicKey
	keyCacheMu sync.RWMutex
}

// Config holds configuration for Validator
type Config struct {
	ProjectID          string
	JWKSURL            string
	CacheTTL           time.Duration
	HTTPTimeout        time.Duration
	// MinRefreshInterval bounds how often an unknown kid may force a refetch
	MinRefreshInterval time.Duration
}

// NewValidator creates a new Firebase ID token validator
func NewValidator(config Config) *Validator {
	if config.CacheTTL == 0 {
		config.CacheTTL = 1 * time.Hour
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.JWKSURL == "" {
		config.JWKSURL = DefaultJWKSURL
	}
	if config.MinRefreshInterval == 0 {
		config.MinRefreshInterval = 30 * time.Second
	}

	return &Validator{
		projectID:    config.ProjectID,
		issuer:       issuerPrefix + config.ProjectID,
		jwksURL:      config.JWKSURL,
		jwksCacheTTL: config.CacheTTL,
		minRefresh:   config.MinRefreshInterval,
		httpClient: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		keyCache: make(map[string]*rsa.PublicKey),
	}
}

// Issuer returns the issuer this validator accepts
func (v *Validator) Issuer() string {
	return v.issuer
}

// ValidateToken validates a Firebase ID token and returns its identity claims
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}

		return v.getPublicKey(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}))

	if err != nil {
		if errors.Is(err, auth.ErrVerifierUnavailable) {
			return nil, err
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, v.issuer, claims.Issuer)
	}

	if !containsAudience(claims.Audience, v.projectID) {
		return nil, ErrInvalidAudience
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	parsed := &auth.Claims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Issuer:        claims.Issuer,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}

// FetchJWKS fetches the JWKS, serving from cache while it is fresh
func (v *Validator) FetchJWKS(ctx context.Context) (*JWKS, error) {
	v.cacheMu.RLock()
	if v.jwksCache != nil && time.Now().Before(v.jwksCacheExp) {
		defer v.cacheMu.RUnlock()
		return v.jwksCache, nil
	}
	v.cacheMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JWKS: %v", ErrJWKSFetchFailed, err)
	}

	v.cacheMu.Lock()
	v.jwksCache = &jwks
	v.jwksFetchedAt = time.Now()
	v.jwksCacheExp = v.jwksFetchedAt.Add(v.jwksCacheTTL)
	v.cacheMu.Unlock()

	return &jwks, nil
}

func (v *Validator) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.keyCacheMu.RLock()
	if key, exists := v.keyCache[kid]; exists {
		v.keyCacheMu.RUnlock()
		return key, nil
	}
	v.keyCacheMu.RUnlock()

	jwks, err := v.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	jwk := jwks.find(kid)
	if jwk == nil && v.refreshAllowed() {
		// Google rotates its signing keys; a new kid means the cached set is stale.
		v.InvalidateCache()
		if jwks, err = v.FetchJWKS(ctx); err != nil {
			return nil, err
		}
		jwk = jwks.find(kid)
	}

	if jwk == nil {
		return nil, fmt.Errorf("key with kid %s not found in JWKS", kid)
	}

	publicKey, err := jwkToRSAPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	v.keyCacheMu.Lock()
	v.keyCache[kid] = publicKey
	v.keyCacheMu.Unlock()

	return publicKey, nil
}

func (j *JWKS) find(kid string) *JWK {
	for i := range j.Keys {
		if j.Keys[i].Kid == kid {
			return &j.Keys[i]
		}
	}
	return nil
}

func (v *Validator) refreshAllowed() bool {
	v.cacheMu.RLock()
	defer v.cacheMu.RUnlock()
	return time.Since(v.jwksFetchedAt) >= v.minRefresh
}

func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

func containsAudience(audiences jwt.ClaimStrings, projectID string) bool {
	for _, aud := range audiences {
		if aud == projectID {
			return true
		}
	}
	return false
}

// InvalidateCache drops cached keys so the next validation refetches them
func (v *Validator) InvalidateCache() {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()
	v.jwksCache = nil
	v.jwksCacheExp = time.Time{}

	v.keyCacheMu.Lock()
	defer v.keyCacheMu.Unlock()
	v.keyCache = make(map[string]*rsa.PublicKey)
}

// serviceAccount is the subset of a service-account credential file we read
type serviceAccount struct {
	ProjectID string `json:"project_id"`
}

// ProjectIDFromCredentials reads the project ID from a service-account JSON file
func ProjectIDFromCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}
	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return "", fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if sa.ProjectID == "" {
		return "", errors.New("credentials file has no project_id")
	}
	return sa.ProjectID, nil
}
