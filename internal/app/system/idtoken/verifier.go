// Package idtoken verifies identity-provider issued ID tokens.
//
// The identity provider (Firebase Auth) signs short-lived RS256 JWTs for each
// browser session. Verification prefers a local signature check against the
// provider's published x509 certificates; when a web API key is configured,
// the provider's accounts:lookup REST endpoint is used as a fallback so a
// stale certificate cache cannot lock users out.
package idtoken

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrNoToken is returned when an empty token is presented.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken is returned when the provider rejects the token or the
	// signature/claims fail local verification.
	ErrInvalidToken = errors.New("invalid token")
)

// DefaultCertsURL publishes the x509 certificates the provider signs ID
// tokens with, keyed by kid.
const DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// DefaultLookupURL is the provider's token-verification REST endpoint.
// The web API key is appended as a query parameter.
const DefaultLookupURL = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"

// Identity is a verified user identity. Email is the only field the rest of
// the application relies on.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// Verifier resolves a raw bearer token to a verified identity.
// Handlers depend on this interface so tests can substitute a fake.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// Config holds provider settings for a GoogleVerifier.
type Config struct {
	// ProjectID is the identity provider project. It is both the expected
	// token audience and the suffix of the expected issuer.
	ProjectID string

	// APIKey enables the REST lookup fallback when set.
	APIKey string

	// CertsURL and LookupURL override the provider endpoints (tests).
	CertsURL  string
	LookupURL string
}

// GoogleVerifier verifies Firebase-style ID tokens.
type GoogleVerifier struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger

	mu         sync.Mutex
	certs      map[string]*rsa.PublicKey
	certExpiry time.Time
}

// NewGoogleVerifier creates a verifier for the given provider project.
func NewGoogleVerifier(cfg Config, logger *zap.Logger) *GoogleVerifier {
	if cfg.CertsURL == "" {
		cfg.CertsURL = DefaultCertsURL
	}
	if cfg.LookupURL == "" {
		cfg.LookupURL = DefaultLookupURL
	}
	return &GoogleVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Verify checks the token and returns the identity it proves.
// Failures map to ErrNoToken or ErrInvalidToken; ErrInvalidToken wraps the
// underlying cause for logging.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrNoToken
	}

	id, localErr := v.verifyLocal(ctx, rawToken)
	if localErr == nil {
		return id, nil
	}

	if v.cfg.APIKey != "" {
		id, restErr := v.verifyWithProvider(ctx, rawToken)
		if restErr == nil {
			return id, nil
		}
		v.logger.Debug("provider token lookup failed",
			zap.NamedError("local_error", localErr),
			zap.Error(restErr),
		)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, restErr)
	}

	return nil, fmt.Errorf("%w: %v", ErrInvalidToken, localErr)
}

// tokenClaims are the ID-token claims this application reads.
type tokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// verifyLocal checks the token signature and claims against the provider's
// published certificates.
func (v *GoogleVerifier) verifyLocal(ctx context.Context, rawToken string) (*Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		key, err := v.certForKid(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	},
		jwt.WithIssuer("https://securetoken.google.com/"+v.cfg.ProjectID),
		jwt.WithAudience(v.cfg.ProjectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt invalid")
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}

	return &Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// certForKid returns the RSA public key for a certificate kid, refreshing the
// cached certificate set when it has expired.
func (v *GoogleVerifier) certForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.certs == nil || time.Now().After(v.certExpiry) {
		certs, expiry, err := v.fetchCerts(ctx)
		if err != nil {
			return nil, err
		}
		v.certs = certs
		v.certExpiry = expiry
	}

	key, ok := v.certs[kid]
	if !ok {
		return nil, fmt.Errorf("no certificate for kid %q", kid)
	}
	return key, nil
}

// fetchCerts downloads the provider's current certificates. The cache expiry
// honors the response's Cache-Control max-age, with a short floor so a
// missing header cannot cause a fetch per request.
func (v *GoogleVerifier) fetchCerts(ctx context.Context) (map[string]*rsa.PublicKey, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.CertsURL, nil)
	if err != nil {
		return nil, time.Time{}, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fetch provider certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("fetch provider certs: status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode provider certs: %w", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(raw))
	for kid, pemCert := range raw {
		key, err := parseCertPublicKey(pemCert)
		if err != nil {
			v.logger.Warn("skipping unparseable provider cert",
				zap.String("kid", kid),
				zap.Error(err),
			)
			continue
		}
		certs[kid] = key
	}
	if len(certs) == 0 {
		return nil, time.Time{}, errors.New("provider returned no usable certs")
	}

	return certs, time.Now().Add(cacheMaxAge(resp.Header.Get("Cache-Control"))), nil
}

// cacheMaxAge extracts max-age from a Cache-Control header.
func cacheMaxAge(header string) time.Duration {
	const floor = time.Minute
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if after, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
				d := time.Duration(secs) * time.Second
				if d < floor {
					return floor
				}
				return d
			}
		}
	}
	return floor
}

func parseCertPublicKey(pemCert string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, errors.New("not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return key, nil
}

// verifyWithProvider asks the provider's accounts:lookup endpoint to verify
// the token, mirroring what a server SDK does remotely.
func (v *GoogleVerifier) verifyWithProvider(ctx context.Context, rawToken string) (*Identity, error) {
	body := strings.NewReader(`{"idToken":` + strconv.Quote(rawToken) + `}`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.LookupURL+"?key="+v.cfg.APIKey, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider lookup: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Users []struct {
			LocalID       string `json:"localId"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode provider lookup: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, errors.New("provider lookup returned no user")
	}

	u := out.Users[0]
	return &Identity{
		UID:           u.LocalID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}, nil
}
