package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"challan-backend/internal/components/chrono"

	"github.com/mazen160/go-random"
)

const (
	CSRFCookie     = "__csrf"
	CSRFHeader     = "X-CSRF-Token"
	DefaultCSRFTTL = time.Hour
)

// CSRF issues and checks double-submit tokens of the form "<nonce>:<unix ms base36>:<hmac>".
type CSRF struct {
	secret []byte
	ttl    time.Duration
	time   chrono.TimeAPI
}

// NewCSRF creates a CSRF with the given secret, a random one is used when it is empty (tokens
// then do not survive a restart).
func NewCSRF(secret string, ttl time.Duration, timeAPI chrono.TimeAPI) (*CSRF, error) {
	if secret == "" {
		var err error
		secret, err = random.String(64)
		if err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = DefaultCSRFTTL
	}
	return &CSRF{secret: []byte(secret), ttl: ttl, time: timeAPI}, nil
}

func (c *CSRF) TTL() time.Duration {
	return c.ttl
}

func (c *CSRF) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *CSRF) Issue() (string, error) {
	nonce, err := random.String(32)
	if err != nil {
		return "", err
	}
	payload := nonce + ":" + strconv.FormatInt(c.time.Now().UnixMilli(), 36)
	return payload + ":" + c.sign(payload), nil
}

// Valid checks the signature and age of a token.
func (c *CSRF) Valid(token string) bool {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return false
	}
	payload := parts[0] + ":" + parts[1]
	if !hmac.Equal([]byte(c.sign(payload)), []byte(parts[2])) {
		return false
	}
	created, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil {
		return false
	}
	return c.time.Now().Sub(time.UnixMilli(created)) <= c.ttl
}

// Verify requires the header token to equal the cookie token and to be valid.
func (c *CSRF) Verify(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(CSRFHeader)
	if header == "" || header != cookie.Value {
		return false
	}
	return c.Valid(cookie.Value)
}

// ValidOrigin tells whether a request comes from the page this server serves. A POST needs an
// Origin or Referer whose host is the request host, other methods without either are allowed.
func ValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	referer := r.Header.Get("Referer")
	if origin == "" && referer == "" {
		return r.Method != http.MethodPost
	}
	for _, value := range []string{origin, referer} {
		if value == "" {
			continue
		}
		u, err := url.Parse(value)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
	}
	return false
}
