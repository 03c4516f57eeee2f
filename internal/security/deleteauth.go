package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challan-backend/internal/components/chrono"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mazen160/go-random"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DeleteTokenCookie = "__del_token"
	ChallengeTTL      = time.Minute
	DeleteTokenTTL    = 30 * time.Minute
	LoginAttempts     = 5
	LoginWindow       = 5 * time.Minute
	PBKDF2Iterations  = 50_000
)

const (
	sessionKeySize = 32
	gcmTagSize     = 16
)

var (
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrInvalidRequest     = errors.New("incomplete login request")
	ErrChallengeExpired   = errors.New("challenge expired or unknown")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("delete token missing or invalid")
	ErrSessionKeyExpired  = errors.New("session key expired")
	ErrInvalidEnvelope    = errors.New("invalid encrypted payload")
)

type DeleteAuthConfig struct {
	Username string
	Password string
	// TokenSecret signs delete tokens, a random secret is used when empty.
	TokenSecret string
}

type Challenge struct {
	ID    string `json:"challengeId"`
	Value string `json:"challenge"`
}

// KeyExchange carries the session key encrypted with DeriveKey(password, challenge).
type KeyExchange struct {
	EncryptedKey string `json:"encryptedKey"`
	IV           string `json:"iv"`
	Tag          string `json:"tag"`
}

// Envelope is an AES-256-GCM message, CT is base64(ciphertext || tag).
type Envelope struct {
	CT string `json:"ct"`
	IV string `json:"iv"`
}

// DeleteAuth authenticates the operator allowed to delete challans. The password never travels:
// the client proves knowledge of it against a single-use challenge, then receives a token cookie
// and a session key that encrypts every delete request and response.
type DeleteAuth struct {
	config     DeleteAuthConfig
	secret     []byte
	challenges Store[string]
	sessions   Store[[]byte]
	attempts   *AttemptLimiter
	time       chrono.TimeAPI
}

func NewDeleteAuth(
	config DeleteAuthConfig,
	challenges Store[string],
	sessions Store[[]byte],
	attempts *AttemptLimiter,
	timeAPI chrono.TimeAPI,
) (*DeleteAuth, error) {
	secret := config.TokenSecret
	if secret == "" {
		var err error
		secret, err = random.String(64)
		if err != nil {
			return nil, err
		}
	}
	return &DeleteAuth{
		config:     config,
		secret:     []byte(secret),
		challenges: challenges,
		sessions:   sessions,
		attempts:   attempts,
		time:       timeAPI,
	}, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Proof is what a client holding password answers to challenge:
// hex(SHA256(hex(SHA256(password)) + challenge)).
func Proof(password, challenge string) string {
	return sha256Hex(sha256Hex(password) + challenge)
}

// DeriveKey derives the AES-256 key that wraps the session key.
func DeriveKey(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), PBKDF2Iterations, 32, sha256.New)
}

func safeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Challenge issues a single-use challenge.
func (a *DeleteAuth) Challenge() (Challenge, error) {
	id, err := random.String(32)
	if err != nil {
		return Challenge{}, err
	}
	value, err := random.String(64)
	if err != nil {
		return Challenge{}, err
	}
	a.challenges.Set(id, value, ChallengeTTL)
	return Challenge{ID: id, Value: value}, nil
}

// Login checks a proof and returns the delete token with the wrapped session key.
func (a *DeleteAuth) Login(client, username, challengeID, proof string) (string, KeyExchange, error) {
	if !a.attempts.Allow(client) {
		return "", KeyExchange{}, ErrTooManyAttempts
	}
	if username == "" || challengeID == "" || proof == "" {
		return "", KeyExchange{}, ErrInvalidRequest
	}

	challenge, ok := a.challenges.Get(challengeID)
	a.challenges.Delete(challengeID)
	if !ok {
		return "", KeyExchange{}, ErrChallengeExpired
	}

	// both checks always run
	userOk := safeEqual(username, a.config.Username)
	proofOk := safeEqual(proof, Proof(a.config.Password, challenge))
	if !userOk || !proofOk || a.config.Password == "" {
		return "", KeyExchange{}, ErrInvalidCredentials
	}

	token, err := a.issueToken()
	if err != nil {
		return "", KeyExchange{}, err
	}
	sessionKey := make([]byte, sessionKeySize)
	_, err = rand.Read(sessionKey)
	if err != nil {
		return "", KeyExchange{}, err
	}
	a.sessions.Set(token, sessionKey, DeleteTokenTTL)

	sealed, iv, err := seal(DeriveKey(a.config.Password, challenge), sessionKey)
	if err != nil {
		return "", KeyExchange{}, err
	}
	return token, KeyExchange{
		EncryptedKey: base64.StdEncoding.EncodeToString(sealed[:len(sealed)-gcmTagSize]),
		IV:           base64.StdEncoding.EncodeToString(iv),
		Tag:          base64.StdEncoding.EncodeToString(sealed[len(sealed)-gcmTagSize:]),
	}, nil
}

func (a *DeleteAuth) issueToken() (string, error) {
	id, err := random.String(32)
	if err != nil {
		return "", err
	}
	now := a.time.Now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   a.config.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(DeleteTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// SessionKey returns the session key bound to a valid token.
func (a *DeleteAuth) SessionKey(token string) ([]byte, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	_, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.time.Now),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}
	key, ok := a.sessions.Get(token)
	if !ok {
		return nil, ErrSessionKeyExpired
	}
	return key, nil
}

func seal(key, plaintext []byte) (sealed []byte, iv []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	iv = make([]byte, gcm.NonceSize())
	_, err = rand.Read(iv)
	if err != nil {
		return nil, nil, err
	}
	return gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

// Seal encrypts v as json under key.
func Seal(key []byte, v any) (Envelope, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	sealed, iv, err := seal(key, plaintext)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		CT: base64.StdEncoding.EncodeToString(sealed),
		IV: base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Open decrypts an envelope into out.
func Open(key []byte, env Envelope, out any) error {
	if env.CT == "" || env.IV == "" {
		return ErrInvalidEnvelope
	}
	sealed, err := base64.StdEncoding.DecodeString(env.CT)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if len(sealed) < gcmTagSize {
		return fmt.Errorf("%w: ciphertext too short", ErrInvalidEnvelope)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	if len(iv) != gcm.NonceSize() {
		return fmt.Errorf("%w: bad iv", ErrInvalidEnvelope)
	}
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return json.Unmarshal(plaintext, out)
}

// OpenKeyExchange unwraps the session key of a KeyExchange, it is what a client does with the
// password it holds.
func OpenKeyExchange(password, challenge string, exchange KeyExchange) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(exchange.EncryptedKey)
	if err != nil {
		return nil, err
	}
	tag, err := base64.StdEncoding.DecodeString(exchange.Tag)
	if err != nil {
		return nil, err
	}
	iv, err := base64.StdEncoding.DecodeString(exchange.IV)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(DeriveKey(password, challenge))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad iv", ErrInvalidEnvelope)
	}
	return gcm.Open(nil, iv, append(ct, tag...), nil)
}
