// Package captcha issues the short-lived visual verify codes checked
// at login before the password. Codes are bound to an opaque id handed
// to the client and stored in Redis, single use.
package captcha

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"

	"inkwell/internal/cache"
)

const (
	codeKeyPrefix = "verify_code:"
	codeTTL       = 5 * time.Minute
	codeLength    = 4
	codeCharset   = "234567890abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"
)

// Verifier is the narrow check the login flow depends on.
type Verifier interface {
	Verify(id, answer string) bool
}

// Service generates and verifies image codes.
type Service struct {
	captcha *base64Captcha.Captcha
	store   *redisStore
}

// New builds a Service backed by the given cache client.
func New(c *cache.Client) *Service {
	store := &redisStore{cache: c}
	driver := base64Captcha.NewDriverString(
		46, 140, 2, base64Captcha.OptionShowHollowLine,
		codeLength, codeCharset, nil, nil, nil,
	).ConvertFonts()
	return &Service{
		captcha: base64Captcha.NewCaptcha(driver, store),
		store:   store,
	}
}

// Generate returns a fresh code id and the image as a base64 data URL.
func (s *Service) Generate() (id, b64 string, err error) {
	id, b64, _, err = s.captcha.Generate()
	return id, b64, err
}

// Verify consumes the code for id and reports whether answer matches
// exactly, case sensitive. A used or expired code never matches again.
func (s *Service) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	stored := s.store.Get(id, true)
	return stored != "" && stored == answer
}

// redisStore adapts cache.Client to the base64Captcha store interface.
type redisStore struct {
	cache *cache.Client
}

func (s *redisStore) Set(id string, value string) error {
	return s.cache.Set(context.Background(), codeKeyPrefix+id, []byte(value), codeTTL)
}

func (s *redisStore) Get(id string, clear bool) string {
	key := codeKeyPrefix + id
	value := s.cache.GetString(context.Background(), key)
	if clear && value != "" {
		_ = s.cache.Delete(context.Background(), key)
	}
	return value
}

func (s *redisStore) Verify(id, answer string, clear bool) bool {
	return s.Get(id, clear) == answer
}
