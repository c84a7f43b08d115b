package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/nucleushq/nucleus/internal/config"
	"github.com/nucleushq/nucleus/internal/dto"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const userContextKey = "auth_user"

// Authenticator verifies bearer tokens against the identity provider's
// userinfo endpoint. Identity itself is managed externally; this layer only
// resolves a token to (id, name, avatar). Verified tokens are cached briefly
// so a burst of requests does not hammer the provider.
type Authenticator struct {
	client   *resty.Client
	url      string
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cachedUser
}

type cachedUser struct {
	user    dto.OwnerDTO
	expires time.Time
}

func NewAuthenticator() *Authenticator {
	cfg := config.LoadAuthConfig()
	return &Authenticator{
		client:   resty.New().SetTimeout(10 * time.Second),
		url:      cfg.UserInfoURL,
		cacheTTL: time.Minute,
		cache:    map[string]cachedUser{},
	}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := a.resolve(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing token")
		}
		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// Optional resolves the user when a token is present and continues either
// way. Used where owners see more than other viewers.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, err := a.resolve(c); err == nil {
			c.Locals(userContextKey, user)
		}
		return c.Next()
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(c *fiber.Ctx) (dto.OwnerDTO, bool) {
	user, ok := c.Locals(userContextKey).(dto.OwnerDTO)
	return user, ok
}

func (a *Authenticator) resolve(c *fiber.Ctx) (dto.OwnerDTO, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return dto.OwnerDTO{}, fiber.ErrUnauthorized
	}

	a.mu.Lock()
	if entry, ok := a.cache[token]; ok && time.Now().Before(entry.expires) {
		a.mu.Unlock()
		return entry.user, nil
	}
	a.mu.Unlock()

	resp, err := a.client.R().
		SetContext(c.UserContext()).
		SetHeader("Authorization", "Bearer "+token).
		Get(a.url)
	if err != nil {
		logrus.Warnf("userinfo request failed: %v", err)
		return dto.OwnerDTO{}, err
	}
	if resp.IsError() {
		return dto.OwnerDTO{}, fiber.ErrUnauthorized
	}

	body := resp.String()
	sub := gjson.Get(body, "sub").String()
	if sub == "" {
		return dto.OwnerDTO{}, fiber.ErrUnauthorized
	}
	user := dto.OwnerDTO{
		ID:          sub,
		DisplayName: gjson.Get(body, "name").String(),
		AvatarURL:   gjson.Get(body, "picture").String(),
	}

	a.storeCached(token, user)

	return user, nil
}

// storeCached caches the verified token, sweeping expired entries so the map
// stays bounded by the tokens seen within one TTL window.
func (a *Authenticator) storeCached(token string, user dto.OwnerDTO) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	for k, v := range a.cache {
		if now.After(v.expires) {
			delete(a.cache, k)
		}
	}
	a.cache[token] = cachedUser{user: user, expires: now.Add(a.cacheTTL)}
}
