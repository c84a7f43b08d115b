package middleware

import (
	"fmt"
	"testing"
	"time"

	"github.com/nucleushq/nucleus/internal/dto"
	"github.com/stretchr/testify/assert"
)

func TestStoreCachedSweepsExpiredTokens(t *testing.T) {
	a := &Authenticator{
		cacheTTL: time.Minute,
		cache:    map[string]cachedUser{},
	}

	for i := 0; i < 50; i++ {
		a.cache[fmt.Sprintf("stale-%d", i)] = cachedUser{
			user:    dto.OwnerDTO{ID: "old"},
			expires: time.Now().Add(-time.Second),
		}
	}
	a.cache["live"] = cachedUser{
		user:    dto.OwnerDTO{ID: "live"},
		expires: time.Now().Add(30 * time.Second),
	}

	a.storeCached("fresh", dto.OwnerDTO{ID: "fresh"})

	assert.Len(t, a.cache, 2)
	assert.Contains(t, a.cache, "live")
	assert.Contains(t, a.cache, "fresh")
}
