package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchKey(t *testing.T) {
	t.Run("same keywords in any order share a key", func(t *testing.T) {
		a := BuildSearchKey([]string{"storms", "seascapes"}, "comprehensive", 10)
		b := BuildSearchKey([]string{"seascapes", "storms"}, "comprehensive", 10)
		assert.Equal(t, a, b)
	})

	t.Run("case and padding do not split the key", func(t *testing.T) {
		a := BuildSearchKey([]string{"Monet", " seascapes "}, "comprehensive", 10)
		b := BuildSearchKey([]string{"monet", "seascapes"}, "comprehensive", 10)
		assert.Equal(t, a, b)
	})

	t.Run("scope and limit split the key", func(t *testing.T) {
		base := BuildSearchKey([]string{"monet"}, "comprehensive", 10)
		assert.NotEqual(t, base, BuildSearchKey([]string{"monet"}, "terms_only", 10))
		assert.NotEqual(t, base, BuildSearchKey([]string{"monet"}, "comprehensive", 25))
	})

	t.Run("different keywords split the key", func(t *testing.T) {
		a := BuildSearchKey([]string{"monet"}, "comprehensive", 10)
		b := BuildSearchKey([]string{"manet"}, "comprehensive", 10)
		assert.NotEqual(t, a, b)
	})

	t.Run("key shape is prefix scope limit digest", func(t *testing.T) {
		key := BuildSearchKey([]string{"still life"}, "title_only", 5)
		parts := strings.Split(key, ":")
		assert.Equal(t, []string{"search", "title_only", "5"}, parts[:3])
		assert.Len(t, parts[3], 32)
	})
}

func TestBuildStatsKey(t *testing.T) {
	assert.Equal(t, "stats:collection", BuildStatsKey())
}

func TestBuildRateLimitKey(t *testing.T) {
	key := BuildRateLimitKey("203.0.113.7", "/v1/curator/search")
	assert.Equal(t, "ratelimit:203.0.113.7:/v1/curator/search", key)
}

func TestCacheName(t *testing.T) {
	assert.Equal(t, "search", cacheName("search:comprehensive:10:abcd"))
	assert.Equal(t, "stats", cacheName("stats:collection"))
	assert.Equal(t, "plain", cacheName("plain"))
}
