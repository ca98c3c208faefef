package comic

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlugFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z]+$`)
	for i := 0; i < 50; i++ {
		slug := GenerateSlug()
		assert.True(t, pattern.MatchString(slug), "unexpected slug format: %s", slug)
	}
}

func TestUniqueSlugAcceptsFirstFreeCandidate(t *testing.T) {
	calls := 0
	slug, err := UniqueSlug(func(s string) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, slug)
	assert.Equal(t, 1, calls)
}

func TestUniqueSlugRetriesOnCollision(t *testing.T) {
	calls := 0
	slug, err := UniqueSlug(func(s string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, slug)
	assert.Equal(t, 3, calls)
	assert.False(t, strings.HasPrefix(slug, "story-"), "should not fall back when a candidate was free")
}

func TestUniqueSlugFallsBackAfterExhaustion(t *testing.T) {
	calls := 0
	slug, err := UniqueSlug(func(s string) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, maxSlugAttempts, calls)
	assert.True(t, strings.HasPrefix(slug, "story-"), "expected timestamp fallback, got %s", slug)
}

func TestUniqueSlugPropagatesLookupError(t *testing.T) {
	wantErr := fmt.Errorf("db unavailable")
	_, err := UniqueSlug(func(s string) (bool, error) {
		return false, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
