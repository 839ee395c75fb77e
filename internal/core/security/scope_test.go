package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessArea(t *testing.T) {
	t.Run("owner bypasses restrictions", func(t *testing.T) {
		scope := &AccessScope{IsOwner: true, AllowedAreaIDs: []string{"a"}}
		assert.True(t, scope.CanAccessArea("b"))
	})

	t.Run("empty allow list is unrestricted", func(t *testing.T) {
		scope := &AccessScope{UserID: "u1"}
		assert.True(t, scope.CanAccessArea("a"))
	})

	t.Run("assigned areas limit access", func(t *testing.T) {
		scope := &AccessScope{UserID: "u1", AllowedAreaIDs: []string{"a", "b"}}
		assert.True(t, scope.CanAccessArea("a"))
		assert.False(t, scope.CanAccessArea("c"))
	})
}

func TestFilterAreaIDs(t *testing.T) {
	scope := &AccessScope{AllowedAreaIDs: []string{"a", "b"}}

	assert.Equal(t, []string{"a"}, scope.FilterAreaIDs([]string{"a", "c"}))
	assert.Equal(t, []string{"a", "b"}, scope.FilterAreaIDs(nil))

	owner := &AccessScope{IsOwner: true}
	assert.Equal(t, []string{"x"}, owner.FilterAreaIDs([]string{"x"}))
}

func TestGetScope_DefaultsWhenMissing(t *testing.T) {
	scope := GetScope(context.Background())
	assert.NotNil(t, scope)
	assert.True(t, scope.CanAccessArea("any"))
}
