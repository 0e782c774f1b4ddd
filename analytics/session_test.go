package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionIDIsUnique(t *testing.T) {
	seen := make(map[SessionID]struct{})
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		assert.NotEmpty(t, id)
		assert.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}

func TestSessionFromContext(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), "browser-abc")
	id, ok := SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, SessionID("browser-abc"), id)

	_, ok = SessionFromContext(WithSession(context.Background(), ""))
	assert.False(t, ok)
}
