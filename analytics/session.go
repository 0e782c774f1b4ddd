package analytics

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// SessionID is the opaque token grouping one browsing session's events. The
// core never inspects it beyond equality.
type SessionID string

func (s SessionID) String() string { return string(s) }

// NewSessionID produces a session token unique with overwhelming probability:
// a millisecond time component plus a random suffix. Pure local generation,
// no persistence, no network.
func NewSessionID() SessionID {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; here a
		// nanosecond suffix still keeps sessions apart in practice.
		return SessionID(fmt.Sprintf("%d-%d", time.Now().UnixMilli(), time.Now().UnixNano()))
	}
	return SessionID(strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(suffix))
}

type sessionContextKey struct{}

// WithSession attaches a caller-supplied session id to a context. The HTTP
// layer uses this to carry the browser's session token into Track calls;
// without it the collector falls back to its own injected session.
func WithSession(ctx context.Context, id SessionID) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, id)
}

// SessionFromContext returns the session id attached by WithSession, if any.
func SessionFromContext(ctx context.Context) (SessionID, bool) {
	id, ok := ctx.Value(sessionContextKey{}).(SessionID)
	return id, ok && id != ""
}
