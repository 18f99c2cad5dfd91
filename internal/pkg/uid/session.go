package uid

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/shandysiswandi/aegis/internal/pkg/clock"
)

const (
	// DefaultSessionPrefix is the leading token of generated session identities.
	DefaultSessionPrefix = "user"

	sessionSuffixLen = 8
	base36           = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Session generates opaque per-flow identities of the form
// <prefix>_<base36 unix millis>_<8 random base36 chars>.
//
// The identity only correlates calls to the identity service. It is not
// unguessable and must never be used as a credential.
type Session struct {
	prefix string
	clock  clock.Clocker

	mu  sync.Mutex
	rnd *rand.Rand
}

// SessionOption customises a Session generator.
type SessionOption func(*Session)

// WithSessionPrefix overrides DefaultSessionPrefix.
func WithSessionPrefix(prefix string) SessionOption {
	return func(s *Session) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithSessionRand replaces the random source, mostly for tests.
func WithSessionRand(rnd *rand.Rand) SessionOption {
	return func(s *Session) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

// NewSession returns a Session generator reading time from clk.
func NewSession(clk clock.Clocker, opts ...SessionOption) *Session {
	s := &Session{
		prefix: DefaultSessionPrefix,
		clock:  clk,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // identity is not a secret
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns a new session identity.
func (s *Session) Generate() string {
	var suffix [sessionSuffixLen]byte

	s.mu.Lock()
	for i := range suffix {
		suffix[i] = base36[s.rnd.IntN(len(base36))]
	}
	s.mu.Unlock()

	var b strings.Builder
	b.Grow(len(s.prefix) + 2 + 9 + sessionSuffixLen)
	b.WriteString(s.prefix)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(s.clock.Now().UnixMilli(), 36))
	b.WriteByte('_')
	b.Write(suffix[:])

	return b.String()
}
