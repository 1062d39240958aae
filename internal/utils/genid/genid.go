package genid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropyMu   sync.Mutex
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a gen_* ULID string identifying one generation execution.
func New() string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	entropyMu.Unlock()
	return "gen_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a gen_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "gen_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the gen_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "gen_")
	value = strings.TrimPrefix(value, "GEN_")
	return ulid.Parse(value)
}
