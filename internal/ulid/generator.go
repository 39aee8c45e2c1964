package ulid

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once
	generator   = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID checks if the given id is a valid ULID.
func ValidID(id string) bool {
	parsed, err := ulid.ParseStrict(id)
	return err == nil && parsed.String() == id
}

// GenerateID generates a new node identity. Identities are transient: they
// live as long as the owning tree and are never compared across sessions.
func GenerateID() string {
	return generator()
}

func DefaultGenerator() string {
	entropy := DefaultEntropy()
	ts := ulid.Timestamp(time.Now())
	return ulid.MustNew(ts, entropy).String()
}

func ResetGenerator() {
	generator = DefaultGenerator
}

// MockGenerator makes GenerateID return sequential ids with the given prefix.
// Tests use it to keep identities deterministic.
func MockGenerator(prefix string) {
	var mu sync.Mutex
	counter := 0
	generator = func() string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return prefixedID(prefix, counter)
	}
}

func prefixedID(prefix string, n int) string {
	const digits = "0123456789"
	suffix := ""
	for n > 0 {
		suffix = string(digits[n%10]) + suffix
		n /= 10
	}
	id := prefix + suffix
	for len(id) < 26 {
		id = id + "0"
	}
	return id[:26]
}
