package password

import (
	"os"
	"strconv"

	"github.com/5w1tchy/shelf-api/internal/logging"
)

// Params is the argon2id cost policy.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Floors below which a configured value is ignored. Production minimums are
// enforced by validate.Env; these only keep argon2 itself well-defined.
const (
	minMemory      = 8 * 1024
	minIterations  = 1
	minParallelism = 1
)

func envUint(key string, bits int, def, floor uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil || n < floor {
		logging.Warn("[password] ignoring argon2 setting", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// LoadParamsFromEnv reads ARGON2_MEMORY, ARGON2_ITER and ARGON2_PAR over a
// 128 MiB, t=3, p=1 default.
func LoadParamsFromEnv() Params {
	return Params{
		Memory:      uint32(envUint("ARGON2_MEMORY", 32, 128*1024, minMemory)),
		Iterations:  uint32(envUint("ARGON2_ITER", 32, 3, minIterations)),
		Parallelism: uint8(envUint("ARGON2_PAR", 8, 1, minParallelism)),
		SaltLength:  16,
		KeyLength:   32,
	}
}
