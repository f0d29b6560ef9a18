package password

import (
	"sync"

	"github.com/alexedwards/argon2id"
)

// policy is read on first use so values from .env are already loaded.
var policy = sync.OnceValue(LoadParamsFromEnv)

// Hash returns a PHC string like `$argon2id$v=19$m=131072,t=3,p=1$...`
func Hash(plain string) (string, error) {
	return HashWith(plain, policy())
}

func HashWith(plain string, p Params) (string, error) {
	return argon2id.CreateHash(plain, &argon2id.Params{
		Memory:      p.Memory,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	})
}

// Verify checks password vs PHC hash and also indicates if a rehash is recommended.
func Verify(plain, phc string) (ok bool, needsRehash bool, err error) {
	ok, err = argon2id.ComparePasswordAndHash(plain, phc)
	if err != nil || !ok {
		return ok, false, err
	}
	return ok, NeedsRehash(phc), nil
}

func NeedsRehash(phc string) bool {
	return needsRehash(phc, policy())
}

func needsRehash(phc string, want Params) bool {
	stored, _, _, err := argon2id.DecodeHash(phc)
	if err != nil {
		return true
	}
	return stored.Memory < want.Memory ||
		stored.Iterations < want.Iterations ||
		stored.Parallelism < want.Parallelism ||
		stored.SaltLength < want.SaltLength ||
		stored.KeyLength < want.KeyLength
}
