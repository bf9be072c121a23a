package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of the password at the configured
// cost.  A cost outside bcrypt's supported range (a mistyped BCRYPT_COST,
// for example) falls back to the library default instead of failing
// signup.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether the plain password matches the stored
// hash.  Callers get a bare bool; the reason for a mismatch is never
// surfaced to the client.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
