// Package hash provides keyed hashing for values that must be compared or
// used as lookup keys without being stored in the clear, such as one-time
// codes in the replay guard, and bcrypt for account passwords.
package hash

// Hash produces and checks digests of short secrets.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
