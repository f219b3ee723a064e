// Package encryption provides authenticated encryption for audit entry state
// snapshots. Before/after state maps are sealed into portable envelopes so the
// durable store only ever sees ciphertext for sensitive field values.
package encryption

// AEAD provides authenticated encryption with associated data. Implementations
// are stateless and safe for concurrent use.
type AEAD interface {
	// Encrypt seals plaintext with a freshly generated nonce. The AAD is
	// authenticated but not encrypted and must be replayed on Decrypt.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens ciphertext produced by Encrypt. Fails if the ciphertext,
	// nonce or AAD do not match.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// StateEncryptor seals and opens audit state snapshots. The context tag binds
// an envelope to its owning entry so ciphertext cannot be replayed across
// records.
type StateEncryptor interface {
	// Seal encrypts a state map into an envelope map. A nil state yields nil.
	Seal(state map[string]any, contextTag string) (map[string]any, error)

	// Open decrypts an envelope produced by Seal. Non-envelope maps are
	// returned unchanged, so plaintext entries written before encryption was
	// enabled stay readable.
	Open(state map[string]any, contextTag string) (map[string]any, error)
}
