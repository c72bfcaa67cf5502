package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher()

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"), "expected PHC argon2id prefix, got %q", encoded)

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok, "correct password must verify")

	ok, err = h.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok, "wrong password must not verify")
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := NewArgon2Hasher()

	a, err := h.Hash("p4ssw0rd")
	require.NoError(t, err)
	b, err := h.Hash("p4ssw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same password must use different salts")
}

func TestArgon2Hasher_Verify_MalformedHash(t *testing.T) {
	h := NewArgon2Hasher()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "not a hash", encoded: "plaintext"},
		{name: "wrong algorithm", encoded: "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad parameters", encoded: "$argon2id$v=19$nonsense$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", encoded: "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{name: "bad hash encoding", encoded: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Verify("whatever", tc.encoded)
			require.Error(t, err)
		})
	}
}

func TestArgon2Hasher_EmptyPasswordStillHashes(t *testing.T) {
	// The service layer validates password content; the hasher itself must
	// stay total so login against a dummy hash keeps uniform timing.
	h := NewArgon2Hasher()

	encoded, err := h.Hash("")
	require.NoError(t, err)

	ok, err := h.Verify("", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}
