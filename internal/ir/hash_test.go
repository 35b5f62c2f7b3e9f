package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	obj := IRObject{"start": IRString("0a"), "end": IRString("0b"), "limit": IRInt(10)}

	a, err := Fingerprint(DomainSlice, obj)
	require.NoError(t, err)
	b, err := Fingerprint(DomainSlice, IRObject{"limit": IRInt(10), "end": IRString("0b"), "start": IRString("0a")})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintDomainSeparation(t *testing.T) {
	obj := IRObject{"x": IRInt(1)}
	assert.NotEqual(t, MustFingerprint(DomainSlice, obj), MustFingerprint(DomainPlan, obj))
}

func TestFingerprintChangesWithInput(t *testing.T) {
	assert.NotEqual(t,
		MustFingerprint(DomainSlice, IRObject{"limit": IRInt(10)}),
		MustFingerprint(DomainSlice, IRObject{"limit": IRInt(20)}))
}
