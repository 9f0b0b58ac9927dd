package sessions

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-secret"

func newRun(t *testing.T) *brackets.Run {
	t.Helper()
	candidates := make([]models.Candidate, 8)
	for i := range candidates {
		candidates[i] = models.Candidate{ID: i + 1, WorldcupID: 1, Name: fmt.Sprintf("c%d", i+1), ImageKey: "k.png"}
	}
	run, err := brackets.SelectRun(1, candidates, 4, rand.New(rand.NewPCG(3, 4)), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return run
}

func TestSealOpenRoundTrip(t *testing.T) {
	sealer, err := NewRunSealer(testSecret)
	require.NoError(t, err)

	run := newRun(t)
	token, err := sealer.Seal(run)
	require.NoError(t, err)
	assert.NotContains(t, token, run.ID)

	opened, err := sealer.Open(token)
	require.NoError(t, err)
	assert.Equal(t, run.ID, opened.ID)
	assert.Equal(t, run.Contenders, opened.Contenders)
	assert.Equal(t, run.Candidates, opened.Candidates)
}

func TestSealUsesFreshNonce(t *testing.T) {
	sealer, err := NewRunSealer(testSecret)
	require.NoError(t, err)
	run := newRun(t)

	a, err := sealer.Seal(run)
	require.NoError(t, err)
	b, err := sealer.Seal(run)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	sealer, err := NewRunSealer(testSecret)
	require.NoError(t, err)
	token, err := sealer.Seal(newRun(t))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0x01
	flipped := base64.RawURLEncoding.EncodeToString(raw)

	tests := map[string]string{
		"flipped byte": flipped,
		"truncated":    token[:10],
		"not base64":   "!!!",
		"empty":        "",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sealer.Open(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestOpenRejectsOtherSecret(t *testing.T) {
	a, err := NewRunSealer(testSecret)
	require.NoError(t, err)
	b, err := NewRunSealer("another-secret-of-enough-length")
	require.NoError(t, err)

	token, err := a.Seal(newRun(t))
	require.NoError(t, err)
	_, err = b.Open(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOpenRejectsOldVersion(t *testing.T) {
	sealer, err := NewRunSealer(testSecret)
	require.NoError(t, err)
	run := newRun(t)
	run.Version = brackets.RunSchemaVersion + 1

	token, err := sealer.Seal(run)
	require.NoError(t, err)
	_, err = sealer.Open(token)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestNewRunSealerShortSecret(t *testing.T) {
	_, err := NewRunSealer("short")
	assert.ErrorIs(t, err, ErrSecretTooShort)
}
