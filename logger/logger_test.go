package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return Wrap(zap.New(core)), logs
}

func TestLogger_RedactsAndHashes(t *testing.T) {
	log, logs := observed()

	log.Info("upstream call",
		"target", "eligibility",
		"Authorization", "Bearer abc",
		"session_id", "sess-1",
		"body", strings.Repeat("x", BodyPreviewLimit+10),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "eligibility", fields["target"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])

	hashed, ok := fields["session_id"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(hashed, "hash:"))
	assert.Len(t, hashed, len("hash:")+12)
	assert.NotContains(t, hashed, "sess-1")

	body, ok := fields["body"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(body, "...(10 more)"))
}

func TestLogger_HashIsStable(t *testing.T) {
	assert.Equal(t, hashValue("salt", "abc"), hashValue("salt", "abc"))
	assert.NotEqual(t, hashValue("salt", "abc"), hashValue("other", "abc"))
	assert.Equal(t, "", hashValue("salt", ""))
}

func TestLogger_WithKeepsRedaction(t *testing.T) {
	log, logs := observed()

	log.With("api_key", "k-123").Warn("retrying")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[REDACTED]", logs.All()[0].ContextMap()["api_key"])
}
