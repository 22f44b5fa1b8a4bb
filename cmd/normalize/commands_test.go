package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policynav-backend/models"
	"policynav-backend/storage"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPolicyCommand_Stdin(t *testing.T) {
	out, err := run(t, `[{"output":{"policy_name":"PM Kisan","session_id":"s1"}}]`, "policy")
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Equal(t, "PM Kisan", record["policy_name"])
	assert.Equal(t, "s1", record["session_id"])
}

func TestPolicyCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session_id":"s9"}`), 0o644))

	out, err := run(t, "", "policy", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "matched on session_id only\n"))
}

func TestPolicyCommand_NotFound(t *testing.T) {
	out, err := run(t, "nothing useful", "policy")
	require.NoError(t, err)
	assert.Equal(t, "no policy found\n", out)
}

func TestTurnCommand(t *testing.T) {
	out, err := run(t, `{"question":"Are you a farmer?"}`, "turn")
	require.NoError(t, err)
	assert.Equal(t, "QUESTION Are you a farmer?\n", out)

	out, err = run(t, `{"status":"eligible","summary":"ok"}`, "turn")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "VERDICT eligible\n"))

	out, err = run(t, "", "turn", "--no-content")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE\n", out)
}

func TestSchemesCommand(t *testing.T) {
	out, err := run(t, `[{"name":"PMAY"}]`, "schemes")
	require.NoError(t, err)

	var result struct {
		Schemes []struct {
			Name string `json:"name"`
		} `json:"schemes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Schemes, 1)
	assert.Equal(t, "PMAY", result.Schemes[0].Name)
}

func TestSessionIDCommand(t *testing.T) {
	out, err := run(t, `{"data":[{"session_id":"abc"}]}`, "session-id")
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	_, err = run(t, `{"data":[]}`, "session-id")
	assert.ErrorIs(t, err, errNoSessionID)
}

func TestReadBody_MissingFile(t *testing.T) {
	_, err := run(t, "", "schemes", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestArchivedInput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARCHIVE_TYPE", "local")
	t.Setenv("ARCHIVE_LOCAL_PATH", dir)

	archive, err := storage.NewLocalArchive(dir)
	require.NoError(t, err)
	storagePath, err := archive.Put(context.Background(), &models.ArchivedResponse{
		SessionID:  "s1",
		Target:     "eligibility",
		StatusCode: 200,
		Body:       `{"question":"Your state?"}`,
		ReceivedAt: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out, err := run(t, "", "turn", "--archived", storagePath)
	require.NoError(t, err)
	assert.Equal(t, "QUESTION Your state?\n", out)

	out, err = run(t, "", "turn", "--archived", "--prune", storagePath)
	require.NoError(t, err)
	assert.Equal(t, "QUESTION Your state?\n", out)

	_, err = run(t, "", "turn", "--archived", storagePath)
	assert.ErrorIs(t, err, storage.ErrArchiveNotFound)

	_, err = run(t, "{}", "turn", "--archived")
	assert.ErrorIs(t, err, errNoStoragePath)
}
