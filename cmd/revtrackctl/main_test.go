package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644))
	}
	return dir
}

func TestBucketAndRange(t *testing.T) {
	out, err := run(t, "bucket", "--type", "weekly", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-W09\n", out)

	out, err = run(t, "range", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01 2024-02-29\n", out)

	_, err = run(t, "bucket", "--type", "hourly")
	assert.Error(t, err)
	_, err = run(t, "range", "--type", "yearly", "24")
	assert.Error(t, err)
}

func TestProgressWithoutGoals(t *testing.T) {
	out, err := run(t, "--backend", "memory", "--data-dir", "", "progress")
	require.NoError(t, err)
	assert.Equal(t, "no goals\n", out)
}

func TestConsistencyRepair(t *testing.T) {
	dir := seedDir(t, map[string]string{
		"calls": `[{"id":"c1","clientName":"Ada","callType":"call","date":"2024-03-10","time":"09:00",
			"duration":30,"status":"completed","isConverted":true,"conversionAmount":200,
			"createdAt":"2024-03-01T00:00:00Z"}]`,
	})
	base := []string{"--backend", "memory", "--data-dir", dir}

	out, err := run(t, append(base, "consistency")...)
	require.Error(t, err)
	assert.Contains(t, out, "missing_entry")

	out, err = run(t, append(base, "--json", "consistency", "--repair")...)
	require.NoError(t, err)
	var res struct {
		Drift    []map[string]string `json:"drift"`
		Repaired bool                `json:"repaired"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Repaired)
	require.Len(t, res.Drift, 1)
	assert.Equal(t, "c1", res.Drift[0]["callId"])
}

func TestCallsConvertAndStats(t *testing.T) {
	dir := seedDir(t, map[string]string{
		"calls": `[{"id":"c1","clientName":"Ada","callType":"call","date":"2024-03-10","time":"09:00",
			"duration":30,"status":"completed","isConverted":false,"conversionAmount":0,
			"createdAt":"2024-03-01T00:00:00Z"}]`,
	})
	base := []string{"--backend", "memory", "--data-dir", dir}

	out, err := run(t, append(base, "calls", "convert", "c1", "150")...)
	require.NoError(t, err)
	assert.Contains(t, out, "converted c1 for 150.00")

	_, err = run(t, append(base, "calls", "convert", "missing", "150")...)
	assert.Error(t, err)
	_, err = run(t, append(base, "calls", "convert", "c1", "-5")...)
	assert.Error(t, err)

	out, err = run(t, append(base, "--json", "calls", "stats", "--from", "2024-03-01")...)
	require.NoError(t, err)
	var st struct {
		TotalCalls int `json:"totalCalls"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.TotalCalls)

	_, err = run(t, append(base, "calls", "stats", "--to", "soon")...)
	assert.Error(t, err)
}
