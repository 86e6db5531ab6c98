package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-alloy/internal/config"
)

func execute(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		DBDriver:     "sqlite",
		DBDSN:        "file:" + filepath.Join(t.TempDir(), "alloy.db"),
		DefaultGrade: "316L",
		CostPerKg:    12.5,
		LogLevel:     "error",
	}
}

func TestParseComposition(t *testing.T) {
	comp, err := parseComposition([]string{"Cr=17.5", " Ni = 12 "})
	require.NoError(t, err)
	assert.Equal(t, 17.5, comp["Cr"])
	assert.Equal(t, 12.0, comp["Ni"])

	for _, bad := range []string{"Cr", "=5", "Cr=abc"} {
		_, err := parseComposition([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestScoreCommand(t *testing.T) {
	out, err := execute(t, testConfig(t), "score", "--grade", "316L",
		"Fe=67", "Cr=17", "Ni=12", "Mo=2.5", "Mn=1", "Si=0.5")
	require.NoError(t, err)

	var res struct {
		Grade string  `json:"grade"`
		Score float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "316L", res.Grade)
	assert.Equal(t, 100.0, res.Score)
}

func TestScoreCommandRejectsBadArgument(t *testing.T) {
	_, err := execute(t, testConfig(t), "score", "Cr")
	assert.Error(t, err)
}

func TestRecommendCommand(t *testing.T) {
	out, err := execute(t, testConfig(t), "recommend", "--target", "Cr=18", "--current", "Cr=16.7")
	require.NoError(t, err)
	assert.Contains(t, out, "FeCr 65%")
	assert.Contains(t, out, "\"unit\": \"kg\"")
}

func TestReferenceCommand(t *testing.T) {
	out, err := execute(t, testConfig(t), "reference")
	require.NoError(t, err)
	assert.Contains(t, out, "316L")
	assert.Contains(t, out, "Ni Metal")
}

func TestSeedThenAnalyze(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, cfg, "seed", "--seed", "7")
	require.NoError(t, err)
	var sum struct {
		ProcessData int `json:"process_data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Positive(t, sum.ProcessData)

	out, err = execute(t, cfg, "analyze", "--hours", "48")
	require.NoError(t, err)
	assert.Contains(t, out, "average_quality_score")

	_, err = execute(t, cfg, "events", "--limit", "5")
	require.NoError(t, err)
}
