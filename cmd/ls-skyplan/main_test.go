package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-skyplan/internal/mosaic"
)

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))
}

func TestTargetArg(t *testing.T) {
	assert.Equal(t, "05 35 17 -05 23 28", targetArg([]string{"05", "35", "17", "-05", "23", "28"}))
	assert.Equal(t, "M31", targetArg([]string{"M31"}))
}

func TestParseOffAxis(t *testing.T) {
	side, fov, err := parseOffAxis("T:12x8")
	require.NoError(t, err)
	assert.Equal(t, mosaic.Top, side)
	assert.InDelta(t, 0.2, fov.X, 1e-12)
	assert.InDelta(t, 8.0/60, fov.Y, 1e-12)

	side, _, err = parseOffAxis("right:3.5X2")
	require.NoError(t, err)
	assert.Equal(t, mosaic.Right, side)

	for _, bad := range []string{"T", "Q:1x1", "T:1", "T:0x1", "T:axb"} {
		_, _, err := parseOffAxis(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutputResult(t *testing.T) {
	defer func(f string) { flagFormat = f }(flagFormat)

	var buf bytes.Buffer
	flagFormat = "json"
	require.NoError(t, outputResult(&buf, "resolve", map[string]int{"n": 1}, func() string { return "unused" }))

	var got CLIResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "resolve", got.Command)
	assert.Empty(t, got.Error)

	buf.Reset()
	flagFormat = "text"
	require.NoError(t, outputResult(&buf, "resolve", nil, func() string { return "M 31" }))
	assert.Equal(t, "M 31\n", buf.String())
}

func TestVersionCommand(t *testing.T) {
	defer func(f string) { flagFormat = f }(flagFormat)
	flagFormat = "text"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	assert.Contains(t, buf.String(), "ls-skyplan ")
}
