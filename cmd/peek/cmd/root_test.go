package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	root := GetRootCommand()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestRootVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "peek version")
}

func TestRootShowsHelp(t *testing.T) {
	out, err := executeCommand(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "classify")
	assert.Contains(t, out, "detect")
	assert.Contains(t, out, "serve")
}

func TestClassifyRequiresInput(t *testing.T) {
	_, err := executeCommand(t, "classify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestDetectRequiresInput(t *testing.T) {
	_, err := executeCommand(t, "detect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestClassifyRejectsUnsupportedFile(t *testing.T) {
	_, err := executeCommand(t, "classify", "notes.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image file")
}

func TestClassifyRejectsBadFormat(t *testing.T) {
	_, err := executeCommand(t, "classify", "--format", "xml", "photo.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestModelsText(t *testing.T) {
	out, err := executeCommand(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "coco-ssd")
	assert.Contains(t, out, "facebook/detr-resnet-50")
	assert.Contains(t, out, "classification")
}

func TestModelsJSON(t *testing.T) {
	out, err := executeCommand(t, "models", "--format", "json")
	require.NoError(t, err)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.NotEmpty(t, list)

	ids := make(map[string]bool)
	for _, m := range list {
		id, _ := m["id"].(string)
		ids[id] = true
	}
	assert.True(t, ids["coco-ssd"])
}
