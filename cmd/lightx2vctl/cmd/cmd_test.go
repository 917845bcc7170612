package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := Root()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestNodesListsCatalog(t *testing.T) {
	out, err := executeCommand(t, "nodes")
	require.NoError(t, err)
	assert.Contains(t, out, "Lightx2vWanVideoModelLoader")
	assert.Contains(t, out, "Lightx2vWanVideoSampler")
	assert.Contains(t, out, "Lightx2vTeaCache")
}

func TestNodesSingleClass(t *testing.T) {
	out, err := executeCommand(t, "nodes", "Lightx2vWanVideoSampler")
	require.NoError(t, err)
	assert.Contains(t, out, "steps")
	assert.Contains(t, out, "cfg_scale")
	assert.Contains(t, out, "image_embeddings")
}

func TestNodesUnknownClass(t *testing.T) {
	_, err := executeCommand(t, "nodes", "NotANode")
	require.Error(t, err)
}

func TestRequirementsPrintsManifest(t *testing.T) {
	out, err := executeCommand(t, "requirements")
	require.NoError(t, err)
	assert.Contains(t, out, "easydict")
	assert.Contains(t, out, "scipy")
	assert.Contains(t, out, "# vllm")
}

func TestRequirementsOptional(t *testing.T) {
	out, err := executeCommand(t, "requirements", "--optional")
	require.NoError(t, err)
	for _, name := range []string{"vllm", "sgl-kernel", "qtorch", "flash-attn", "sage-attention", "xformers"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "easydict")
}

func TestRequirementsCheck(t *testing.T) {
	_, err := executeCommand(t, "requirements", "--check", "easydict,scipy")
	require.NoError(t, err)

	_, err = executeCommand(t, "requirements", "--check", "scipy")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "easydict"))
}

func TestVersionOutput(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lightx2vctl")
	assert.Contains(t, out, "commit")
}
