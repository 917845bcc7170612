package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		extras  []string
		cons    []Constraint
		marker  string
		wantErr bool
	}{
		{in: "easydict", name: "easydict"},
		{in: "scipy", name: "scipy"},
		{in: "Flash_Attn", name: "flash-attn"},
		{in: "torch>=2.1", name: "torch", cons: []Constraint{{Op: ">=", Version: "2.1"}}},
		{in: "numpy==1.26.4", name: "numpy", cons: []Constraint{{Op: "==", Version: "1.26.4"}}},
		{in: "vllm[audio]~=0.6.0", name: "vllm", extras: []string{"audio"},
			cons: []Constraint{{Op: "~=", Version: "0.6.0"}}},
		{in: "pkg>=1.0,<2.0", name: "pkg",
			cons: []Constraint{{Op: ">=", Version: "1.0"}, {Op: "<", Version: "2.0"}}},
		{in: "triton; platform_system == 'Linux'", name: "triton", marker: "platform_system == 'Linux'"},
		{in: "", wantErr: true},
		{in: "not a specifier", wantErr: true},
		{in: "-r other.txt", wantErr: true},
	}

	for _, tc := range tests {
		req, err := ParseLine(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.name, req.Name)
		assert.Equal(t, tc.extras, req.Extras)
		assert.Equal(t, tc.cons, req.Constraints)
		assert.Equal(t, tc.marker, req.Marker)
	}
}

func TestDefaultManifestMandatorySet(t *testing.T) {
	m := Default()

	names := make([]string, 0)
	for _, r := range m.Mandatory() {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"easydict", "scipy"}, names)
}

func TestDefaultManifestOptionalSet(t *testing.T) {
	m := Default()

	names := make([]string, 0)
	for _, r := range m.Optional() {
		assert.True(t, r.Optional, "%s must be commented out", r.Name)
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, OptionalNames, names)
}

func TestDefaultManifestAnnotations(t *testing.T) {
	m := Default()

	q := m.Get("qtorch")
	require.NotNil(t, q)
	assert.Equal(t, "Optional quantization backends", q.Annotation)

	fa := m.Get("flash-attn")
	require.NotNil(t, fa)
	assert.Equal(t, "Optional attention kernel acceleration", fa.Annotation)
}

func TestRoundTrip(t *testing.T) {
	m := Default()

	again, err := ParseString(m.String())
	require.NoError(t, err)
	assert.True(t, m.Equivalent(again), "serialize/parse must preserve the requirement sets")
}

func TestParseRejectsBadSpecifier(t *testing.T) {
	_, err := ParseString("easydict\nthis is not a specifier\n")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestParseInlineComment(t *testing.T) {
	m, err := ParseString("scipy  # scientific bits\n")
	require.NoError(t, err)

	reqs := m.Mandatory()
	require.Len(t, reqs, 1)
	assert.Equal(t, "scipy", reqs[0].Name)
}

func TestEnable(t *testing.T) {
	m := Default()

	require.NoError(t, m.Enable("xformers"))
	x := m.Get("xformers")
	require.NotNil(t, x)
	assert.False(t, x.Optional)

	// serialized form now lists xformers uncommented
	assert.Contains(t, m.String(), "\nxformers\n")
	assert.Error(t, m.Enable("definitely-not-there"))
}

func TestVerify(t *testing.T) {
	m := Default()

	missing := m.Verify([]string{"easydict", "scipy", "torch"})
	assert.Empty(t, missing)

	missing = m.Verify([]string{"EasyDict"})
	assert.Equal(t, []string{"scipy"}, missing)
}

func TestMatches(t *testing.T) {
	req, err := ParseLine("torch>=2.1,<3.0")
	require.NoError(t, err)

	assert.True(t, req.Matches("2.4.1"))
	assert.False(t, req.Matches("2.0.0"))
	assert.False(t, req.Matches("3.0.0"))
	assert.False(t, req.Matches("not-a-version"))

	pinned, err := ParseLine("numpy==1.26.4")
	require.NoError(t, err)
	assert.True(t, pinned.Matches("1.26.4"))
	assert.False(t, pinned.Matches("1.26.5"))

	free, err := ParseLine("easydict")
	require.NoError(t, err)
	assert.True(t, free.Matches("anything"))
}

func TestWriteToPreservesComments(t *testing.T) {
	m := Default()
	var sb strings.Builder
	_, err := m.WriteTo(&sb)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "# The lightx2v submodule ships its own requirements.txt")
	assert.Contains(t, out, "# vllm")
	assert.Contains(t, out, "easydict")
}
