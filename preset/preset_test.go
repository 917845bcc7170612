package preset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

func TestBuiltinsValidate(t *testing.T) {
	for name, p := range builtins {
		p := p
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Validate())
			assert.Equal(t, name, p.Name)
		})
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.Len(t, names, 4)
	assert.Equal(t, []string{"i2v-480p", "i2v-720p", "t2v-480p", "t2v-720p"}, names)
}

func TestGetBuiltin(t *testing.T) {
	p, err := Get("i2v-720p")
	require.NoError(t, err)
	assert.Equal(t, lightx2v.TaskImageToVideo, p.Task)
	assert.Equal(t, 1280, p.Width)
	require.NotNil(t, p.TeaCache)
	assert.Equal(t, lightx2v.CoefficientsI2V720p, p.TeaCache.Coefficients)

	// mutating the returned preset must not change the builtin
	p.Width = 64
	again, err := Get("i2v-720p")
	require.NoError(t, err)
	assert.Equal(t, 1280, again.Width)
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}

func TestReadYAML(t *testing.T) {
	raw := `
name: my-run
task: i2v
width: 832
height: 480
num_frames: 49
steps: 30
cfg_scale: 6.0
teacache:
  rel_l1_thresh: 0.2
  start_percent: 0.1
  end_percent: 0.9
  cache_device: offload_device
  coefficients: i2v-14B-480p
  mode: e
`
	p, err := Read(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "my-run", p.Name)
	assert.Equal(t, 49, p.NumFrames)
	require.NotNil(t, p.TeaCache)
	assert.Equal(t, 0.2, p.TeaCache.RelL1Thresh)
}

func TestReadRejectsUnknownField(t *testing.T) {
	_, err := Read(strings.NewReader("name: x\ntask: t2v\nbogus: 1\n"))
	require.Error(t, err)
}

func TestReadRejectsBadGeometry(t *testing.T) {
	_, err := Read(strings.NewReader("name: x\ntask: t2v\nwidth: 830\nheight: 480\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not divisible by 8")

	_, err = Read(strings.NewReader("name: x\ntask: t2v\nnum_frames: 80\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4n+1")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, err := Get("i2v-480p")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	// Get falls back to the filesystem for non-builtin names
	viaGet, err := Get(path)
	require.NoError(t, err)
	assert.Equal(t, p, viaGet)
}

func TestApply(t *testing.T) {
	p, err := Get("t2v-720p")
	require.NoError(t, err)

	opts := workflow.PipelineOptions{
		ModelDir: "/models/wan",
		Prompt:   "a red fox",
		Seed:     42,
	}
	p.Apply(&opts)

	assert.Equal(t, 1280, opts.Width)
	assert.Equal(t, 720, opts.Height)
	assert.Equal(t, 81, opts.NumFrames)
	assert.Equal(t, 20, opts.Steps)
	assert.Equal(t, 5.0, opts.CFGScale)
	// untouched fields survive
	assert.Equal(t, "/models/wan", opts.ModelDir)
	assert.Equal(t, int64(42), opts.Seed)
	assert.Nil(t, opts.TeaCache)
}

func TestApplyCopiesTeaCache(t *testing.T) {
	p, err := Get("i2v-480p")
	require.NoError(t, err)

	var opts workflow.PipelineOptions
	p.Apply(&opts)
	require.NotNil(t, opts.TeaCache)
	opts.TeaCache.RelL1Thresh = 9

	assert.Equal(t, 0.26, p.TeaCache.RelL1Thresh)
}
