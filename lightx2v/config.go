package lightx2v

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// MMConfig selects the matrix-multiply implementation. Any mm_type other
// than "Default" enables weight auto-quantization, which needs one of the
// optional quantization backends from the manifest.
type MMConfig struct {
	MMType          string `json:"mm_type"`
	WeightAutoQuant bool   `json:"weight_auto_quant"`
}

// ModelConfig is the configuration dictionary the pack composes for the
// lightx2v runtime: the wrapper's base settings merged with the model
// directory's config.json, then the per-run sampling parameters. Keys not
// known to the wrapper survive the merge in Extra.
type ModelConfig struct {
	DoMMCalib        bool           `json:"do_mm_calib"`
	CPUOffload       bool           `json:"cpu_offload"`
	ParallelAttnType *string        `json:"parallel_attn_type"`
	ParallelVAE      bool           `json:"parallel_vae"`
	MaxArea          bool           `json:"max_area"`
	VAEStride        [3]int         `json:"vae_stride"`
	PatchSize        [3]int         `json:"patch_size"`
	FeatureCaching   FeatureCaching `json:"feature_caching"`
	TeaCacheThresh   float64        `json:"teacache_thresh"`
	UseRetSteps      bool           `json:"use_ret_steps"`
	UseBFloat16      bool           `json:"use_bfloat16"`
	MMConfig         MMConfig       `json:"mm_config"`
	ModelPath        string         `json:"model_path"`
	Task             Task           `json:"task"`
	ModelCls         string         `json:"model_cls"`
	Device           Device         `json:"device"`
	AttentionType    AttentionType  `json:"attention_type"`
	LoraPath         *string        `json:"lora_path"`
	StrengthModel    float64        `json:"strength_model"`

	// sampling parameters, applied per run
	InferSteps         int     `json:"infer_steps,omitempty"`
	SampleShift        float64 `json:"sample_shift,omitempty"`
	SampleGuideScale   float64 `json:"sample_guide_scale,omitempty"`
	Seed               int64   `json:"seed,omitempty"`
	EnableCFG          bool    `json:"enable_cfg"`
	OffloadGranularity string  `json:"offload_granularity,omitempty"`

	// geometry, filled from the image/empty embeds
	TargetHeight      int    `json:"target_height,omitempty"`
	TargetWidth       int    `json:"target_width,omitempty"`
	TargetVideoLength int    `json:"target_video_length,omitempty"`
	LatH              int    `json:"lat_h,omitempty"`
	LatW              int    `json:"lat_w,omitempty"`
	TargetShape       [4]int `json:"target_shape,omitempty"`

	// NumChannelsLatents comes from the model's config.json; zero means
	// the Wan default of 16.
	NumChannelsLatents int `json:"num_channels_latents,omitempty"`

	// Extra holds config.json keys the wrapper has no field for.
	Extra map[string]interface{} `json:"-"`
}

// ModelOptions are the loader-node inputs that shape a ModelConfig.
type ModelOptions struct {
	ModelPath     string
	Task          Task
	Precision     Precision
	Device        Device
	AttentionType AttentionType
	CPUOffload    bool
	MMType        string
	TeaCache      *TeaCacheSettings
	LoraPath      string
	LoraStrength  float64
}

// NewModelConfig composes the base configuration the model loader node
// builds before merging the model directory's config.json.
func NewModelConfig(opts ModelOptions) (*ModelConfig, error) {
	if err := opts.Task.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Precision.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Device.Validate(); err != nil {
		return nil, err
	}
	if err := opts.AttentionType.Validate(); err != nil {
		return nil, err
	}
	if opts.TeaCache != nil {
		if err := opts.TeaCache.Validate(); err != nil {
			return nil, err
		}
	}

	mmType := opts.MMType
	if mmType == "" {
		mmType = "Default"
	}
	caching := CachingNone
	thresh := 0.26
	if opts.TeaCache != nil {
		caching = CachingTea
		thresh = opts.TeaCache.RelL1Thresh
	}
	strength := opts.LoraStrength
	if strength == 0 {
		strength = 1.0
	}

	cfg := &ModelConfig{
		CPUOffload:     opts.CPUOffload,
		VAEStride:      VAEStride,
		PatchSize:      PatchSize,
		FeatureCaching: caching,
		TeaCacheThresh: thresh,
		UseBFloat16:    opts.Precision == PrecisionBF16,
		MMConfig: MMConfig{
			MMType:          mmType,
			WeightAutoQuant: mmType != "Default",
		},
		ModelPath:     opts.ModelPath,
		Task:          opts.Task,
		ModelCls:      "wan2.1",
		Device:        opts.Device,
		AttentionType: opts.AttentionType,
		StrengthModel: strength,
	}
	if opts.LoraPath != "" {
		p := opts.LoraPath
		cfg.LoraPath = &p
	}
	return cfg, nil
}

// MergeConfigJSON overlays the model's config.json onto the config. File
// values win over wrapper defaults, matching the pack's dict update; keys
// the wrapper does not model are kept in Extra.
func (c *ModelConfig) MergeConfigJSON(data []byte) error {
	// overlay known fields
	type alias ModelConfig
	if err := json.Unmarshal(data, (*alias)(c)); err != nil {
		return fmt.Errorf("parsing model config.json: %w", err)
	}

	// keep the unknown keys
	raw := make(map[string]interface{})
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing model config.json: %w", err)
	}
	for _, known := range knownConfigKeys {
		delete(raw, known)
	}
	if len(raw) > 0 {
		if c.Extra == nil {
			c.Extra = make(map[string]interface{})
		}
		for k, v := range raw {
			c.Extra[k] = v
		}
	}
	return nil
}

// LoadModelDirConfig reads and merges <dir>/config.json. A model directory
// without a config.json is an error, as the pack treats it.
func (c *ModelConfig) LoadModelDirConfig(dir string) error {
	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file not found at %s: %w", path, err)
	}
	return c.MergeConfigJSON(data)
}

// SamplingOptions are the sampler-node inputs applied per run.
type SamplingOptions struct {
	Steps    int
	Shift    float64
	CFGScale float64
	Seed     int64
}

// ApplySampling folds the per-run sampling parameters into the config.
// CFG is disabled when the guide scale is 1.0, matching the pack.
func (c *ModelConfig) ApplySampling(opts SamplingOptions) error {
	if opts.Steps < 1 {
		return fmt.Errorf("steps %d < 1", opts.Steps)
	}
	c.InferSteps = opts.Steps
	c.SampleShift = opts.Shift
	c.SampleGuideScale = opts.CFGScale
	c.Seed = opts.Seed
	c.EnableCFG = !cfgIsUnit(opts.CFGScale)
	c.OffloadGranularity = "block"
	return nil
}

func cfgIsUnit(scale float64) bool {
	return math.Abs(scale-1.0) <= 1e-9*math.Max(math.Abs(scale), 1.0)
}

// ApplyGeometry sets the target resolution and frame count and recomputes
// the sampler's target shape. For i2v, latH/latW must have been computed
// from the conditioning image with LatentDims.
func (c *ModelConfig) ApplyGeometry(width, height, numFrames, latH, latW int) error {
	c.TargetWidth = width
	c.TargetHeight = height
	c.TargetVideoLength = numFrames
	c.LatH = latH
	c.LatW = latW

	shape, err := TargetShape(c.Task, c.NumChannelsLatents, numFrames, latH, latW, height, width)
	if err != nil {
		return err
	}
	c.TargetShape = shape
	return nil
}

// MarshalJSON serializes the config with the Extra keys folded back in.
func (c *ModelConfig) MarshalJSON() ([]byte, error) {
	type alias ModelConfig
	data, err := json.Marshal((*alias)(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return data, nil
	}
	merged := make(map[string]interface{})
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

var knownConfigKeys = []string{
	"do_mm_calib", "cpu_offload", "parallel_attn_type", "parallel_vae",
	"max_area", "vae_stride", "patch_size", "feature_caching",
	"teacache_thresh", "use_ret_steps", "use_bfloat16", "mm_config",
	"model_path", "task", "model_cls", "device", "attention_type",
	"lora_path", "strength_model", "infer_steps", "sample_shift",
	"sample_guide_scale", "seed", "enable_cfg", "offload_granularity",
	"target_height", "target_width", "target_video_length", "lat_h",
	"lat_w", "target_shape", "num_channels_latents",
}
