package workflow

import (
	"fmt"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

// Host builtin classes the pipelines lean on. These are provided by ComfyUI
// itself, not the node pack, so they are not part of the catalog.
const (
	LoadImageClass = "LoadImage"
	SaveImageClass = "SaveImage"
)

// PipelineOptions parameterize the generation pipelines the node pack is
// normally wired up for in the UI.
type PipelineOptions struct {
	// ModelDir is the Wan model directory on the server. The individual
	// checkpoint names default to the pack's conventions.
	ModelDir      string
	ModelName     string
	T5Checkpoint  string
	ClipVision    string
	ClipTokenizer string
	VAECheckpoint string

	Prompt         string
	NegativePrompt string

	Width     int
	Height    int
	NumFrames int

	Steps    int
	Shift    float64
	CFGScale float64
	Seed     int64

	Precision  lightx2v.Precision
	Attention  lightx2v.AttentionType
	CPUOffload bool
	MMType     string

	TeaCache     *lightx2v.TeaCacheSettings
	LoraPath     string
	LoraStrength float64

	// ImageName is the server-side filename of the conditioning image,
	// required for image-to-video.
	ImageName string

	// FilenamePrefix names the decoded frames written by the server.
	FilenamePrefix string
}

func (o *PipelineOptions) withDefaults() PipelineOptions {
	opts := *o
	if opts.T5Checkpoint == "" {
		opts.T5Checkpoint = lightx2v.DefaultT5Checkpoint
	}
	if opts.ClipVision == "" {
		opts.ClipVision = lightx2v.DefaultClipVisionCheckpoint
	}
	if opts.ClipTokenizer == "" {
		opts.ClipTokenizer = lightx2v.DefaultClipTokenizer
	}
	if opts.VAECheckpoint == "" {
		opts.VAECheckpoint = lightx2v.DefaultVAECheckpoint
	}
	if opts.Width == 0 {
		opts.Width = 832
	}
	if opts.Height == 0 {
		opts.Height = 480
	}
	if opts.NumFrames == 0 {
		opts.NumFrames = 81
	}
	if opts.Steps == 0 {
		opts.Steps = 20
	}
	if opts.Shift == 0 {
		opts.Shift = 5.0
	}
	if opts.CFGScale == 0 {
		opts.CFGScale = 5.0
	}
	if opts.Precision == "" {
		opts.Precision = lightx2v.PrecisionBF16
	}
	if opts.Attention == "" {
		opts.Attention = lightx2v.AttentionFlashAttn3
	}
	if opts.LoraStrength == 0 {
		opts.LoraStrength = 1.0
	}
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = "lightx2v"
	}
	return opts
}

func (o *PipelineOptions) validate(task lightx2v.Task) error {
	if o.ModelDir == "" {
		return fmt.Errorf("model dir must be provided")
	}
	if o.Width%8 != 0 || o.Height%8 != 0 {
		return fmt.Errorf("resolution %dx%d not divisible by 8", o.Width, o.Height)
	}
	if (o.NumFrames-1)%4 != 0 {
		return fmt.Errorf("num_frames %d must be 4n+1", o.NumFrames)
	}
	if task == lightx2v.TaskImageToVideo && o.ImageName == "" {
		return fmt.Errorf("image-to-video requires an input image")
	}
	return nil
}

// addModelLoader emits the model loader node, wiring TeaCache in when
// configured.
func addModelLoader(g *Graph, opts PipelineOptions, task lightx2v.Task) *Node {
	loader := g.AddNode(string(lightx2v.NodeModelLoader), "Model Loader")
	loader.Values["model_name"] = opts.ModelName
	loader.Values["model_type"] = string(task)
	loader.Values["precision"] = string(opts.Precision)
	loader.Values["device"] = string(lightx2v.DeviceCUDA)
	loader.Values["attention_type"] = string(opts.Attention)
	loader.Values["cpu_offload"] = opts.CPUOffload
	mmType := opts.MMType
	if mmType == "" {
		mmType = "Default"
	}
	loader.Values["mm_type"] = mmType
	loader.Values["model_dir"] = opts.ModelDir
	if opts.LoraPath != "" {
		loader.Values["lora_path"] = opts.LoraPath
		loader.Values["lora_strength"] = opts.LoraStrength
	}

	if opts.TeaCache != nil {
		tc := g.AddNode(string(lightx2v.NodeTeaCache), "Tea Cache")
		tc.Values["rel_l1_thresh"] = opts.TeaCache.RelL1Thresh
		tc.Values["start_percent"] = opts.TeaCache.StartPercent
		tc.Values["end_percent"] = opts.TeaCache.EndPercent
		tc.Values["cache_device"] = string(opts.TeaCache.CacheDevice)
		tc.Values["coefficients"] = string(opts.TeaCache.Coefficients)
		if opts.TeaCache.Mode != "" {
			tc.Values["mode"] = string(opts.TeaCache.Mode)
		}
		g.Connect(tc.Output(0), loader, "teacache_args")
	}
	return loader
}

// addTextEncoder emits the T5 loader/encoder pair.
func addTextEncoder(g *Graph, opts PipelineOptions) *Node {
	t5loader := g.AddNode(string(lightx2v.NodeT5EncoderLoader), "T5 Encoder Loader")
	t5loader.Values["model_name"] = opts.T5Checkpoint
	t5loader.Values["precision"] = string(lightx2v.PrecisionBF16)
	t5loader.Values["device"] = string(lightx2v.DeviceCUDA)
	t5loader.Values["model_dir"] = opts.ModelDir

	encoder := g.AddNode(string(lightx2v.NodeT5Encoder), "T5 Encoder")
	encoder.Values["prompt"] = opts.Prompt
	encoder.Values["negative_prompt"] = opts.NegativePrompt
	g.Connect(t5loader.Output(0), encoder, "t5_encoder")
	return encoder
}

func addVAELoader(g *Graph, opts PipelineOptions) *Node {
	vae := g.AddNode(string(lightx2v.NodeVaeLoader), "VAE Loader")
	vae.Values["model_name"] = opts.VAECheckpoint
	vae.Values["precision"] = string(lightx2v.PrecisionFP16)
	vae.Values["device"] = string(lightx2v.DeviceCUDA)
	vae.Values["parallel"] = false
	vae.Values["model_dir"] = opts.ModelDir
	return vae
}

func addSamplerAndDecode(g *Graph, opts PipelineOptions, model, text, embeds, vae *Node) *Node {
	sampler := g.AddNode(string(lightx2v.NodeSampler), "Sampler")
	sampler.Values["steps"] = opts.Steps
	sampler.Values["shift"] = opts.Shift
	sampler.Values["cfg_scale"] = opts.CFGScale
	sampler.Values["seed"] = int(opts.Seed)
	g.Connect(model.Output(0), sampler, "model")
	g.Connect(text.Output(0), sampler, "text_embeddings")
	g.Connect(embeds.Output(0), sampler, "image_embeddings")

	decoder := g.AddNode(string(lightx2v.NodeVaeDecoder), "VAE Decoder")
	g.Connect(vae.Output(0), decoder, "wan_vae")
	g.Connect(sampler.Output(0), decoder, "latent")

	save := g.AddNode(SaveImageClass, "Save")
	save.Values["filename_prefix"] = opts.FilenamePrefix
	g.Connect(decoder.Output(0), save, "images")
	return save
}

// BuildTextToVideo assembles the t2v pipeline: model loader, text encoder,
// empty image embeds carrying the target geometry, sampler, VAE decode and
// save.
func BuildTextToVideo(options PipelineOptions) (*Graph, error) {
	opts := options.withDefaults()
	if err := opts.validate(lightx2v.TaskTextToVideo); err != nil {
		return nil, err
	}

	g := NewGraph()
	model := addModelLoader(g, opts, lightx2v.TaskTextToVideo)
	text := addTextEncoder(g, opts)

	embeds := g.AddNode(string(lightx2v.NodeEmptyEmbeds), "Empty Embeds")
	embeds.Values["width"] = opts.Width
	embeds.Values["height"] = opts.Height
	embeds.Values["num_frames"] = opts.NumFrames

	vae := addVAELoader(g, opts)
	addSamplerAndDecode(g, opts, model, text, embeds, vae)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildImageToVideo assembles the i2v pipeline: the t2v stages plus the
// CLIP vision encoder and the VAE image conditioning path.
func BuildImageToVideo(options PipelineOptions) (*Graph, error) {
	opts := options.withDefaults()
	if err := opts.validate(lightx2v.TaskImageToVideo); err != nil {
		return nil, err
	}

	g := NewGraph()
	model := addModelLoader(g, opts, lightx2v.TaskImageToVideo)
	text := addTextEncoder(g, opts)
	vae := addVAELoader(g, opts)

	clipLoader := g.AddNode(string(lightx2v.NodeClipVisionLoader), "CLIP Vision Loader")
	clipLoader.Values["model_name"] = opts.ClipVision
	clipLoader.Values["tokenizer_path"] = opts.ClipTokenizer
	clipLoader.Values["precision"] = string(lightx2v.PrecisionFP16)
	clipLoader.Values["device"] = string(lightx2v.DeviceCUDA)
	clipLoader.Values["model_dir"] = opts.ModelDir

	image := g.AddNode(LoadImageClass, "Load Image")
	image.Values["image"] = opts.ImageName

	encoder := g.AddNode(string(lightx2v.NodeImageEncoder), "Image Encoder")
	encoder.Values["width"] = opts.Width
	encoder.Values["height"] = opts.Height
	encoder.Values["num_frames"] = opts.NumFrames
	g.Connect(vae.Output(0), encoder, "vae")
	g.Connect(clipLoader.Output(0), encoder, "clip_vision_encoder")
	g.Connect(image.Output(0), encoder, "image")

	addSamplerAndDecode(g, opts, model, text, encoder, vae)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
