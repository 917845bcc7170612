package lightx2v

// DefaultPrompt and DefaultNegativePrompt are the prompt defaults the pack
// ships in its text encoder node.
const (
	DefaultPrompt = "Summer beach vacation style, a white cat wearing sunglasses sits on a surfboard. " +
		"The fluffy-furred feline gazes directly at the camera with a relaxed expression. " +
		"Blurred beach scenery forms the background featuring crystal-clear waters, distant " +
		"green hills, and a blue sky dotted with white clouds. The cat assumes a naturally " +
		"relaxed posture, as if savoring the sea breeze and warm sunlight. A close-up shot " +
		"highlights the feline's intricate details and the refreshing atmosphere of the seaside."

	DefaultNegativePrompt = "色调艳丽，过曝，静态，细节模糊不清，字幕，风格，作品，画作，画面，静止，整体发灰，最差质量，" +
		"低质量，JPEG压缩残留，丑陋的，残缺的，多余的手指，画得不好的手部，画得不好的脸部，畸形的，毁容的，" +
		"形态畸形的肢体，手指融合，静止不动的画面，杂乱的背景，三条腿，背景人很多，倒着走"
)

// Default checkpoint filenames inside a Wan model directory.
const (
	DefaultT5Checkpoint         = "models_t5_umt5-xxl-enc-bf16.pth"
	DefaultClipVisionCheckpoint = "models_clip_open-clip-xlm-roberta-large-vit-huge-14.pth"
	DefaultClipTokenizer        = "xlm-roberta-large"
	DefaultVAECheckpoint        = "Wan2.1_VAE.pth"
)

var geometryInputs = []InputSpec{
	{Name: "width", Kind: KindInt, Default: 832, Min: 64, Max: 2048, Step: 8,
		Tooltip: "Width of the image to encode"},
	{Name: "height", Kind: KindInt, Default: 480, Min: 64, Max: 29048, Step: 8,
		Tooltip: "Height of the image to encode"},
	{Name: "num_frames", Kind: KindInt, Default: 81, Min: 1, Max: 10000, Step: 4,
		Tooltip: "Number of frames to encode"},
}

var classOrder = []NodeClass{
	NodeModelDir,
	NodeT5EncoderLoader,
	NodeT5Encoder,
	NodeClipVisionLoader,
	NodeVaeLoader,
	NodeTeaCache,
	NodeEmptyEmbeds,
	NodeImageEncoder,
	NodeVaeDecoder,
	NodeModelLoader,
	NodeSampler,
}

var registry = map[NodeClass]*NodeObject{
	NodeModelDir: {
		Class:       NodeModelDir,
		DisplayName: "LightX2V WAN Model Directory",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model_dir", Kind: KindString, Default: ""},
		},
		ReturnTypes: []string{TypeString},
		ReturnNames: []string{"STRING"},
	},
	NodeT5EncoderLoader: {
		Class:       NodeT5EncoderLoader,
		DisplayName: "LightX2V WAN T5 Encoder Loader",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model_name", Kind: KindString, Default: DefaultT5Checkpoint},
			{Name: "precision", Kind: KindCombo, Default: "bf16", Choices: []string{"bf16", "fp16", "fp32"}},
			{Name: "device", Kind: KindCombo, Default: "cuda", Choices: []string{"cuda", "cpu"}},
			{Name: "model_dir", Kind: KindString, Optional: true},
		},
		ReturnTypes: []string{TypeT5Encoder},
		ReturnNames: []string{"t5_encoder"},
	},
	NodeT5Encoder: {
		Class:       NodeT5Encoder,
		DisplayName: "LightX2V WAN T5 Encoder",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "t5_encoder", Kind: KindLink, LinkType: TypeT5Encoder},
			{Name: "prompt", Kind: KindString, Multiline: true, Default: DefaultPrompt},
			{Name: "negative_prompt", Kind: KindString, Multiline: true, Default: DefaultNegativePrompt},
		},
		ReturnTypes: []string{TypeTextEmbeddings},
		ReturnNames: []string{"text_embeddings"},
	},
	NodeClipVisionLoader: {
		Class:       NodeClipVisionLoader,
		DisplayName: "LightX2V WAN CLIP Vision Encoder Loader",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model_name", Kind: KindString, Default: DefaultClipVisionCheckpoint},
			{Name: "tokenizer_path", Kind: KindString, Default: DefaultClipTokenizer},
			{Name: "precision", Kind: KindCombo, Default: "fp16", Choices: []string{"fp16", "fp32"}},
			{Name: "device", Kind: KindCombo, Default: "cuda", Choices: []string{"cuda", "cpu"}},
			{Name: "model_dir", Kind: KindString, Optional: true},
		},
		ReturnTypes: []string{TypeClipVision},
		ReturnNames: []string{"clip_vision_encoder"},
	},
	NodeVaeLoader: {
		Class:       NodeVaeLoader,
		DisplayName: "LightX2V WAN VAE Loader",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model_name", Kind: KindString, Default: DefaultVAECheckpoint},
			{Name: "precision", Kind: KindCombo, Default: "fp16", Choices: []string{"bf16", "fp16", "fp32"}},
			{Name: "device", Kind: KindCombo, Default: "cuda", Choices: []string{"cuda", "cpu"}},
			{Name: "parallel", Kind: KindBoolean, Default: false},
			{Name: "model_dir", Kind: KindString, Optional: true},
		},
		ReturnTypes: []string{TypeWanVAE},
		ReturnNames: []string{"wan_vae"},
	},
	NodeTeaCache: {
		Class:        NodeTeaCache,
		DisplayName:  "LightX2V WAN Tea Cache",
		Category:     Category,
		Experimental: true,
		Inputs: []InputSpec{
			{Name: "rel_l1_thresh", Kind: KindFloat, Default: 0.26, Min: 0.0, Max: 10.0, Step: 0.001,
				Tooltip: "Threshold for when to apply the cache, a compromise between speed and accuracy"},
			{Name: "start_percent", Kind: KindFloat, Default: 0.1, Min: 0.0, Max: 1.0, Step: 0.01,
				Tooltip: "The start percentage of the steps to use with TeaCache"},
			{Name: "end_percent", Kind: KindFloat, Default: 1.0, Min: 0.0, Max: 1.0, Step: 0.01,
				Tooltip: "The end percentage of the steps to use with TeaCache"},
			{Name: "cache_device", Kind: KindCombo, Default: "offload_device",
				Choices: []string{"main_device", "offload_device"}, Tooltip: "Device to cache to"},
			{Name: "coefficients", Kind: KindCombo, Default: "i2v-14B-720p",
				Choices: []string{"i2v-14B-720p", "i2v-14B-480p", "1.3B", "14B", "disabled"},
				Tooltip: "Coefficient profile for TeaCache; must match the loaded model"},
			{Name: "mode", Kind: KindCombo, Default: "e", Choices: []string{"e", "e0"}, Optional: true,
				Tooltip: "Cache on time embeds (e) or modulated time embeds (e0)"},
		},
		ReturnTypes: []string{TypeTeaCacheArgs},
		ReturnNames: []string{"teacache_args"},
	},
	NodeEmptyEmbeds: {
		Class:       NodeEmptyEmbeds,
		DisplayName: "LightX2V WAN Video Empty Embeds",
		Category:    Category,
		Inputs:      geometryInputs,
		ReturnTypes: []string{TypeImageEmbeddings},
		ReturnNames: []string{"image_embeddings"},
	},
	NodeImageEncoder: {
		Class:       NodeImageEncoder,
		DisplayName: "LightX2V WAN Image Encoder",
		Category:    Category,
		Inputs: append([]InputSpec{
			{Name: "vae", Kind: KindLink, LinkType: TypeWanVAE},
			{Name: "clip_vision_encoder", Kind: KindLink, LinkType: TypeClipVision},
			{Name: "image", Kind: KindLink, LinkType: TypeImage},
		}, geometryInputs...),
		ReturnTypes: []string{TypeImageEmbeddings},
		ReturnNames: []string{"image_embeddings"},
	},
	NodeVaeDecoder: {
		Class:       NodeVaeDecoder,
		DisplayName: "LightX2V WAN VAE Decoder",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "wan_vae", Kind: KindLink, LinkType: TypeWanVAE},
			{Name: "latent", Kind: KindLink, LinkType: TypeLatent},
		},
		ReturnTypes: []string{TypeImage},
		ReturnNames: []string{"images"},
	},
	NodeModelLoader: {
		Class:       NodeModelLoader,
		DisplayName: "LightX2V WAN Model Loader",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model_name", Kind: KindString, Default: ""},
			{Name: "model_type", Kind: KindCombo, Default: "i2v", Choices: []string{"t2v", "i2v"}},
			{Name: "precision", Kind: KindCombo, Default: "bf16", Choices: []string{"bf16", "fp16", "fp32"}},
			{Name: "device", Kind: KindCombo, Default: "cuda", Choices: []string{"cuda", "cpu"}},
			{Name: "attention_type", Kind: KindCombo, Default: "flash_attn3",
				Choices: []string{"sdpa", "flash_attn2", "flash_attn3"}},
			{Name: "cpu_offload", Kind: KindBoolean, Default: false},
			{Name: "mm_type", Kind: KindString, Default: "Default"},
			{Name: "teacache_args", Kind: KindLink, LinkType: TypeTeaCacheArgs, Optional: true},
			{Name: "lora_path", Kind: KindString, Optional: true},
			{Name: "lora_strength", Kind: KindFloat, Default: 1.0, Min: 0.0, Max: 2.0, Step: 0.01, Optional: true},
			{Name: "model_dir", Kind: KindString, Optional: true},
		},
		ReturnTypes: []string{TypeWanModel},
		ReturnNames: []string{"wan_model"},
	},
	NodeSampler: {
		Class:       NodeSampler,
		DisplayName: "LightX2V WAN Video Sampler",
		Category:    Category,
		Inputs: []InputSpec{
			{Name: "model", Kind: KindLink, LinkType: TypeWanModel},
			{Name: "text_embeddings", Kind: KindLink, LinkType: TypeTextEmbeddings},
			{Name: "image_embeddings", Kind: KindLink, LinkType: TypeImageEmbeddings},
			{Name: "steps", Kind: KindInt, Default: 20, Min: 1, Max: 100, Step: 1},
			{Name: "shift", Kind: KindFloat, Default: 5.0},
			{Name: "cfg_scale", Kind: KindFloat, Default: 5.0, Min: 1.0, Max: 20.0, Step: 0.1},
			{Name: "seed", Kind: KindInt, Default: 42},
		},
		ReturnTypes: []string{TypeLatent},
		ReturnNames: []string{"latent"},
	},
}
