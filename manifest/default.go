package manifest

// defaultRequirements is the canonical requirements file shipped with the
// node pack. The lightx2v submodule carries its own manifest and is
// installed separately; only the wrapper's direct dependencies are
// mandatory here. The commented specifiers are opt-in accelerators.
const defaultRequirements = `# ComfyUI-Lightx2vWrapper requirements
#
# The lightx2v submodule ships its own requirements.txt and must be
# installed on its own:
#   pip install -r lightx2v/requirements.txt

easydict
scipy

# Optional quantization backends
# vllm
# sgl-kernel
# qtorch

# Optional attention kernel acceleration
# flash-attn
# sage-attention
# xformers
`

// MandatoryNames are the packages the wrapper itself requires.
var MandatoryNames = []string{"easydict", "scipy"}

// OptionalNames are the opt-in accelerator packages documented in the
// manifest: quantization backends and attention kernels.
var OptionalNames = []string{
	"vllm", "sgl-kernel", "qtorch",
	"flash-attn", "sage-attention", "xformers",
}

// Default returns the canonical node-pack manifest.
func Default() *Manifest {
	m, err := ParseString(defaultRequirements)
	if err != nil {
		// the embedded manifest is covered by tests; a parse failure
		// here is a programming error
		panic(err)
	}
	return m
}
