package lightx2v

import "fmt"

// Precision selects the floating point width model weights are loaded in.
type Precision string

const (
	PrecisionBF16 Precision = "bf16"
	PrecisionFP16 Precision = "fp16"
	PrecisionFP32 Precision = "fp32"
)

func (p Precision) Validate() error {
	switch p {
	case PrecisionBF16, PrecisionFP16, PrecisionFP32:
		return nil
	}
	return fmt.Errorf("unknown precision %q", string(p))
}

// Device is where a model component is placed.
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

func (d Device) Validate() error {
	switch d {
	case DeviceCUDA, DeviceCPU:
		return nil
	}
	return fmt.Errorf("unknown device %q", string(d))
}

// AttentionType selects the attention kernel the transformer runs with.
// flash_attn2/flash_attn3 require the optional flash-attn package from the
// manifest; sdpa is always available.
type AttentionType string

const (
	AttentionSDPA       AttentionType = "sdpa"
	AttentionFlashAttn2 AttentionType = "flash_attn2"
	AttentionFlashAttn3 AttentionType = "flash_attn3"
)

func (a AttentionType) Validate() error {
	switch a {
	case AttentionSDPA, AttentionFlashAttn2, AttentionFlashAttn3:
		return nil
	}
	return fmt.Errorf("unknown attention type %q", string(a))
}

// Task is the generation mode.
type Task string

const (
	TaskTextToVideo  Task = "t2v"
	TaskImageToVideo Task = "i2v"
)

func (t Task) Validate() error {
	switch t {
	case TaskTextToVideo, TaskImageToVideo:
		return nil
	}
	return fmt.Errorf("unknown task %q", string(t))
}

// FeatureCaching selects the scheduler's feature caching strategy.
type FeatureCaching string

const (
	CachingNone FeatureCaching = "NoCaching"
	CachingTea  FeatureCaching = "Tea"
)

// CacheDevice is where TeaCache keeps its cached features.
type CacheDevice string

const (
	CacheDeviceMain    CacheDevice = "main_device"
	CacheDeviceOffload CacheDevice = "offload_device"
)

func (c CacheDevice) Validate() error {
	switch c {
	case CacheDeviceMain, CacheDeviceOffload:
		return nil
	}
	return fmt.Errorf("unknown cache device %q", string(c))
}

// Coefficients names a TeaCache polynomial coefficient profile. The profile
// must match the loaded model; "disabled" runs TeaCache without
// coefficients.
type Coefficients string

const (
	CoefficientsI2V720p  Coefficients = "i2v-14B-720p"
	CoefficientsI2V480p  Coefficients = "i2v-14B-480p"
	Coefficients1_3B     Coefficients = "1.3B"
	Coefficients14B      Coefficients = "14B"
	CoefficientsDisabled Coefficients = "disabled"
)

func (c Coefficients) Validate() error {
	switch c {
	case CoefficientsI2V720p, CoefficientsI2V480p, Coefficients1_3B, Coefficients14B, CoefficientsDisabled:
		return nil
	}
	return fmt.Errorf("unknown coefficient profile %q", string(c))
}

// TeaCacheMode chooses between caching on time embeds (e) or modulated time
// embeds (e0).
type TeaCacheMode string

const (
	TeaCacheModeE  TeaCacheMode = "e"
	TeaCacheModeE0 TeaCacheMode = "e0"
)

func (m TeaCacheMode) Validate() error {
	switch m {
	case TeaCacheModeE, TeaCacheModeE0:
		return nil
	}
	return fmt.Errorf("unknown teacache mode %q", string(m))
}
