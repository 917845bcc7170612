package lightx2v

import (
	"fmt"
	"math"
)

// TeaCacheSettings configures the TeaCache feature-caching scheduler. The
// node exposes start/end as percentages of the step count; StepRange
// converts them for a concrete run.
type TeaCacheSettings struct {
	RelL1Thresh  float64      `json:"rel_l1_thresh" yaml:"rel_l1_thresh"`
	StartPercent float64      `json:"start_percent" yaml:"start_percent"`
	EndPercent   float64      `json:"end_percent" yaml:"end_percent"`
	CacheDevice  CacheDevice  `json:"cache_device" yaml:"cache_device"`
	Coefficients Coefficients `json:"coefficients" yaml:"coefficients"`
	Mode         TeaCacheMode `json:"mode" yaml:"mode"`
}

// DefaultTeaCache returns the node's default settings. The 0.26 threshold
// suits the coefficient profiles of the 14B models; the 1.3B model wants a
// threshold roughly ten times smaller.
func DefaultTeaCache() TeaCacheSettings {
	return TeaCacheSettings{
		RelL1Thresh:  0.26,
		StartPercent: 0.1,
		EndPercent:   1.0,
		CacheDevice:  CacheDeviceOffload,
		Coefficients: CoefficientsI2V720p,
		Mode:         TeaCacheModeE,
	}
}

func (t *TeaCacheSettings) Validate() error {
	if t.RelL1Thresh < 0 || t.RelL1Thresh > 10 {
		return fmt.Errorf("rel_l1_thresh %v outside [0, 10]", t.RelL1Thresh)
	}
	if t.StartPercent < 0 || t.StartPercent > 1 {
		return fmt.Errorf("start_percent %v outside [0, 1]", t.StartPercent)
	}
	if t.EndPercent < 0 || t.EndPercent > 1 {
		return fmt.Errorf("end_percent %v outside [0, 1]", t.EndPercent)
	}
	if t.StartPercent > t.EndPercent {
		return fmt.Errorf("start_percent %v after end_percent %v", t.StartPercent, t.EndPercent)
	}
	if err := t.CacheDevice.Validate(); err != nil {
		return err
	}
	if err := t.Coefficients.Validate(); err != nil {
		return err
	}
	if t.Mode == "" {
		return nil
	}
	return t.Mode.Validate()
}

// StepRange converts the percent window into inclusive step bounds for a
// run of the given step count.
func (t *TeaCacheSettings) StepRange(steps int) (start, end int) {
	if steps <= 0 {
		return 0, 0
	}
	start = int(math.Floor(t.StartPercent * float64(steps)))
	end = int(math.Ceil(t.EndPercent*float64(steps))) - 1
	if end >= steps {
		end = steps - 1
	}
	if start > end {
		start = end
	}
	return start, end
}
