// Package runner orchestrates end to end generation jobs: it builds the
// node graph, queues it, follows execution over the websocket, and
// downloads the resulting files.
package runner

import (
	"github.com/pkg/errors"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

// Job describes one generation run.
type Job struct {
	Task lightx2v.Task

	Prompt         string
	NegativePrompt string

	// ImagePath is a local conditioning image, uploaded to the server
	// before an image-to-video run.
	ImagePath string

	ModelDir  string
	ModelName string

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

	TeaCache     *lightx2v.TeaCacheSettings
	LoraPath     string
	LoraStrength float64

	FilenamePrefix string
}

// Validate applies the node pack's parameter constraints up front so a
// bad job fails before anything is uploaded or queued.
func (j *Job) Validate() error {
	if err := j.Task.Validate(); err != nil {
		return err
	}
	if j.ModelDir == "" {
		return errors.New("job needs a model dir")
	}
	if j.Task == lightx2v.TaskImageToVideo && j.ImagePath == "" {
		return errors.New("image-to-video job needs an input image")
	}
	if j.Width%8 != 0 || j.Height%8 != 0 {
		return errors.Errorf("resolution %dx%d not divisible by 8", j.Width, j.Height)
	}
	if j.NumFrames > 0 && (j.NumFrames-1)%4 != 0 {
		return errors.Errorf("num_frames %d must be 4n+1", j.NumFrames)
	}
	if j.Precision != "" {
		if err := j.Precision.Validate(); err != nil {
			return err
		}
	}
	if j.Attention != "" {
		if err := j.Attention.Validate(); err != nil {
			return err
		}
	}
	if j.TeaCache != nil {
		if err := j.TeaCache.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// buildGraph assembles the pipeline for the job. imageName is the
// server-side filename of the uploaded conditioning image, empty for
// text-to-video.
func (j *Job) buildGraph(imageName string) (*workflow.Graph, error) {
	opts := workflow.PipelineOptions{
		ModelDir:       j.ModelDir,
		ModelName:      j.ModelName,
		Prompt:         j.Prompt,
		NegativePrompt: j.NegativePrompt,
		Width:          j.Width,
		Height:         j.Height,
		NumFrames:      j.NumFrames,
		Steps:          j.Steps,
		Shift:          j.Shift,
		CFGScale:       j.CFGScale,
		Seed:           j.Seed,
		Precision:      j.Precision,
		Attention:      j.Attention,
		CPUOffload:     j.CPUOffload,
		TeaCache:       j.TeaCache,
		LoraPath:       j.LoraPath,
		LoraStrength:   j.LoraStrength,
		ImageName:      imageName,
		FilenamePrefix: j.FilenamePrefix,
	}
	if j.Task == lightx2v.TaskImageToVideo {
		return workflow.BuildImageToVideo(opts)
	}
	return workflow.BuildTextToVideo(opts)
}
