package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/client"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

// fakeComfy scripts the message stream a server would produce.
type fakeComfy struct {
	missing     []string
	uploadName  string
	outputs     map[string][]byte
	script      []client.PromptMessage
	queuedGraph *workflow.Graph
	interrupted bool
}

func (f *fakeComfy) Init(ctx context.Context) error { return nil }

func (f *fakeComfy) VerifyNodePack() []string { return f.missing }

func (f *fakeComfy) UploadImageFromPath(ctx context.Context, path string, overwrite bool) (string, error) {
	if f.uploadName == "" {
		return filepath.Base(path), nil
	}
	return f.uploadName, nil
}

func (f *fakeComfy) QueuePrompt(ctx context.Context, graph *workflow.Graph) (*client.QueueItem, error) {
	f.queuedGraph = graph
	item := &client.QueueItem{
		PromptID: "test-prompt",
		Messages: make(chan client.PromptMessage, len(f.script)+1),
		Workflow: graph,
	}
	for _, msg := range f.script {
		item.Messages <- msg
	}
	return item, nil
}

func (f *fakeComfy) GetOutput(ctx context.Context, output client.DataOutput) ([]byte, error) {
	return f.outputs[output.Filename], nil
}

func (f *fakeComfy) Interrupt(ctx context.Context) error {
	f.interrupted = true
	return nil
}

func successScript() []client.PromptMessage {
	return []client.PromptMessage{
		{Type: "started", Message: &client.PromptMessageStarted{PromptID: "test-prompt"}},
		{Type: "executing", Message: &client.PromptMessageExecuting{NodeID: 1, Title: "Model Loader"}},
		{Type: "progress", Message: &client.PromptMessageProgress{Value: 10, Max: 20}},
		{Type: "data", Message: &client.PromptMessageData{
			NodeID: 9,
			Data: map[string][]client.DataOutput{
				"images": {{Filename: "lightx2v_00001.mp4", Type: "output"}},
			},
		}},
		{Type: "stopped", Message: &client.PromptMessageStopped{}},
	}
}

func baseJob(task lightx2v.Task) *Job {
	return &Job{
		Task:      task,
		Prompt:    "a red fox on a frozen lake",
		ModelDir:  "/models/wan2.1",
		Width:     832,
		Height:    480,
		NumFrames: 81,
		Steps:     20,
		Seed:      7,
	}
}

func TestRunTextToVideo(t *testing.T) {
	fake := &fakeComfy{
		outputs: map[string][]byte{"lightx2v_00001.mp4": []byte("video bytes")},
		script:  successScript(),
	}

	var progressMax int
	outDir := t.TempDir()
	r := &Runner{
		Client:     fake,
		OutputDir:  outDir,
		OnProgress: func(value, max int) { progressMax = max },
	}

	result, err := r.Run(context.Background(), baseJob(lightx2v.TaskTextToVideo))
	require.NoError(t, err)
	assert.Equal(t, "test-prompt", result.PromptID)
	assert.Equal(t, 20, progressMax)

	require.Len(t, result.Outputs, 1)
	assert.Equal(t, 9, result.Outputs[0].NodeID)
	data, err := os.ReadFile(result.Outputs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("video bytes"), data)

	// t2v pipeline has no image loader
	require.NotNil(t, fake.queuedGraph)
	assert.Empty(t, fake.queuedGraph.GetNodesWithClass(workflow.LoadImageClass))
}

func TestRunImageToVideoUploadsImage(t *testing.T) {
	fake := &fakeComfy{
		uploadName: "cond_0001.png",
		script:     successScript(),
	}
	r := &Runner{Client: fake, OutputDir: t.TempDir()}

	job := baseJob(lightx2v.TaskImageToVideo)
	job.ImagePath = "testdata/cond.png"

	_, err := r.Run(context.Background(), job)
	require.NoError(t, err)

	loaders := fake.queuedGraph.GetNodesWithClass(workflow.LoadImageClass)
	require.Len(t, loaders, 1)
	assert.Equal(t, "cond_0001.png", loaders[0].Values["image"])
}

func TestRunImageToVideoRequiresImage(t *testing.T) {
	r := &Runner{Client: &fakeComfy{}}
	_, err := r.Run(context.Background(), baseJob(lightx2v.TaskImageToVideo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input image")
}

func TestRunRejectsBadFrameCount(t *testing.T) {
	r := &Runner{Client: &fakeComfy{}}
	job := baseJob(lightx2v.TaskTextToVideo)
	job.NumFrames = 80
	_, err := r.Run(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4n+1")
}

func TestRunMissingNodePack(t *testing.T) {
	fake := &fakeComfy{missing: []string{"Lightx2vWanVideoSampler"}}
	r := &Runner{Client: fake}
	_, err := r.Run(context.Background(), baseJob(lightx2v.TaskTextToVideo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lightx2vWanVideoSampler")
}

func TestRunExecutionError(t *testing.T) {
	fake := &fakeComfy{
		script: []client.PromptMessage{
			{Type: "stopped", Message: &client.PromptMessageStopped{
				Exception: &client.PromptMessageStoppedException{
					NodeID:           "9",
					NodeType:         "Lightx2vWanVideoSampler",
					NodeName:         "Sampler",
					ExceptionType:    "RuntimeError",
					ExceptionMessage: "CUDA out of memory",
				},
			}},
		},
	}
	r := &Runner{Client: fake, OutputDir: t.TempDir()}
	_, err := r.Run(context.Background(), baseJob(lightx2v.TaskTextToVideo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
	assert.Contains(t, err.Error(), "RuntimeError")
}

func TestRunCancelledContextInterrupts(t *testing.T) {
	fake := &fakeComfy{}
	r := &Runner{Client: fake, OutputDir: t.TempDir()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, baseJob(lightx2v.TaskTextToVideo))
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, fake.interrupted)
}

func TestRunBatch(t *testing.T) {
	fake := &fakeComfy{
		outputs: map[string][]byte{"lightx2v_00001.mp4": []byte("v")},
	}
	// each QueuePrompt call needs its own scripted channel
	fake.script = successScript()
	r := &Runner{Client: fake, OutputDir: t.TempDir()}

	jobs := []*Job{baseJob(lightx2v.TaskTextToVideo), baseJob(lightx2v.TaskTextToVideo)}
	results, err := r.RunBatch(context.Background(), jobs, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0])
	assert.NotNil(t, results[1])
}

func TestRunBatchPropagatesFailure(t *testing.T) {
	r := &Runner{Client: &fakeComfy{missing: []string{"Lightx2vTeaCache"}}}
	jobs := []*Job{baseJob(lightx2v.TaskTextToVideo)}
	_, err := r.RunBatch(context.Background(), jobs, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 0")
}
