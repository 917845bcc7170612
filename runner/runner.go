package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/client"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/workflow"
)

// Comfy is the slice of the server client the runner needs. It is
// satisfied by *client.Client.
type Comfy interface {
	Init(ctx context.Context) error
	VerifyNodePack() []string
	UploadImageFromPath(ctx context.Context, path string, overwrite bool) (string, error)
	QueuePrompt(ctx context.Context, graph *workflow.Graph) (*client.QueueItem, error)
	GetOutput(ctx context.Context, output client.DataOutput) ([]byte, error)
	Interrupt(ctx context.Context) error
}

// SavedOutput is one downloaded artifact.
type SavedOutput struct {
	NodeID   int
	Filename string
	Path     string
}

// Result summarizes a finished job.
type Result struct {
	PromptID string
	Outputs  []SavedOutput
}

// Runner executes jobs against a single server.
type Runner struct {
	Client    Comfy
	OutputDir string

	// OnProgress is invoked for every sampler progress tick.
	OnProgress func(value, max int)
	// OnNodeStart is invoked when the server begins a node.
	OnNodeStart func(nodeID int, title string)
}

// Run executes a single job to completion: upload the conditioning
// image when needed, build and queue the graph, follow the execution
// messages, and download every produced output into OutputDir.
func (r *Runner) Run(ctx context.Context, job *Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating job")
	}
	if err := r.Client.Init(ctx); err != nil {
		return nil, err
	}
	if missing := r.Client.VerifyNodePack(); len(missing) > 0 {
		return nil, errors.Errorf("server is missing node classes: %s", strings.Join(missing, ", "))
	}

	imageName := ""
	if job.Task == lightx2v.TaskImageToVideo {
		name, err := r.Client.UploadImageFromPath(ctx, job.ImagePath, true)
		if err != nil {
			return nil, errors.Wrapf(err, "uploading %s", job.ImagePath)
		}
		imageName = name
	}

	graph, err := job.buildGraph(imageName)
	if err != nil {
		return nil, errors.Wrap(err, "building workflow")
	}

	item, err := r.Client.QueuePrompt(ctx, graph)
	if err != nil {
		return nil, err
	}
	slog.Info("queued prompt", "prompt_id", item.PromptID, "task", job.Task)

	result := &Result{PromptID: item.PromptID}
	for {
		select {
		case <-ctx.Done():
			if err := r.Client.Interrupt(context.Background()); err != nil {
				slog.Warn("interrupting prompt", "prompt_id", item.PromptID, "error", err)
			}
			return nil, ctx.Err()
		case msg := <-item.Messages:
			switch msg.Type {
			case "executing":
				m := msg.ToPromptMessageExecuting()
				if r.OnNodeStart != nil {
					r.OnNodeStart(m.NodeID, m.Title)
				}
			case "progress":
				m := msg.ToPromptMessageProgress()
				if r.OnProgress != nil {
					r.OnProgress(m.Value, m.Max)
				}
			case "data":
				m := msg.ToPromptMessageData()
				saved, err := r.download(ctx, m)
				if err != nil {
					return nil, err
				}
				result.Outputs = append(result.Outputs, saved...)
			case "stopped":
				m := msg.ToPromptMessageStopped()
				if m.Exception != nil {
					return nil, errors.Errorf("node %s (%s) failed: %s: %s",
						m.Exception.NodeName, m.Exception.NodeType,
						m.Exception.ExceptionType, m.Exception.ExceptionMessage)
				}
				return result, nil
			}
		}
	}
}

func (r *Runner) download(ctx context.Context, data *client.PromptMessageData) ([]SavedOutput, error) {
	outDir := r.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	var saved []SavedOutput
	for _, outputs := range data.Data {
		for _, output := range outputs {
			if output.Filename == "" {
				continue
			}
			buf, err := r.Client.GetOutput(ctx, output)
			if err != nil {
				return nil, errors.Wrapf(err, "downloading %s", output.Filename)
			}
			path := filepath.Join(outDir, output.Filename)
			if err := os.WriteFile(path, buf, 0o644); err != nil {
				return nil, err
			}
			slog.Info("saved output", "path", path, "bytes", len(buf))
			saved = append(saved, SavedOutput{
				NodeID:   data.NodeID,
				Filename: output.Filename,
				Path:     path,
			})
		}
	}
	return saved, nil
}

// RunBatch executes jobs with bounded concurrency. The first failure
// cancels the remaining jobs; results keep the input order, with nil
// entries for jobs that did not finish.
func (r *Runner) RunBatch(ctx context.Context, jobs []*Job, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*Result, len(jobs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			result, err := r.Run(ctx, job)
			if err != nil {
				return errors.Wrapf(err, "job %d", i)
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
