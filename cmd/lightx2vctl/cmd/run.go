package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/client"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/internal/config"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/preset"
	"github.com/GACLove/ComfyUI-Lightx2vWrapper/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a generation job",
	Long: `Run a generation job against the configured ComfyUI server.

A preset (built-in or a YAML file) seeds the generation parameters;
individual flags override it.

Examples:
  lightx2vctl run --prompt "a red fox on a frozen lake"
  lightx2vctl run --preset i2v-720p --image cond.png --prompt "..."
  lightx2vctl run --preset my-preset.yaml --seed 42`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("prompt", "", "positive prompt")
	flags.String("negative-prompt", "", "negative prompt")
	flags.String("task", "t2v", "task: t2v or i2v")
	flags.String("preset", "", "preset name or YAML file")
	flags.String("image", "", "conditioning image for i2v")
	flags.String("model-dir", "", "Wan model directory on the server")
	flags.String("model-name", "", "model name passed to the loader")
	flags.Int("width", 0, "output width")
	flags.Int("height", 0, "output height")
	flags.Int("frames", 0, "frame count (4n+1)")
	flags.Int("steps", 0, "sampling steps")
	flags.Float64("cfg", 0, "classifier free guidance scale")
	flags.Float64("shift", 0, "sigma shift")
	flags.Int64("seed", 0, "sampling seed")
	flags.String("lora", "", "LoRA checkpoint path on the server")
	flags.Float64("lora-strength", 1.0, "LoRA strength")
	flags.Bool("teacache", false, "enable TeaCache with default settings")
	flags.String("output-dir", "", "local directory for downloaded outputs")
}

func buildJob(cmd *cobra.Command, cfg *config.Config) (*runner.Job, string, error) {
	flags := cmd.Flags()
	job := &runner.Job{
		Task:      lightx2v.TaskTextToVideo,
		ModelDir:  cfg.Paths.ModelDir,
		Steps:     cfg.Defaults.Steps,
		Precision: cfg.Defaults.Precision,
		Attention: cfg.Defaults.Attention,
	}

	if name, _ := flags.GetString("preset"); name != "" {
		p, err := preset.Get(name)
		if err != nil {
			return nil, "", err
		}
		job.Task = p.Task
		job.Width = p.Width
		job.Height = p.Height
		job.NumFrames = p.NumFrames
		if p.Steps > 0 {
			job.Steps = p.Steps
		}
		job.Shift = p.Shift
		job.CFGScale = p.CFGScale
		if p.Precision != "" {
			job.Precision = p.Precision
		}
		if p.Attention != "" {
			job.Attention = p.Attention
		}
		if p.TeaCache != nil {
			tc := *p.TeaCache
			job.TeaCache = &tc
		}
	}

	if flags.Changed("task") {
		task, _ := flags.GetString("task")
		job.Task = lightx2v.Task(task)
	}
	job.Prompt, _ = flags.GetString("prompt")
	job.NegativePrompt, _ = flags.GetString("negative-prompt")
	job.ImagePath, _ = flags.GetString("image")
	if flags.Changed("model-dir") {
		job.ModelDir, _ = flags.GetString("model-dir")
	}
	job.ModelName, _ = flags.GetString("model-name")
	if flags.Changed("width") {
		job.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		job.Height, _ = flags.GetInt("height")
	}
	if flags.Changed("frames") {
		job.NumFrames, _ = flags.GetInt("frames")
	}
	if flags.Changed("steps") {
		job.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("cfg") {
		job.CFGScale, _ = flags.GetFloat64("cfg")
	}
	if flags.Changed("shift") {
		job.Shift, _ = flags.GetFloat64("shift")
	}
	job.Seed, _ = flags.GetInt64("seed")
	job.LoraPath, _ = flags.GetString("lora")
	job.LoraStrength, _ = flags.GetFloat64("lora-strength")
	if enabled, _ := flags.GetBool("teacache"); enabled && job.TeaCache == nil {
		tc := lightx2v.DefaultTeaCache()
		job.TeaCache = &tc
	}

	outputDir := cfg.Paths.OutputDir
	if flags.Changed("output-dir") {
		outputDir, _ = flags.GetString("output-dir")
	}
	return job, outputDir, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	job, outputDir, err := buildJob(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comfy := client.NewClientWithTimeout(cfg.Server.Host, cfg.Server.Port, nil, cfg.Server.ConnectTimeout)
	defer comfy.Close()

	var bar *progressbar.ProgressBar
	var currentNode string
	r := &runner.Runner{
		Client:    comfy,
		OutputDir: outputDir,
		OnNodeStart: func(nodeID int, title string) {
			currentNode = title
		},
		OnProgress: func(value, max int) {
			if bar == nil || bar.GetMax() != max {
				bar = progressbar.Default(int64(max), currentNode)
			}
			bar.Set(value)
		},
	}

	result, err := r.Run(ctx, job)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	cmd.Printf("prompt %s finished\n", result.PromptID)
	for _, output := range result.Outputs {
		cmd.Printf("  %s\n", output.Path)
	}
	return nil
}
