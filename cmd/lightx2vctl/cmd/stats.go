package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/client"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server system stats",
	Long:  `Query the configured ComfyUI server for its system and GPU statistics.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	comfy := client.NewClient(cfg.Server.Host, cfg.Server.Port, nil)
	stats, err := comfy.GetSystemStats(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("os: %s\n", stats.System.OS)
	cmd.Printf("python: %s\n", stats.System.PythonVersion)

	queue, err := comfy.GetQueueExecutionInfo(ctx)
	if err == nil {
		cmd.Printf("queue remaining: %d\n", queue.ExecInfo.QueueRemaining)
	}

	if len(stats.Devices) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tTYPE\tVRAM FREE\tVRAM TOTAL")
	for _, gpu := range stats.Devices {
		fmt.Fprintf(w, "%s\t%s\t%.1f GiB\t%.1f GiB\n",
			gpu.Name, gpu.Type,
			float64(gpu.VRAM_Free)/(1<<30),
			float64(gpu.VRAM_Total)/(1<<30))
	}
	return w.Flush()
}
