// Package cmd provides the CLI commands for lightx2vctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/internal/config"
)

// Version information - set via ldflags in main before Execute.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configPath string
	serverHost string
	serverPort int
)

var rootCmd = &cobra.Command{
	Use:   "lightx2vctl",
	Short: "Drive LightX2V video generation on a ComfyUI server",
	Long: `lightx2vctl talks to a ComfyUI server that has the LightX2V node pack
installed. It builds the node pack's text-to-video and image-to-video
workflows, queues them, follows execution progress, and downloads the
generated videos.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default lightx2v.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "ComfyUI server host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&serverPort, "port", 0, "ComfyUI server port (overrides config)")
}

// loadConfig resolves the effective configuration from file, environment
// and the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return nil, err
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate("lightx2vctl {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}
