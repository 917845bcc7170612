package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/manifest"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Print or verify the node pack's Python requirements",
	Long: `Print the node pack's requirements manifest, or verify an installed
package list against it.

Examples:
  lightx2vctl requirements
  lightx2vctl requirements --optional
  lightx2vctl requirements --check easydict,scipy`,
	RunE: runRequirements,
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
	requirementsCmd.Flags().Bool("optional", false, "list the optional (commented) requirements")
	requirementsCmd.Flags().String("check", "", "comma separated installed package names to verify")
}

func runRequirements(cmd *cobra.Command, args []string) error {
	m := manifest.Default()

	if installed, _ := cmd.Flags().GetString("check"); installed != "" {
		names := strings.Split(installed, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		missing := m.Verify(names)
		if len(missing) > 0 {
			return fmt.Errorf("missing mandatory requirements: %s", strings.Join(missing, ", "))
		}
		cmd.Println("all mandatory requirements present")
		return nil
	}

	if optional, _ := cmd.Flags().GetBool("optional"); optional {
		for _, req := range m.Optional() {
			line := req.Name
			if req.Annotation != "" {
				line += "  (" + req.Annotation + ")"
			}
			cmd.Println(line)
		}
		return nil
	}

	cmd.Print(m.String())
	return nil
}
