package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes [class]",
	Short: "Print the node catalog",
	Long: `Print the LightX2V node catalog: class names, display names and input
schemas. With a class argument, only that node is printed, with full
input details.

Examples:
  lightx2vctl nodes
  lightx2vctl nodes Lightx2vWanVideoSampler`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodes,
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}

func describeInput(in lightx2v.InputSpec) string {
	var parts []string
	parts = append(parts, string(in.Kind))
	if in.Kind == lightx2v.KindLink {
		parts = append(parts, in.LinkType)
	}
	if len(in.Choices) > 0 {
		parts = append(parts, fmt.Sprintf("one of %s", strings.Join(in.Choices, "|")))
	}
	if in.Default != nil {
		parts = append(parts, fmt.Sprintf("default %v", in.Default))
	}
	if in.Optional {
		parts = append(parts, "optional")
	}
	return strings.Join(parts, ", ")
}

func runNodes(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		obj := lightx2v.Lookup(lightx2v.NodeClass(args[0]))
		if obj == nil {
			return fmt.Errorf("unknown node class %q", args[0])
		}
		cmd.Printf("%s (%s)\n", obj.Class, obj.DisplayName)
		cmd.Printf("category: %s\n", obj.Category)
		if len(obj.ReturnTypes) > 0 {
			cmd.Printf("returns: %s\n", strings.Join(obj.ReturnTypes, ", "))
		}
		cmd.Println("inputs:")
		for _, in := range obj.Inputs {
			cmd.Printf("  %-20s %s\n", in.Name, describeInput(in))
			if in.Tooltip != "" {
				cmd.Printf("  %-20s   %s\n", "", in.Tooltip)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tDISPLAY NAME\tINPUTS")
	for _, class := range lightx2v.Classes() {
		obj := lightx2v.Lookup(class)
		fmt.Fprintf(w, "%s\t%s\t%d\n", obj.Class, obj.DisplayName, len(obj.Inputs))
	}
	return w.Flush()
}
