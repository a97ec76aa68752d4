package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/parley/internal/roles"
)

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles [role]",
		Short: "List roles or show one role's capabilities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := roles.Default()
			if len(args) == 0 {
				return printRoles(cmd.OutOrStdout(), reg)
			}
			caps, err := reg.CapabilitiesFor(roles.Role(args[0]))
			if err != nil {
				return err
			}
			printCapabilities(cmd.OutOrStdout(), caps)
			return nil
		},
	}
}

func printRoles(out io.Writer, reg *roles.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tTOOLS\tFEATURES")
	for _, r := range reg.Roles() {
		caps, err := reg.CapabilitiesFor(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\n", r, len(caps.Tools), len(enabledFeatures(caps.Features)))
	}
	return w.Flush()
}

func printCapabilities(out io.Writer, caps roles.Capabilities) {
	fmt.Fprintf(out, "Role: %s\n\n", caps.Role)
	fmt.Fprintf(out, "System prompt:\n  %s\n\n", caps.SystemPrompt)
	fmt.Fprintf(out, "Tools:\n")
	for _, t := range caps.Tools {
		fmt.Fprintf(out, "  - %s\n", t)
	}
	fmt.Fprintf(out, "\nFeatures: %s\n", strings.Join(enabledFeatures(caps.Features), ", "))
	fmt.Fprintf(out, "\nSuggested prompts:\n")
	for _, p := range caps.SuggestedPrompts {
		fmt.Fprintf(out, "  [%s] %s: %s\n", p.Icon, p.Title, p.PromptText)
	}
}

// enabledFeatures returns the names of the enabled flags, sorted.
func enabledFeatures(features map[string]bool) []string {
	var names []string
	for name, on := range features {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
