package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/parley/internal/conversation"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print conversation statistics",
		Long:  "Prints conversation statistics for one user, or for the whole platform when --user is omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, configPath, userID)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&userID, "user", "u", "", "restrict statistics to this user")
	return cmd
}

func runStats(cmd *cobra.Command, configPath, userID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.manager.Statistics(cmd.Context(), userID)
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), userID, stats)
	return nil
}

func printStats(out io.Writer, userID string, s *conversation.Statistics) {
	scope := "all users"
	if userID != "" {
		scope = "user " + userID
	}
	fmt.Fprintf(out, "Conversation statistics (%s)\n\n", scope)
	fmt.Fprintf(out, "  Conversations:   %s (%s active, %s archived)\n",
		formatCount(s.TotalConversations), formatCount(s.ActiveConversations), formatCount(s.ArchivedConversations))
	fmt.Fprintf(out, "  Messages:        %s (%.2f per conversation)\n", formatCount(s.TotalMessages), s.AverageMessagesPerConv)
	fmt.Fprintf(out, "  Tokens:          %s (%.2f per conversation)\n", formatCount(s.TotalTokensUsed), s.AverageTokensPerConv)

	role := s.MostCommonRole
	if role == "" {
		role = "-"
	}
	fmt.Fprintf(out, "  Most common role: %s\n", role)
	if len(s.RoleDistribution) == 0 {
		return
	}
	fmt.Fprintln(out, "\n  Role distribution:")
	for _, r := range sortedRoles(s.RoleDistribution) {
		fmt.Fprintf(out, "    %-10s %s\n", r, formatCount(s.RoleDistribution[r]))
	}
}

// sortedRoles orders roles by count, then name.
func sortedRoles(dist map[string]int64) []string {
	names := make([]string, 0, len(dist))
	for r := range dist {
		names = append(names, r)
	}
	slices.SortFunc(names, func(a, b string) int {
		if dist[a] != dist[b] {
			return cmp.Compare(dist[b], dist[a])
		}
		return strings.Compare(a, b)
	})
	return names
}

// formatCount formats an integer with comma separators (e.g. 45230 -> "45,230").
func formatCount(n int64) string {
	if n < 0 {
		return "-" + formatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
