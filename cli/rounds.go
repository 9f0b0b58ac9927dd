package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/spf13/cobra"
)

func newRoundsCmd() *cobra.Command {
	var candidates int

	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List the bracket sizes playable with a candidate count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if candidates < 0 {
				return fmt.Errorf("invalid candidate count: %d", candidates)
			}
			sizes := brackets.AllowedRoundSizes(candidates)
			if len(sizes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No playable bracket with %d candidates.\n", candidates)
				return nil
			}
			parts := make([]string, len(sizes))
			for i, s := range sizes {
				parts[i] = strconv.Itoa(s)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return nil
		},
	}

	cmd.Flags().IntVarP(&candidates, "candidates", "n", 0, "number of candidates (required)")
	cmd.MarkFlagRequired("candidates")
	return cmd
}
