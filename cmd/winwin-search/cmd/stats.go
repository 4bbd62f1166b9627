package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/kb"
	"github.com/heibaibufen/winwin-search/internal/output"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats [id]",
		Short: "Show index statistics",
		Long: `Display document and term counts per knowledge base.

Without an id, statistics for every registered knowledge base are
shown, including disabled ones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			target := kb.TargetAll
			if len(args) == 1 {
				target = args[0]
			}

			stats, err := a.manager.Stats(cmd.Context(), target)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			out := output.New(cmd.OutOrStdout())
			if len(stats) == 0 {
				out.Dim("No knowledge bases registered.")
				return nil
			}
			out.Header("Index statistics")
			for _, s := range stats {
				state := ""
				if !s.Enabled {
					state = " (disabled)"
				}
				out.Printf("  %s%s\n", s.ID, state)
				out.Printf("    root:       %s\n", s.RootPath)
				out.Printf("    documents:  %d\n", s.Documents)
				out.Printf("    terms:      %d\n", s.Terms)
				out.Printf("    avg length: %.1f tokens\n", s.AvgDocLength)
				out.Printf("    index size: %d bytes\n", s.IndexSize)
				if !s.LastIndexedAt.IsZero() {
					out.Printf("    indexed:    %s\n", s.LastIndexedAt.Local().Format("2006-01-02 15:04:05"))
				} else {
					out.Printf("    indexed:    never\n")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
