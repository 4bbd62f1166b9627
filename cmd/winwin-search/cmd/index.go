package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/index"
	"github.com/heibaibufen/winwin-search/internal/output"
)

func newIndexCmd() *cobra.Command {
	var full bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "index [id]",
		Short: "Build or refresh a knowledge base index",
		Long: `Scan a knowledge base and bring its index up to date.

By default only added, changed, and removed files are processed.
With --full the index is rebuilt from scratch, which also repairs
a corrupt index. Without an id, every enabled knowledge base is
indexed in turn.

Examples:
  winwin-search index docs
  winwin-search index docs --full
  winwin-search index`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var ids []string
			if len(args) == 1 {
				ids = []string{args[0]}
			} else {
				for _, entry := range a.registry.Enabled() {
					ids = append(ids, entry.ID)
				}
			}

			out := output.New(cmd.OutOrStdout())
			if len(ids) == 0 {
				out.Dim("Nothing to index. Register a knowledge base first.")
				return nil
			}

			var summaries []*index.Summary
			for _, id := range ids {
				summary, err := a.manager.Index(cmd.Context(), id, full)
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
				if !jsonOutput {
					printSummary(out, summary)
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Rebuild the index from scratch")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printSummary(out *output.Writer, s *index.Summary) {
	out.Successf("%s: %d added, %d updated, %d removed, %d unchanged (%.2fs)",
		s.KnowledgeBase, s.Added, s.Updated, s.Removed, s.Skipped, s.Duration.Seconds())
	if len(s.Failed) > 0 {
		out.Warningf("%d files could not be indexed:", len(s.Failed))
		for _, f := range s.Failed {
			out.Dim("  " + f.Path + ": " + f.Reason)
		}
	}
}
