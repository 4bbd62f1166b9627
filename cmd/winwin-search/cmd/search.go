package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/kb"
	"github.com/heibaibufen/winwin-search/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	kbID   string
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed knowledge bases",
		Long: `Run a full-text query and print ranked results.

Without --kb, every enabled knowledge base is searched and results
are merged by relevance. English and Chinese queries both work.

Examples:
  winwin-search search "raft leader election"
  winwin-search search 人工智能 --kb docs
  winwin-search search "error handling" --limit 5 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			target := opts.kbID
			if target == "" {
				target = kb.TargetAll
			}

			results, err := a.manager.Search(cmd.Context(), target, query, opts.limit)
			if err != nil {
				return err
			}

			if opts.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			out := output.New(cmd.OutOrStdout())
			if len(results) == 0 {
				out.Dim("No results.")
				return nil
			}
			for i, r := range results {
				out.Hit(i+1, r.KnowledgeBase, r.Path, r.Score, r.Snippet)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.kbID, "kb", "k", "", "Search a single knowledge base")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}
