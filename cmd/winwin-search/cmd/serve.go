package cmd

import (
	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve knowledge bases over MCP (stdio)",
		Long: `Run an MCP server on stdin/stdout so AI clients can search the
registered knowledge bases as a tool.

Add to an MCP client configuration as:
  winwin-search serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(a.manager, a.logger)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}
