package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heibaibufen/winwin-search/internal/output"
)

func newKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage registered knowledge bases",
		Long: `Register, list, and remove knowledge bases.

A knowledge base is a directory of documents indexed and searched as a
unit. Disabled knowledge bases keep their index but are skipped when
searching across all of them.`,
	}

	cmd.AddCommand(newKBAddCmd())
	cmd.AddCommand(newKBRemoveCmd())
	cmd.AddCommand(newKBListCmd())
	cmd.AddCommand(newKBEnableCmd())
	cmd.AddCommand(newKBDisableCmd())
	return cmd
}

func newKBAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <path>",
		Short: "Register a directory as a knowledge base",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			kb, err := a.registry.Add(args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.registry.Save(); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Registered %s -> %s", kb.ID, kb.RootPath)
			out.Dim(fmt.Sprintf("Run 'winwin-search index %s' to build its index.", kb.ID))
			return nil
		},
	}
}

func newKBRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a knowledge base from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.Remove(args[0]); err != nil {
				return err
			}
			if err := a.registry.Save(); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Removed %s", args[0])
			return nil
		},
	}
}

func newKBListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered knowledge bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			kbs := a.registry.List()
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(kbs)
			}

			out := output.New(cmd.OutOrStdout())
			if len(kbs) == 0 {
				out.Dim("No knowledge bases registered. Use 'winwin-search kb add <id> <path>'.")
				return nil
			}
			out.Header("Knowledge bases")
			for _, kb := range kbs {
				state := "enabled"
				if !kb.Enabled {
					state = "disabled"
				}
				indexed := "never indexed"
				if !kb.LastIndexedAt.IsZero() {
					indexed = "indexed " + kb.LastIndexedAt.Local().Format("2006-01-02 15:04")
				}
				out.Printf("  %-16s %s (%s, %s)\n", kb.ID, kb.RootPath, state, indexed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newKBEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Include a knowledge base in cross-base searches",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(cmd, args[0], true) },
	}
}

func newKBDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Exclude a knowledge base from cross-base searches",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return setEnabled(cmd, args[0], false) },
	}
}

func setEnabled(cmd *cobra.Command, id string, enabled bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.registry.SetEnabled(id, enabled); err != nil {
		return err
	}
	if err := a.registry.Save(); err != nil {
		return err
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	output.New(cmd.OutOrStdout()).Successf("%s %s", id, state)
	return nil
}
