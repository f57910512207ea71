package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/registry"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <agent-id|client-name>",
	Short: "Resolve an agent id or client alias to its endpoints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := newClient().Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

var (
	searchCapabilities string
	searchTags         string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search agents by id substring, capabilities and tags",
	Long: `Search agents by id substring, capabilities and tags.

Capabilities and tags are comma-separated; an agent matches a list when it
has any of the listed values. All given filters must match.

Examples:
  registry search mbta
  registry search --tags transit,ferry
  registry search alerts --capabilities alerts`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := registry.SearchQuery{Capabilities: searchCapabilities, Tags: searchTags}
		if len(args) == 1 {
			q.Query = args[0]
		}
		views, err := newClient().Search(cmd.Context(), q)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), views)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents and their URLs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agents, err := newClient().List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), agents)
	},
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List registered client aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		clients, err := newClient().Clients(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), clients)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCapabilities, "capabilities", "", "comma-separated capabilities (any match)")
	searchCmd.Flags().StringVar(&searchTags, "tags", "", "comma-separated tags (any match)")
	rootCmd.AddCommand(lookupCmd, searchCmd, listCmd, clientsCmd, statsCmd)
}
