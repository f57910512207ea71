package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/adapter/registryclient"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/domain"
)

var (
	announceAgentURL     string
	announceAPIURL       string
	announceDescription  string
	announceCapabilities []string
	announceTags         []string
	announceClient       string
)

var announceCmd = &cobra.Command{
	Use:   "announce <agent-id>",
	Short: "Register an agent and mark it alive",
	Long: `Register an agent, then announce it alive with its capabilities and tags.

Re-registering resets liveness, so announce always sends both calls.

Examples:
  registry announce mbta-alerts --agent-url http://alerts:8001 \
    --capability alerts --tag transit --tag mbta
  registry announce mbta-planner --agent-url http://planner:8002 --client rider-app`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient()
		agentID := args[0]

		if _, err := client.Register(ctx, domain.RegisterRequest{
			AgentID:     agentID,
			AgentURL:    announceAgentURL,
			APIURL:      announceAPIURL,
			Description: announceDescription,
		}); err != nil {
			return fmt.Errorf("register %s: %w", agentID, err)
		}

		alive := true
		view, err := client.UpdateStatus(ctx, agentID, registryclient.StatusPatch{
			Alive:        &alive,
			Capabilities: announceCapabilities,
			Tags:         announceTags,
		})
		if err != nil {
			return fmt.Errorf("announce %s: %w", agentID, err)
		}

		if announceClient != "" {
			if _, err := client.RegisterClient(ctx, domain.ClientRegisterRequest{
				ClientName: announceClient,
				APIURL:     announceAPIURL,
				AgentID:    agentID,
			}); err != nil {
				return fmt.Errorf("register client %s: %w", announceClient, err)
			}
		}
		return printJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	announceCmd.Flags().StringVar(&announceAgentURL, "agent-url", "", "agent endpoint URL (required)")
	announceCmd.Flags().StringVar(&announceAPIURL, "api-url", "", "agent API URL")
	announceCmd.Flags().StringVar(&announceDescription, "description", "", "agent description")
	announceCmd.Flags().StringArrayVar(&announceCapabilities, "capability", nil, "capability (repeatable)")
	announceCmd.Flags().StringArrayVar(&announceTags, "tag", nil, "tag (repeatable)")
	announceCmd.Flags().StringVar(&announceClient, "client", "", "also register a client alias for the agent")
	_ = announceCmd.MarkFlagRequired("agent-url")
	rootCmd.AddCommand(announceCmd)
}
