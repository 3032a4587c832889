package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/basehelp/basehelp/internal/config"
	"github.com/basehelp/basehelp/internal/tenant"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantAddFlags struct {
	name        string
	slug        string
	slackTeamID string
	botToken    string
	ragieKey    string
}

var tenantAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a tenant workspace",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}
		store, err := tenant.NewStore(cfg.Tenants.DBPath)
		if err != nil {
			fmt.Printf("Tenant store error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		created, err := store.CreateTenant(context.Background(), tenant.Tenant{
			Name:          tenantAddFlags.name,
			Slug:          tenantAddFlags.slug,
			SlackTeamID:   tenantAddFlags.slackTeamID,
			SlackBotToken: tenantAddFlags.botToken,
			RagieAPIKey:   tenantAddFlags.ragieKey,
		})
		if err != nil {
			fmt.Printf("Create tenant error: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tNAME\tSLUG\tSLACK TEAM\n")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", created.ID, created.Name, created.Slug, created.SlackTeamID)
		w.Flush()
	},
}

func init() {
	tenantAddCmd.Flags().StringVar(&tenantAddFlags.name, "name", "", "tenant display name")
	tenantAddCmd.Flags().StringVar(&tenantAddFlags.slug, "slug", "", "tenant slug used in public URLs")
	tenantAddCmd.Flags().StringVar(&tenantAddFlags.slackTeamID, "slack-team-id", "", "Slack workspace team ID")
	tenantAddCmd.Flags().StringVar(&tenantAddFlags.botToken, "bot-token", "", "Slack bot token for this tenant")
	tenantAddCmd.Flags().StringVar(&tenantAddFlags.ragieKey, "ragie-api-key", "", "Ragie API key for this tenant")
	tenantAddCmd.MarkFlagRequired("name")
	tenantAddCmd.MarkFlagRequired("slug")
	tenantCmd.AddCommand(tenantAddCmd)
}
