package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	accountmodels "leadflow/internal/account/models"
	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/campaign/service"
	id "leadflow/pkg/domain"
	"leadflow/pkg/requestcontext"
)

func campaignCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Create and manage campaigns",
	}
	cmd.AddCommand(
		campaignCreateCmd(load),
		campaignUpdateCmd(load),
		campaignTransitionCmd(load, "launch", "Activate a draft or paused campaign", (*service.Service).Launch),
		campaignTransitionCmd(load, "pause", "Pause an active campaign", (*service.Service).Pause),
		campaignTransitionCmd(load, "archive", "Archive a campaign for good", (*service.Service).Archive),
		campaignShowCmd(load),
		campaignListCmd(load),
		creatorCmd(load),
	)
	return cmd
}

// withApp builds the app, runs fn and closes it.
func withApp(cmd *cobra.Command, load loadFunc, fn func(ctx context.Context, a *app) error) error {
	cfg, err := load(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func addSettingsFlags(fs *pflag.FlagSet) {
	fs.StringSlice("job-title", nil, "target job titles")
	fs.StringSlice("industry", nil, "target industries")
	fs.StringSlice("company-size", nil, "target company size bands")
	fs.StringSlice("location", nil, "target locations")
	fs.Int("threshold", 0, "qualification threshold (0..100)")
	fs.Int("daily-limit", 0, "maximum prospects created per run")
	fs.String("value-prop", "", "outreach value proposition")
	fs.String("product", "", "outreach product description")
	fs.String("scheduling-url", "", "meeting link included in outreach")
}

// settingsFromFlags sets only what the user passed so updates leave the
// rest untouched.
func settingsFromFlags(fs *pflag.FlagSet) campaignmodels.Settings {
	var s campaignmodels.Settings
	if fs.Changed("job-title") || fs.Changed("industry") || fs.Changed("company-size") || fs.Changed("location") {
		c := campaignmodels.Criteria{}
		c.JobTitles, _ = fs.GetStringSlice("job-title")
		c.Industries, _ = fs.GetStringSlice("industry")
		c.CompanySizes, _ = fs.GetStringSlice("company-size")
		c.Locations, _ = fs.GetStringSlice("location")
		s.Criteria = &c
	}
	if fs.Changed("threshold") {
		v, _ := fs.GetInt("threshold")
		s.Threshold = &v
	}
	if fs.Changed("daily-limit") {
		v, _ := fs.GetInt("daily-limit")
		s.DailyLimit = &v
	}
	if fs.Changed("value-prop") || fs.Changed("product") || fs.Changed("scheduling-url") {
		t := campaignmodels.EmailTemplate{}
		t.ValueProp, _ = fs.GetString("value-prop")
		t.ProductDescription, _ = fs.GetString("product")
		t.SchedulingURL, _ = fs.GetString("scheduling-url")
		s.EmailTemplate = &t
	}
	return s
}

func campaignCreateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft campaign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			tenant, _ := fs.GetString("tenant")
			tenantID, err := id.ParseTenantID(tenant)
			if err != nil {
				return err
			}
			name, _ := fs.GetString("name")
			desc, _ := fs.GetString("description")
			createCmd := service.CreateCommand{
				TenantID:    tenantID,
				Name:        name,
				Description: desc,
				Settings:    settingsFromFlags(fs),
			}
			if owner, _ := fs.GetString("created-by"); owner != "" {
				userID, err := id.ParseUserID(owner)
				if err != nil {
					return err
				}
				createCmd.CreatedBy = &userID
			}
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				c, err := a.campaigns.Create(ctx, createCmd)
				if err != nil {
					return err
				}
				printCampaign(c, nil, nil)
				return nil
			})
		},
	}
	cmd.Flags().String("tenant", "", "tenant ID")
	cmd.Flags().String("name", "", "campaign name")
	cmd.Flags().String("description", "", "campaign description")
	cmd.Flags().String("created-by", "", "creator user ID")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("name")
	addSettingsFlags(cmd.Flags())
	return cmd
}

func campaignUpdateCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <campaign-id>",
		Short: "Change the settings of a draft campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := id.ParseCampaignID(args[0])
			if err != nil {
				return err
			}
			settings := settingsFromFlags(cmd.Flags())
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				c, err := a.campaigns.UpdateSettings(ctx, campaignID, settings)
				if err != nil {
					return err
				}
				printCampaign(c, nil, nil)
				return nil
			})
		},
	}
	addSettingsFlags(cmd.Flags())
	return cmd
}

type transitionFunc func(*service.Service, context.Context, id.CampaignID) (*campaignmodels.Campaign, error)

func campaignTransitionCmd(load loadFunc, use, short string, apply transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <campaign-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := id.ParseCampaignID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				c, err := apply(a.campaigns, ctx, campaignID)
				if err != nil {
					return err
				}
				fmt.Printf("campaign %s is %s\n", c.ID, c.Status)
				return nil
			})
		},
	}
}

func campaignShowCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <campaign-id>",
		Short: "Show a campaign, its prospect stats and phase history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := id.ParseCampaignID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				c, err := a.campaigns.Get(ctx, campaignID)
				if err != nil {
					return err
				}
				phases, err := a.campaigns.Phases(ctx, campaignID)
				if err != nil {
					return err
				}
				stats, err := a.campaigns.Stats(ctx, campaignID)
				if err != nil {
					return err
				}
				printCampaign(c, stats, phases)
				return nil
			})
		},
	}
}

func campaignListCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			tenantID, err := id.ParseTenantID(tenant)
			if err != nil {
				return err
			}
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				campaigns, err := a.campaigns.ListByTenant(ctx, tenantID)
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Threshold", "Daily limit", "Updated"})
				for _, c := range campaigns {
					tw.AppendRow(table.Row{c.ID.String(), c.Name, c.Status, c.Threshold, c.DailyLimit, c.UpdatedAt.Format("2006-01-02 15:04")})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().String("tenant", "", "tenant ID")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func creatorCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creator <email>",
		Short: "Register a campaign creator (requires a database)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			tenant, _ := fs.GetString("tenant")
			tenantID, err := id.ParseTenantID(tenant)
			if err != nil {
				return err
			}
			name, _ := fs.GetString("name")
			verified, _ := fs.GetBool("verified")
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				if a.accounts == nil {
					return errors.New("database.url is required to register creators")
				}
				c := &accountmodels.Creator{
					ID:            id.NewUserID(),
					TenantID:      tenantID,
					Email:         args[0],
					Name:          name,
					EmailVerified: verified,
					CreatedAt:     requestcontext.Now(ctx),
				}
				if err := a.accounts.Save(ctx, c); err != nil {
					return err
				}
				fmt.Printf("creator %s registered as %s\n", c.Email, c.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("tenant", "", "tenant ID")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().Bool("verified", false, "mark the email as verified")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func printCampaign(c *campaignmodels.Campaign, stats *campaignmodels.Stats, phases []*campaignmodels.PhaseExecution) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRow(table.Row{"ID", c.ID.String()})
	tw.AppendRow(table.Row{"Name", c.Name})
	tw.AppendRow(table.Row{"Status", c.Status})
	tw.AppendRow(table.Row{"Threshold", c.Threshold})
	tw.AppendRow(table.Row{"Daily limit", c.DailyLimit})
	tw.AppendRow(table.Row{"Job titles", strings.Join(c.Criteria.JobTitles, ", ")})
	tw.AppendRow(table.Row{"Industries", strings.Join(c.Criteria.Industries, ", ")})
	tw.AppendRow(table.Row{"Company sizes", strings.Join(c.Criteria.CompanySizes, ", ")})
	tw.AppendRow(table.Row{"Locations", strings.Join(c.Criteria.Locations, ", ")})
	if stats != nil {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{"Leads", stats.Leads.Total})
		tw.AppendRow(table.Row{"Qualified", stats.Leads.Qualified})
		tw.AppendRow(table.Row{"Rejected", stats.Leads.Rejected})
		tw.AppendRow(table.Row{"Emails sent", stats.Emails.Sent})
		tw.AppendRow(table.Row{"Average score", fmt.Sprintf("%.1f", stats.Scoring.AverageScore)})
		tw.AppendRow(table.Row{"Started", formatTime(stats.StartedAt)})
		tw.AppendRow(table.Row{"Completed", formatTime(stats.CompletedAt)})
	}
	tw.Render()

	if len(phases) == 0 {
		return
	}
	pw := table.NewWriter()
	pw.SetOutputMirror(os.Stdout)
	pw.AppendHeader(table.Row{"Phase", "Status", "Retries", "Started", "Duration (ms)", "Error"})
	for _, p := range phases {
		pw.AppendRow(table.Row{p.Phase, p.Status, p.RetryCount, formatTime(p.StartedAt), p.DurationMS, p.ErrorMessage})
	}
	pw.Render()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
