package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	campaignmodels "leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
)

func runCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run <campaign-id>",
		Short: "Run a campaign synchronously and print its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := id.ParseCampaignID(args[0])
			if err != nil {
				return err
			}
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.orchestrator.Run(cmd.Context(), campaignID)
			printReport(report)
			if !report.Success {
				return fmt.Errorf("campaign run failed: %s", report.Error)
			}
			return nil
		},
	}
}

func enqueueCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <campaign-id>",
		Short: "Queue a campaign run for the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := id.ParseCampaignID(args[0])
			if err != nil {
				return err
			}
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireProducer(); err != nil {
				return err
			}
			if err := a.producer.Enqueue(cmd.Context(), campaignID); err != nil {
				return err
			}
			fmt.Printf("queued run for campaign %s\n", campaignID)
			return nil
		},
	}
}

func printReport(r campaignmodels.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("campaign " + r.CampaignID.String())
	tw.AppendHeader(table.Row{"Phase", "Metric", "Count"})
	tw.AppendRow(table.Row{campaignmodels.PhaseProspecting, "found", r.Prospecting.Found})
	tw.AppendRow(table.Row{campaignmodels.PhaseProspecting, "created", r.Prospecting.Created})
	tw.AppendRow(table.Row{campaignmodels.PhaseQualification, "qualified", r.Qualification.Qualified})
	tw.AppendRow(table.Row{campaignmodels.PhaseQualification, "rejected", r.Qualification.Rejected})
	tw.AppendRow(table.Row{campaignmodels.PhaseScheduling, "sent", r.Scheduling.Sent})
	tw.AppendRow(table.Row{campaignmodels.PhaseScheduling, "failed", r.Scheduling.Failed})
	footer := table.Row{"success", strconv.FormatBool(r.Success), ""}
	if r.Error != "" {
		footer = table.Row{"error", r.Code, r.Error}
	}
	tw.AppendFooter(footer)
	tw.Render()
}
