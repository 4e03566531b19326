// Command leadflow serves the campaign engine and drives it from the shell:
//
//	leadflow serve               HTTP ops surface, task worker and outbox relay
//	leadflow run <campaign>      run a campaign synchronously and print the report
//	leadflow enqueue <campaign>  queue a run for the worker
//	leadflow migrate             apply embedded SQL migrations
//	leadflow campaign ...        create and manage campaigns
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"leadflow/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "leadflow",
		Short:         "Outbound campaign orchestration engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("database-url", "", "Postgres connection URL")
	root.PersistentFlags().String("redis-url", "", "Redis connection URL")
	root.PersistentFlags().StringSlice("kafka-brokers", nil, "Kafka seed brokers")
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("database.url", root.PersistentFlags().Lookup("database-url"))
	_ = v.BindPFlag("redis.url", root.PersistentFlags().Lookup("redis-url"))
	_ = v.BindPFlag("kafka.brokers", root.PersistentFlags().Lookup("kafka-brokers"))

	load := func(cmd *cobra.Command) (config.Config, error) {
		path, _ := cmd.Flags().GetString("config")
		return config.LoadWith(v, path)
	}

	root.AddCommand(
		serveCmd(load, v),
		runCmd(load),
		enqueueCmd(load),
		migrateCmd(load),
		campaignCmd(load),
	)
	return root
}

type loadFunc func(cmd *cobra.Command) (config.Config, error)
