package main

import (
	"context"
	"fmt"

	"github.com/crewplanhq/crewplan/internal/config"
	"github.com/crewplanhq/crewplan/internal/digest"
	"github.com/spf13/cobra"
)

func newDigestCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build and send the pending-review digest now",
		Long:  "Builds the digest of change requests awaiting review and sends it through the configured notification adapters. Without adapters the digest is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "crewplan.yaml", "path to crewplan config file")
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}

	report, err := digest.Build(gormDB, digest.StaleAge(cfg.Digest.StaleDays))
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Fprintln(out, "Nothing awaiting review.")
		return nil
	}

	evt := digest.Event(report)
	fmt.Fprintln(out, evt.Title)
	fmt.Fprintln(out, evt.Body)

	dispatcher := buildDispatcher(cfg)
	if dispatcher != nil {
		defer dispatcher.Close()
		dispatcher.Announce(context.Background(), evt)
		fmt.Fprintln(out, "\nDigest sent.")
	}
	return nil
}
