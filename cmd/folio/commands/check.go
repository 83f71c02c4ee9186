package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dnnweb/folio/contentapi"
	"github.com/dnnweb/folio/status"
)

func checkCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the content API and report what the site would show",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api := contentapi.New(cfg.APIServerURL)
			if cfg.APIServerURL == "" {
				api = contentapi.New("http://localhost:3000")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			code, text, err := api.CheckStatus(ctx)
			snap := status.Classify(code, text, err, time.Now())
			fmt.Fprintf(out, "API %s: %s\n", api.BaseURL(), snap.Text())
			if snap.Detail != "" {
				fmt.Fprintf(out, "  %s\n", snap.Detail)
			}
			if snap.State == status.Disconnected {
				return fmt.Errorf("content API unreachable")
			}

			if projects, err := api.FetchProjects(ctx); err != nil {
				fmt.Fprintf(out, "projects:      %v\n", err)
			} else {
				fmt.Fprintf(out, "projects:      %d\n", len(projects))
			}
			if stacks, err := api.FetchTechStacks(ctx); err != nil {
				fmt.Fprintf(out, "tech stacks:   %v\n", err)
			} else {
				fmt.Fprintf(out, "tech stacks:   %d\n", len(stacks))
			}
			if info, err := api.FetchPersonalInfo(ctx); err != nil {
				fmt.Fprintf(out, "personal info: %v\n", err)
			} else {
				fmt.Fprintf(out, "personal info: %s\n", info.Name)
			}
			if seo, err := api.FetchSEOSettings(ctx); err != nil {
				fmt.Fprintf(out, "seo settings:  %v\n", err)
			} else {
				fmt.Fprintf(out, "seo settings:  %s\n", seo.SiteTitle)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")
	return cmd
}
