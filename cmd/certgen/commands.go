package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"certdesk/internal/bootstrap"
	"certdesk/internal/certificate/profile"
	certservice "certdesk/internal/certificate/service"
	"certdesk/pkg/domain"
)

func (c *cli) submitCmd() *cobra.Command {
	var (
		rec         domain.Record
		profileName string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Append one registration to a profile's store",
		Long: `Append one registration to a profile's store.

Fields are stored as given; empty values are kept.

Examples:
  certgen submit --name "Asha Rao" --college MIT --paper-title Graphs
  certgen submit --profile workshop --name "Ben Okafor" --college IISc`,
		Args: cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
			p, err := domain.ParseProfileName(profileName)
			if err != nil {
				return err
			}
			stored, err := app.Registrations.Submit(cmd.Context(), p, rec)
			if err != nil {
				return err
			}
			return writeJSON(cmd, stored)
		}),
	}
	cmd.Flags().StringVar(&rec.Name, "name", "", "participant name")
	cmd.Flags().StringVar(&rec.College, "college", "", "college or institution")
	cmd.Flags().StringVar(&rec.PaperTitle, "paper-title", "", "paper title (conference only)")
	cmd.Flags().StringVar(&rec.Email, "email", "", "contact email")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile (conference, workshop)")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a profile's registrations as JSON",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
			p, err := domain.ParseProfileName(profileName)
			if err != nil {
				return err
			}
			records, err := app.Registrations.List(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeJSON(cmd, records)
		}),
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile (conference, workshop)")
	return cmd
}

func (c *cli) generateCmd() *cobra.Command {
	var (
		profileName string
		batch       int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render certificates and write the archive",
		Long: `Render certificates for every stored record, or for one batch of ten,
and write the archive. Prints the archive path, or the "no data" message
when nothing was selected.

Examples:
  certgen generate
  certgen generate --profile workshop
  certgen generate --profile workshop --batch 2`,
		Args: cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
			p, err := domain.ParseProfileName(profileName)
			if err != nil {
				return err
			}
			req := certservice.Request{Profile: p}
			if cmd.Flags().Changed("batch") {
				req.Batch = &batch
			}

			outcome, err := app.Certificates.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outcome.Empty() {
				_, err = fmt.Fprintln(out, outcome.Message)
				return err
			}
			_, err = fmt.Fprintf(out, "%s (%s)\n", outcome.Archive.Path, documentCount(len(outcome.Archive.Documents)))
			return err
		}),
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile (conference, workshop)")
	cmd.Flags().IntVarP(&batch, "batch", "b", 0, "zero-based batch index (workshop only)")
	return cmd
}

func (c *cli) profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "Print the built-in certificate profiles as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(profile.Default().All()); err != nil {
				return fmt.Errorf("encoding profiles: %w", err)
			}
			return enc.Close()
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

func documentCount(n int) string {
	if n == 1 {
		return "1 certificate"
	}
	return strconv.Itoa(n) + " certificates"
}
