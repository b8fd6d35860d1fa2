package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certdesk/internal/bootstrap"
	"certdesk/internal/platform/config"
	"certdesk/internal/platform/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	opts    []bootstrap.Option
}

func newRootCmd(out io.Writer, opts ...bootstrap.Option) *cobra.Command {
	c := &cli{v: config.NewViper(), opts: opts}

	root := &cobra.Command{
		Use:          "certgen",
		Short:        "Register participants and generate certificate archives",
		SilenceUsage: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.cfgFile, "config", "c", "", "config file (YAML)")
	flags.String("data-dir", "", "directory holding the record stores")
	flags.String("output-dir", "", "directory receiving generated PDFs")
	flags.String("archive-dir", "", "directory receiving generated archives")
	flags.String("resources-dir", "", "directory holding background images and fonts")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = c.v.BindPFlag("storage.data_dir", flags.Lookup("data-dir"))
	_ = c.v.BindPFlag("storage.output_dir", flags.Lookup("output-dir"))
	_ = c.v.BindPFlag("storage.archive_dir", flags.Lookup("archive-dir"))
	_ = c.v.BindPFlag("resources.dir", flags.Lookup("resources-dir"))
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	root.AddCommand(
		c.submitCmd(),
		c.listCmd(),
		c.generateCmd(),
		c.profilesCmd(),
	)
	return root
}

// withApp loads configuration, builds the application for the duration of
// fn and releases it afterwards. Logs and spans go to stderr so stdout stays
// machine readable.
func (c *cli) withApp(fn func(cmd *cobra.Command, app *bootstrap.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		cfg, err := config.Load(c.v, c.cfgFile)
		if err != nil {
			return err
		}
		log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level)

		opts := append([]bootstrap.Option{bootstrap.WithTraceWriter(os.Stderr)}, c.opts...)
		app, err := bootstrap.New(cfg, log, opts...)
		if err != nil {
			return fmt.Errorf("building application: %w", err)
		}
		defer func() {
			err = errors.Join(err, app.Close(context.WithoutCancel(cmd.Context())))
		}()
		return fn(cmd, app)
	}
}
