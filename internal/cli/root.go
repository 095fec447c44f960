package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/bitrise-io/go-pdfcompress/config"
	"github.com/bitrise-io/go-pdfcompress/internal"
	"github.com/bitrise-io/go-pdfcompress/network"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL  string
	verbose bool

	envRepo env.Repository
	os      internal.OsProxy
	logger  log.Logger
}

// Execute runs the CLI with the process environment.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCmd(env.NewRepository(), log.NewLogger()).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd(envRepo env.Repository, logger log.Logger) *cobra.Command {
	opts := &rootOptions{
		envRepo: envRepo,
		os:      internal.RealOS{},
		logger:  logger,
	}

	rootCmd := &cobra.Command{
		Use:           "pdfcompress",
		Short:         "Compress PDF files with the PDF compression service",
		Long:          "Uploads PDF files to the PDF compression service, reports upload progress and fetches the compressed results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger.EnableDebugLog(opts.verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "",
		"Compression service base URL (default: $"+config.APIURLEnvKey+" or "+config.DefaultAPIURL+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newCompressCmd(opts))
	rootCmd.AddCommand(newURLCmd(opts))
	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newHealthCmd(opts))

	return rootCmd
}

func (o *rootOptions) config() (config.Config, error) {
	if o.apiURL != "" {
		return config.FromValue(o.apiURL)
	}
	return config.New(o.envRepo)
}

func (o *rootOptions) newClient() (*network.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	o.logger.Debugf("Compression service: %s", cfg.APIBaseURL)
	return network.NewClient(cfg.APIBaseURL, o.logger), nil
}
