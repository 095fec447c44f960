package cli

import (
	"fmt"

	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/spf13/cobra"
)

func newURLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url <filename>",
		Short: "Print the download URL of a compressed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), client.DownloadURL(args[0]))
			return err
		},
	}
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show what would be uploaded for a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := document.NewLoader(opts.os).Load(args[0])
			if err != nil {
				return err
			}
			info, err := document.Inspect(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name: %s\n", info.Name)
			fmt.Fprintf(out, "Size: %s\n", formatSize(info.Size))
			fmt.Fprintf(out, "Type: %s\n", info.MimeType)
			fmt.Fprintf(out, "Pages: %d\n", info.Pages)
			return nil
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the compression service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", client.BaseURL(), err)
			}
			opts.logger.Donef("%s is healthy", client.BaseURL())
			return nil
		},
	}
}
