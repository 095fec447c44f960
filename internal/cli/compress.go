package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/bitrise-io/go-pdfcompress/network"
	"github.com/bitrise-io/go-pdfcompress/workflow"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

type compressOptions struct {
	*rootOptions

	quality   string
	download  bool
	outputDir string
}

func newCompressCmd(root *rootOptions) *cobra.Command {
	opts := &compressOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "compress <path|pattern>...",
		Short: "Compress one or more PDF files",
		Long: `Compress one or more PDF files, one after the other.

Arguments can be file paths or glob patterns (e.g. "invoices/**/*.pdf").
Quality profiles:
  low      ` + network.QualityLow.Description() + `
  medium   ` + network.QualityMedium.Description() + `
  high     ` + network.QualityHigh.Description() + `
  maximum  ` + network.QualityMaximum.Description(),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.quality, "quality", "q", string(network.DefaultQuality), "Compression quality: low, medium, high or maximum")
	cmd.Flags().BoolVarP(&opts.download, "download", "d", false, "Download the compressed files")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", ".", "Directory for downloaded files")

	return cmd
}

func runCompress(ctx context.Context, opts *compressOptions, args []string) error {
	quality, err := network.ParseQuality(opts.quality)
	if err != nil {
		return err
	}

	paths, err := expandPaths(args, opts)
	if err != nil {
		return err
	}

	client, err := opts.newClient()
	if err != nil {
		return err
	}

	if opts.download {
		if err := opts.os.MkdirAll(opts.outputDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	orchestrator := workflow.New(client, opts.logger)
	if err := orchestrator.SetQuality(quality); err != nil {
		return err
	}

	loader := document.NewLoader(opts.os)
	failures := 0
	for _, path := range paths {
		if err := compressOne(ctx, opts, orchestrator, client, loader, path); err != nil {
			opts.logger.Errorf("%s: %s", path, err)
			failures++
		}
		if err := orchestrator.Reset(); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failures, len(paths))
	}
	return nil
}

func compressOne(ctx context.Context, opts *compressOptions, orchestrator *workflow.Orchestrator, downloader network.Downloader, loader document.Loader, path string) error {
	file, err := loader.Load(path)
	if err != nil {
		return err
	}
	if err := orchestrator.Select(file); err != nil {
		return err
	}

	opts.logger.Println()
	opts.logger.Infof("%s (%s)", file.Name, formatSize(file.Size))
	if info, err := document.Inspect(file); err != nil {
		opts.logger.Warnf("Could not read the PDF locally: %s", err)
	} else {
		opts.logger.Printf("Pages: %d", info.Pages)
	}
	opts.logger.Printf("Quality: %s", orchestrator.Snapshot().Quality)

	states, unsubscribe := orchestrator.Subscribe()
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		renderProgress(opts.logger, states)
	}()

	startTime := time.Now()
	final := orchestrator.Compress(ctx)
	unsubscribe()
	<-rendered

	switch final.Status {
	case workflow.Completed:
		opts.logger.Donef("Compressed in %s", time.Since(startTime).Round(time.Millisecond))
		printResult(opts.logger, final.Result)
	case workflow.Failed:
		return fmt.Errorf("%s", final.Error)
	default:
		return fmt.Errorf("unexpected workflow state: %s", final.Status)
	}

	if !opts.download {
		opts.logger.Printf("Download: %s", downloader.DownloadURL(final.Result.Filename))
		return nil
	}

	destination := filepath.Join(opts.outputDir, filepath.Base(final.Result.Filename))
	if err := downloader.Download(ctx, final.Result.Filename, destination); err != nil {
		return err
	}
	opts.logger.Donef("Saved to %s", destination)
	return nil
}

// expandPaths resolves glob patterns; plain paths are passed through untouched.
func expandPaths(args []string, opts *compressOptions) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}

		base, pattern := doublestar.SplitPattern(filepath.ToSlash(arg))
		absBase, err := opts.os.Abs(base)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(opts.os.DirFS(absBase), pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			opts.logger.Warnf("No match for path pattern: %s", arg)
			continue
		}
		for _, match := range matches {
			paths = append(paths, filepath.Join(base, match))
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to compress")
	}
	return paths, nil
}
