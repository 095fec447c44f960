package cli

import (
	"github.com/bitrise-io/go-pdfcompress/network"
	"github.com/bitrise-io/go-pdfcompress/workflow"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

const progressStep = 10

// renderProgress prints upload progress in steps until states is closed.
func renderProgress(logger log.Logger, states <-chan workflow.State) {
	last := -1
	for state := range states {
		if state.Status != workflow.Compressing {
			continue
		}
		if !shouldRender(last, state.Progress) {
			continue
		}
		last = state.Progress
		logger.Printf("Uploading... %d%%", state.Progress)
		if state.Progress == 100 {
			logger.Printf("Upload finished, waiting for the service to compress the file")
		}
	}
}

func shouldRender(last, progress int) bool {
	switch {
	case last < 0:
		return true
	case progress == last:
		return false
	case progress == 100:
		return true
	default:
		return progress-last >= progressStep
	}
}

func printResult(logger log.Logger, result network.CompressionResult) {
	logger.Printf("Original size:   %s", formatSize(result.OriginalSize))
	logger.Printf("Compressed size: %s", formatSize(result.CompressedSize))
	logger.Printf("Reduction:       %g%%", result.CompressionRatio)
	logger.Printf("File:            %s", result.Filename)
	if result.SavedBytes() < 0 {
		logger.Warnf("The compressed file is larger than the original")
	}
}

func formatSize(bytes int64) string {
	return units.HumanSizeWithPrecision(float64(bytes), 3)
}
