package workflow

import (
	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/bitrise-io/go-pdfcompress/network"
)

// Status tags which variant a State is.
type Status int

// Workflow statuses. Idle is the initial status; Completed and Failed wait for
// the user to select another file or reset.
const (
	Idle Status = iota
	FileSelected
	Compressing
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file selected"
	case Compressing:
		return "compressing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the workflow. Only the fields belonging to
// Status are set:
//
//	FileSelected: File
//	Compressing:  File, Progress
//	Completed:    Result
//	Failed:       Error
//
// Quality is carried in every status so it survives between files.
type State struct {
	Status   Status
	File     document.SelectedFile
	Quality  network.Quality
	Progress int
	Result   network.CompressionResult
	Error    string
}

// HasFile ...
func (s State) HasFile() bool {
	return !s.File.IsZero()
}

func idle(quality network.Quality) State {
	return State{Status: Idle, Quality: quality}
}

func fileSelected(file document.SelectedFile, quality network.Quality) State {
	return State{Status: FileSelected, File: file, Quality: quality}
}

func compressing(file document.SelectedFile, quality network.Quality, progress int) State {
	return State{Status: Compressing, File: file, Quality: quality, Progress: progress}
}

func completed(result network.CompressionResult, quality network.Quality) State {
	return State{Status: Completed, Result: result, Quality: quality}
}

func failed(message string, quality network.Quality) State {
	return State{Status: Failed, Error: message, Quality: quality}
}

func clampProgress(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
