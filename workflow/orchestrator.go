package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/bitrise-io/go-pdfcompress/network"
	"github.com/bitrise-io/go-utils/v2/log"
)

// ErrBusy is returned for triggers that are refused while a compression is running.
var ErrBusy = errors.New("a compression is already in progress")

// ErrNoFile is returned when Select is given the empty selection.
var ErrNoFile = errors.New("no file to select")

// Orchestrator owns the workflow state and is its only writer. Triggers can be
// called from any goroutine; readers get copies through Snapshot or Subscribe.
type Orchestrator struct {
	compressor network.Compressor
	logger     log.Logger

	mu          sync.Mutex
	state       State
	attempt     uint64
	subscribers map[int]chan State
	nextSubID   int
}

// New creates an orchestrator in the Idle state with the default quality.
func New(compressor network.Compressor, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		compressor:  compressor,
		logger:      logger,
		state:       idle(network.DefaultQuality),
		subscribers: map[int]chan State{},
	}
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe returns a channel that receives the current state right away and
// every later state. A slow reader only sees the latest state, it never blocks
// the workflow. The returned func unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan State, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	ch := make(chan State, 1)
	ch <- o.state
	o.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subscribers, id)
			close(ch)
		})
	}
}

// Select makes file the current selection, replacing any previous file,
// result or error. Empty selections and non-PDF files are refused and leave
// the state untouched.
func (o *Orchestrator) Select(file document.SelectedFile) error {
	if file.IsZero() {
		return ErrNoFile
	}
	if file.MimeType != document.MimeTypePDF {
		return fmt.Errorf("select %s: %w", file.Name, document.ErrInvalidFileType)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status == Compressing {
		return ErrBusy
	}
	o.transition(fileSelected(file, o.state.Quality))
	return nil
}

// SetQuality changes the quality used by the next compression.
func (o *Orchestrator) SetQuality(quality network.Quality) error {
	if !quality.Valid() {
		return fmt.Errorf("invalid quality: %q", quality)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status == Compressing {
		return ErrBusy
	}
	if o.state.Quality == quality {
		return nil
	}
	next := o.state
	next.Quality = quality
	o.transition(next)
	return nil
}

// Clear drops the selected file. It only has an effect in FileSelected.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status != FileSelected {
		return
	}
	o.transition(idle(o.state.Quality))
}

// Reset returns to Idle, dropping any file, result or error. There is no way
// to abort a running compression, so Reset is refused while Compressing.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status == Compressing {
		return ErrBusy
	}
	if o.state.Status == Idle {
		return nil
	}
	o.transition(idle(o.state.Quality))
	return nil
}

// Compress uploads the selected file and blocks until the service answers.
// It returns the resulting state. Without a selected file, or while another
// compression is running, it does nothing and returns the current state.
// ctx only bounds the transport; a cancelled context ends in Failed.
func (o *Orchestrator) Compress(ctx context.Context) State {
	o.mu.Lock()
	if o.state.Status != FileSelected || !o.state.HasFile() {
		current := o.state
		o.mu.Unlock()
		return current
	}
	file, quality := o.state.File, o.state.Quality
	o.attempt++
	attempt := o.attempt
	o.transition(compressing(file, quality, 0))
	o.mu.Unlock()

	result, err := o.compressor.Compress(ctx, file, quality, network.ProgressFunc(func(percent int) {
		o.updateProgress(attempt, percent)
	}))

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.logger.Debugf("Compression of %s failed: %s", file.Name, describeError(err))
		o.transition(failed(errorMessage(err), quality))
	} else {
		o.transition(completed(result, quality))
	}
	return o.state
}

func (o *Orchestrator) updateProgress(attempt uint64, percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Ticks from a finished attempt are dropped.
	if o.attempt != attempt || o.state.Status != Compressing {
		return
	}
	next := o.state
	next.Progress = clampProgress(percent)
	if next.Progress == o.state.Progress {
		return
	}
	o.state = next
	o.publish()
}

// transition must be called with o.mu held.
func (o *Orchestrator) transition(next State) {
	if o.state.Status != next.Status {
		o.logger.Debugf("Workflow: %s -> %s", o.state.Status, next.Status)
	}
	o.state = next
	o.publish()
}

// publish must be called with o.mu held. Each subscriber channel holds at most
// one pending state; an unread one is replaced by the newer state.
func (o *Orchestrator) publish() {
	for _, ch := range o.subscribers {
		select {
		case ch <- o.state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- o.state:
			default:
			}
		}
	}
}

func errorMessage(err error) string {
	var clientErr *network.Error
	if errors.As(err, &clientErr) && clientErr.Message != "" {
		return clientErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return network.MessageServerRejected
}

func describeError(err error) string {
	var clientErr *network.Error
	if errors.As(err, &clientErr) {
		return clientErr.Detailed()
	}
	return err.Error()
}
