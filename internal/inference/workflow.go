package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fmueller/voxclone/internal/analytics"
	"github.com/fmueller/voxclone/internal/catalog"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the resting or active phase of a Workflow.
type State int

const (
	StateIdle State = iota
	StateReady
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Converter performs the remote conversion call.
type Converter interface {
	Convert(ctx context.Context, file UploadedFile, params Params) (*Audio, error)
}

// ResultStore persists a converted body.
type ResultStore interface {
	Save(audio *Audio, file UploadedFile, params Params) (ConversionResult, error)
}

type WorkflowOptions struct {
	Converter Converter
	Store     ResultStore
	Analytics analytics.Sink
	Logger    *zap.Logger
	Now       func() time.Time
}

// Workflow holds the state of one conversion form: the selected model, the
// uploaded file, the tuning and the outcome of the last submission.
type Workflow struct {
	converter Converter
	store     ResultStore
	sink      analytics.Sink
	logger    *zap.Logger
	now       func() time.Time

	inFlight atomic.Bool

	mu       sync.Mutex
	state    State
	model    *catalog.Model
	file     *UploadedFile
	tuning   Tuning
	preset   Preset
	result   *ConversionResult
	errorMsg string
}

func NewWorkflow(opts WorkflowOptions) (*Workflow, error) {
	if opts.Converter == nil {
		return nil, errors.New("converter is required")
	}
	if opts.Store == nil {
		return nil, errors.New("result store is required")
	}
	if opts.Analytics == nil {
		opts.Analytics = analytics.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Workflow{
		converter: opts.Converter,
		store:     opts.Store,
		sink:      opts.Analytics,
		logger:    opts.Logger,
		now:       opts.Now,
		state:     StateIdle,
		tuning:    SingingConfig,
		preset:    DefaultPreset,
	}, nil
}

func (w *Workflow) SelectModel(id catalog.ModelID) error {
	model, ok := catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown model %q", id)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.model = &model
	return nil
}

// Drop validates a candidate and makes it the uploaded file. A rejected
// candidate leaves the current upload untouched.
func (w *Workflow) Drop(c Candidate) (UploadedFile, error) {
	file, err := ValidateFile(c)
	if err != nil {
		w.logger.Warn("rejected audio file", zap.String("file", c.Name), zap.String("mime", c.MIMEType))
		return UploadedFile{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.file = &file
	if w.state == StateIdle {
		w.state = StateReady
	}
	return file, nil
}

// ApplyPreset overwrites the four tunables. The model and upload are kept.
func (w *Workflow) ApplyPreset(preset Preset) error {
	parsed, err := ParsePreset(string(preset))
	if err != nil {
		return err
	}
	tuning, err := PresetTuning(parsed)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tuning = tuning
	w.preset = parsed
	return nil
}

func (w *Workflow) SetPitchPredict(enabled bool) {
	w.edit(func(t *Tuning) { t.PitchPredict = enabled })
}

func (w *Workflow) SetF0Method(method F0Method) error {
	parsed, err := ParseF0Method(string(method))
	if err != nil {
		return err
	}
	w.edit(func(t *Tuning) { t.F0Method = parsed })
	return nil
}

// SetTranspose stores value clamped to -12..12 and returns the stored value.
func (w *Workflow) SetTranspose(value int) int {
	clamped := ClampTranspose(value)
	w.edit(func(t *Tuning) { t.Transpose = clamped })
	return clamped
}

func (w *Workflow) SetNoiseScale(value float64) {
	w.edit(func(t *Tuning) { t.NoiseScale = value })
}

// edit applies a single control change. Any edit moves the preset label to
// custom, even when the value matches the preset.
func (w *Workflow) edit(apply func(*Tuning)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	apply(&w.tuning)
	w.preset = PresetCustom
}

func (w *Workflow) Tuning() Tuning {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tuning
}

// Params returns the parameters a submission would send. Model is empty
// until one is selected.
func (w *Workflow) Params() Params {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paramsLocked()
}

func (w *Workflow) paramsLocked() Params {
	params := Params{Tuning: w.tuning}
	if w.model != nil {
		params.Model = w.model.ID
	}
	return params
}

func (w *Workflow) Preset() Preset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preset
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Model() (catalog.Model, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return catalog.Model{}, false
	}
	return *w.model, true
}

func (w *Workflow) File() (UploadedFile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return UploadedFile{}, false
	}
	return *w.file, true
}

// Result returns the last successful conversion, if the last submission
// succeeded.
func (w *Workflow) Result() (ConversionResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return ConversionResult{}, false
	}
	return *w.result, true
}

// ErrorMessage is the inline message left by the last submission.
func (w *Workflow) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errorMsg
}

// Submit sends the current model, upload and tuning to the inference
// service. Only one submission runs at a time; a concurrent call fails with
// ErrSubmissionInFlight without touching state.
func (w *Workflow) Submit(ctx context.Context) (ConversionResult, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return ConversionResult{}, ErrSubmissionInFlight
	}
	defer w.inFlight.Store(false)

	w.mu.Lock()
	if err := w.preconditionLocked(); err != nil {
		w.errorMsg = Message(err)
		w.mu.Unlock()
		return ConversionResult{}, err
	}
	w.state = StateSubmitting
	w.result = nil
	w.errorMsg = ""
	file := w.file
	params := w.paramsLocked()
	w.mu.Unlock()

	requestID := uuid.NewString()
	logger := w.logger.With(zap.String("request_id", requestID), zap.String("model", string(params.Model)))
	w.capture(analytics.EventInfer, requestID, params)

	started := w.now()
	result, err := w.convert(ctx, *file, params)
	if err != nil {
		logger.Warn("conversion failed", zap.Duration("elapsed", w.now().Sub(started)), zap.Error(err))
		w.capture(analytics.EventFailure, requestID, params)
		return ConversionResult{}, w.settle(nil, ErrConversionFailed)
	}

	logger.Info("conversion finished",
		zap.Duration("elapsed", w.now().Sub(started)),
		zap.String("audio", result.AudioPath),
		zap.Int64("bytes", result.Size),
	)
	w.capture(analytics.EventSuccess, requestID, params)
	return result, w.settle(&result, nil)
}

// preconditionLocked reports a missing model or file. Only the message
// changes; state and the previous result are kept.
func (w *Workflow) preconditionLocked() error {
	if w.model == nil {
		return ErrMissingModel
	}
	if w.file == nil {
		return ErrMissingFile
	}
	return nil
}

func (w *Workflow) convert(ctx context.Context, file UploadedFile, params Params) (ConversionResult, error) {
	if err := params.Validate(); err != nil {
		return ConversionResult{}, err
	}

	audio, err := w.converter.Convert(ctx, file, params)
	if err != nil {
		return ConversionResult{}, err
	}
	defer audio.Body.Close()

	return w.store.Save(audio, file, params)
}

func (w *Workflow) settle(result *ConversionResult, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateIdle
	w.result = result
	w.errorMsg = Message(err)
	return err
}

func (w *Workflow) capture(name, requestID string, params Params) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warn("analytics sink panicked", zap.String("event", name), zap.Any("panic", r))
		}
	}()

	err := w.sink.Capture(analytics.Event{
		Name:      name,
		RequestID: requestID,
		Model:     string(params.Model),
		Params:    params.Fields(),
		At:        w.now(),
	})
	if err != nil {
		w.logger.Debug("analytics capture failed", zap.String("event", name), zap.Error(err))
	}
}
