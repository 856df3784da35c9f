package orchestrator

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oliverbhull/memo-stt/pkg/audio"
	"github.com/oliverbhull/memo-stt/pkg/fgapp"
	"github.com/oliverbhull/memo-stt/pkg/mic"
	"github.com/oliverbhull/memo-stt/pkg/perf"
	"github.com/oliverbhull/memo-stt/pkg/prompt"
	"github.com/oliverbhull/memo-stt/pkg/recognizer"
	"github.com/oliverbhull/memo-stt/pkg/trigger"
)

// MicCapture is the narrow surface the orchestrator needs from an audio
// capture stream: open it, get a stop function back.
type MicCapture interface {
	Start(sink mic.Sink) (stop func(), err error)
}

// Deps wires the orchestrator's collaborators. Source and SourceRate are
// fixed for the orchestrator's whole lifetime — an input-source change is
// handled by the outer driver building a fresh Orchestrator, not by
// mutating one in place.
type Deps struct {
	Source     AudioSource
	SourceRate int

	Recognizer Recognizer
	Injector   Injector
	Probe      ContextProbe
	Vocabulary *prompt.Vocabulary
	Perf       *perf.Tracker
	Mic        MicCapture // only read when Source == SourceMic
	Logger     Logger

	EventBuffer int
}

// Orchestrator is the session state machine: Idle / Recording{locked}. A
// single mutex serializes every trigger transition, which is what makes
// concurrent keyboard+BLE activation produce exactly one session —
// stronger than a bare CAS on a single flag, since lock and recording
// state must move together.
type Orchestrator struct {
	source     AudioSource
	sourceRate int

	recognizer Recognizer
	injector   Injector
	probe      ContextProbe
	vocabulary *prompt.Vocabulary
	perfTracker *perf.Tracker
	mic        MicCapture
	logger     Logger

	ring *audio.Ring

	mu        sync.Mutex
	recording bool
	locked    bool
	micStop   func()

	pressEnter boolFlag

	lastLevelEmit time.Time
	levelMu       sync.Mutex

	events chan Event
	wg     sync.WaitGroup
}

// boolFlag is a tiny mutex-guarded cell, used for the press-Enter toggle
// that the command channel flips independently of any in-flight
// utterance.
type boolFlag struct {
	mu sync.Mutex
	v  bool
}

func (f *boolFlag) Set(v bool) { f.mu.Lock(); f.v = v; f.mu.Unlock() }
func (f *boolFlag) Get() bool  { f.mu.Lock(); defer f.mu.Unlock(); return f.v }

// New builds an Orchestrator. Recognizer and Injector are required; a nil
// Probe, Vocabulary, Perf or Logger is replaced with an inert default.
func New(d Deps) (*Orchestrator, error) {
	if d.Recognizer == nil {
		return nil, ErrNilRecognizer
	}
	if d.Injector == nil {
		return nil, ErrNilInjector
	}
	if d.Probe == nil {
		d.Probe = fgapp.New()
	}
	if d.Vocabulary == nil {
		d.Vocabulary = &prompt.Vocabulary{}
	}
	if d.Perf == nil {
		d.Perf = &perf.Tracker{}
	}
	if d.Logger == nil {
		d.Logger = NoOpLogger{}
	}
	if d.EventBuffer <= 0 {
		d.EventBuffer = 64
	}

	return &Orchestrator{
		source:      d.Source,
		sourceRate:  d.SourceRate,
		recognizer:  d.Recognizer,
		injector:    d.Injector,
		probe:       d.Probe,
		vocabulary:  d.Vocabulary,
		perfTracker: d.Perf,
		mic:         d.Mic,
		logger:      d.Logger,
		ring:        audio.NewRing(),
		events:      make(chan Event, d.EventBuffer),
	}, nil
}

// Events returns the channel the daemon's main loop drains to render
// stdout/stderr protocol lines.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// SetPressEnter flips whether injection is followed by a synthetic Return.
func (o *Orchestrator) SetPressEnter(v bool) { o.pressEnter.Set(v) }

// Wait blocks until every spawned transcription job has finished. Used by
// tests and by graceful shutdown.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// HandleCommand applies one trigger.Command to the state machine,
// following the transition table: Idle+Activate opens a session,
// Idle+ToggleLock opens a locked session, Recording+Deactivate ends an
// unlocked session, Recording{locked}+Deactivate is ignored,
// Recording+ToggleLock flips the lock (ending the session on the second
// toggle), and Recording+Activate is an idempotent no-op.
func (o *Orchestrator) HandleCommand(cmd trigger.Command) {
	switch cmd.Kind {
	case trigger.Activate:
		o.handleActivate()
	case trigger.ToggleLock:
		o.handleToggleLock()
	case trigger.Deactivate:
		o.handleDeactivate()
	}
}

func (o *Orchestrator) handleActivate() {
	o.mu.Lock()
	if o.recording {
		o.mu.Unlock()
		return
	}
	o.recording = true
	o.locked = false
	o.startSessionLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) handleToggleLock() {
	o.mu.Lock()
	switch {
	case !o.recording:
		o.recording = true
		o.locked = true
		o.startSessionLocked()
		o.mu.Unlock()
		o.emit(Event{Type: EventLocked})
	case !o.locked:
		o.locked = true
		o.mu.Unlock()
		o.emit(Event{Type: EventLocked})
	default:
		o.locked = false
		o.recording = false
		samples := o.endSessionLocked()
		o.mu.Unlock()
		o.emit(Event{Type: EventUnlocked})
		o.spawnTranscriptionJob(samples)
	}
}

func (o *Orchestrator) handleDeactivate() {
	o.mu.Lock()
	if !o.recording || o.locked {
		o.mu.Unlock()
		return
	}
	o.recording = false
	samples := o.endSessionLocked()
	o.mu.Unlock()
	o.spawnTranscriptionJob(samples)
}

// startSessionLocked clears the ring and, for mic sources, opens the
// capture stream. Must be called with o.mu held.
func (o *Orchestrator) startSessionLocked() {
	o.ring.Clear()
	if o.source == SourceMic && o.mic != nil {
		stop, err := o.mic.Start(o.FeedSamples)
		if err != nil {
			o.logger.Error("orchestrator: failed to open mic capture", "error", err)
			return
		}
		o.micStop = stop
	}
}

// endSessionLocked takes the ring's contents and, for mic sources, closes
// the capture stream. Must be called with o.mu held.
func (o *Orchestrator) endSessionLocked() []int16 {
	samples := o.ring.Take()
	if o.micStop != nil {
		o.micStop()
		o.micStop = nil
	}
	return samples
}

// FeedSamples appends samples to the active utterance's ring and emits a
// throttled AUDIO_LEVELS sample. It is safe to call unconditionally — for
// BLE, decoded audio flows continuously regardless of RecordingState and
// is gated here, per the BLE audio ownership note in the data model.
func (o *Orchestrator) FeedSamples(samples []int16) {
	o.mu.Lock()
	recording := o.recording
	if recording {
		o.ring.Append(samples)
	}
	o.mu.Unlock()

	if !recording {
		return
	}
	o.emitLevels(samples)
}

func (o *Orchestrator) emitLevels(samples []int16) {
	o.levelMu.Lock()
	due := time.Since(o.lastLevelEmit) >= 50*time.Millisecond
	if due {
		o.lastLevelEmit = time.Now()
	}
	o.levelMu.Unlock()
	if !due {
		return
	}

	var levels [7]float64
	if o.source == SourceBLE {
		levels = audio.BleLevels(samples)
	} else {
		levels = audio.MicLevels(samples)
	}
	o.emit(Event{Type: EventAudioLevels, Levels: levels})
}

func (o *Orchestrator) spawnTranscriptionJob(samples []int16) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runTranscriptionJob(samples)
	}()
}

// runTranscriptionJob is the per-utterance pipeline: snapshot context and
// vocabulary, build and set the prompt, transcribe, post-process, emit
// FINAL, inject, and record a perf sample. Every branch that reaches
// recognizer.Transcribe has already called SetPrompt first, including
// when the built prompt is empty — the recognizer's prompt is sticky and
// must be cleared explicitly.
func (o *Orchestrator) runTranscriptionJob(samples []int16) {
	if len(samples) == 0 {
		o.logger.Debug("orchestrator: discarding empty utterance")
		return
	}
	o.logger.Info("orchestrator: utterance captured", "samples", len(samples))

	o.emitUtteranceAudio(samples)

	snapshot := o.probe.Snapshot()
	apps, commands := o.vocabulary.Snapshot()
	promptText, ok := prompt.Build(snapshot, apps, commands)
	if ok {
		o.recognizer.SetPrompt(&promptText)
	} else {
		o.recognizer.SetPrompt(nil)
	}

	start := time.Now()
	text, err := o.recognizer.Transcribe(samples)
	elapsed := time.Since(start)
	audioSeconds := float64(len(samples)) / float64(o.sourceRate)

	if err != nil {
		if errors.Is(err, recognizer.ErrAudioTooShort) {
			o.logger.Warn("orchestrator: utterance too short to transcribe")
			o.emit(Event{Type: EventAudioTooShort})
			return
		}
		o.logger.Error("orchestrator: transcription failed", "error", err)
		o.emit(Event{Type: EventTranscribeError, Err: err})
		return
	}

	if strings.TrimSpace(text) == "" {
		o.emit(Event{Type: EventNoSpeech})
		o.recordPerf(audioSeconds, elapsed)
		return
	}

	processed := stripShortTerminators(text)
	final := FinalPayload{
		RawTranscript:     text,
		ProcessedText:     processed,
		WasProcessedByLLM: false,
		AppContext:        AppContext{AppName: snapshot.AppName, WindowTitle: snapshot.WindowTitle},
	}
	o.emit(Event{Type: EventFinal, Final: &final})

	if err := o.injector.Inject(processed, o.pressEnter.Get()); err != nil {
		o.logger.Error("orchestrator: injection failed", "error", err)
		o.emit(Event{Type: EventInjectError, Err: err})
	}

	o.recordPerf(audioSeconds, elapsed)
}

const canonicalRate = 16000

// emitUtteranceAudio resamples the utterance to the canonical 16kHz rate
// and emits AUDIO_WAV and AUDIO_DURATION, plus AUDIO_DATA when the source
// was already 16kHz PCM (BLE) — Opus re-encoding a resampled mic signal
// would not be the bit stream the spec's wire format promises.
func (o *Orchestrator) emitUtteranceAudio(samples []int16) {
	canonical := samples
	if o.sourceRate != canonicalRate {
		canonical = audio.Resample(samples, o.sourceRate, canonicalRate)
	}

	o.emit(Event{Type: EventAudioDuration, DurationSeconds: float64(len(samples)) / float64(o.sourceRate)})
	o.emit(Event{Type: EventAudioWav, WavData: audio.NewWavBuffer(audio.I16ToBytesLE(canonical), canonicalRate)})

	if o.source != SourceBLE {
		return
	}
	codec, err := audio.NewBundleCodec()
	if err != nil {
		o.logger.Warn("orchestrator: opus encode unavailable", "error", err)
		return
	}
	frames, err := codec.EncodeBuffer(canonical)
	if err != nil {
		o.logger.Warn("orchestrator: opus encode failed", "error", err)
		return
	}
	o.emit(Event{Type: EventAudioData, AudioData: audio.EncodeBundle(0, frames)})
}

// recordPerf appends one (audio_seconds, realtime_factor) observation and
// logs the current least-squares projection as best-effort telemetry. Per
// the projection's own degeneracy guard, too few samples or a numerically
// flat window just omits the line rather than logging a zero projection.
func (o *Orchestrator) recordPerf(audioSeconds float64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	rtf := audioSeconds / elapsed.Seconds()
	o.perfTracker.Record(audioSeconds, rtf)

	if proj, ok := o.perfTracker.Project(); ok {
		o.logger.Debug("orchestrator: perf projection",
			"realtime_factor", rtf,
			"projected_rtf_at_30s", proj.At30s,
			"projected_rtf_at_60s", proj.At60s,
		)
	}
}

func (o *Orchestrator) emit(e Event) {
	select {
	case o.events <- e:
	default:
	}
}
