// Command memo-stt is a push-to-talk dictation daemon. It is driven by an
// external UI over stdin/stdout pipes: stdin carries the command channel
// (§4.11), stdout carries audio-level and transcript protocol lines, and
// the process exits 0 on clean stdin EOF or non-zero on fatal init
// failure.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/oliverbhull/memo-stt/pkg/audio"
	"github.com/oliverbhull/memo-stt/pkg/ble"
	"github.com/oliverbhull/memo-stt/pkg/command"
	"github.com/oliverbhull/memo-stt/pkg/fgapp"
	"github.com/oliverbhull/memo-stt/pkg/inject"
	"github.com/oliverbhull/memo-stt/pkg/mic"
	"github.com/oliverbhull/memo-stt/pkg/orchestrator"
	"github.com/oliverbhull/memo-stt/pkg/perf"
	"github.com/oliverbhull/memo-stt/pkg/prompt"
	"github.com/oliverbhull/memo-stt/pkg/recognizer"
	"github.com/oliverbhull/memo-stt/pkg/trigger"
	"github.com/oliverbhull/memo-stt/pkg/zaplog"
)

const bleDeviceRate = 16000

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "memo-stt: no .env file found, using system environment variables")
	}

	hotkeyFlag := pflag.String("hotkey", "function", "trigger key: function|fn|f1..f12|space|ctrl|controlleft|controlright|alt|altleft|altright|cmd|command|metaleft|metaright|shift|shiftleft|shiftright")
	modelFlag := pflag.String("model", "", "path to the GGML whisper model (overrides MEMO_MODEL_PATH)")
	inputSourceFlag := pflag.String("input-source", "", "initial audio source: system|ble (overrides INPUT_SOURCE)")
	pflag.Parse()

	logger, err := zaplog.New(envOr("MEMO_LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "memo-stt: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	key, ok := trigger.ParseHotkey(*hotkeyFlag)
	if !ok {
		logger.Warn("unknown hotkey, falling back to default", "hotkey", *hotkeyFlag)
		key, _ = trigger.ParseHotkey("function")
	}

	modelPath := *modelFlag
	if modelPath == "" {
		modelPath = envOr("MEMO_MODEL_PATH", defaultModelPath())
	}
	rec, err := recognizer.New(modelPath, bleDeviceRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "memo-stt: failed to load recognizer model at %s: %v\n", modelPath, err)
		os.Exit(1)
	}
	defer rec.Close()

	injector := inject.New()
	probe := fgapp.New()
	vocabulary := &prompt.Vocabulary{}
	perfTracker := &perf.Tracker{}

	micTransport, err := mic.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "memo-stt: failed to open audio device: %v\n", err)
		os.Exit(1)
	}
	defer micTransport.Close()

	source := parseSource(envOr("INPUT_SOURCE", "system"))
	if *inputSourceFlag != "" {
		source = parseSource(*inputSourceFlag)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := trigger.NewMux(32)
	keyboard := trigger.NewKeyboardListener(key, mux.In())
	go func() {
		if err := keyboard.Run(ctx); err != nil {
			logger.Error("keyboard listener stopped", "error", err)
		}
	}()

	// The BLE transport runs for the whole process lifetime regardless of
	// the active AudioSource, so a mid-session INPUT_SOURCE switch to ble
	// finds a connection already warmed up rather than starting a scan
	// from cold. MEMO_DEVICE_NAME is kept only when it carries the
	// wearable's documented prefix, and is then logged as the preferred
	// device; the scan itself always matches on the contractual service
	// UUID or the "memo_" name prefix.
	deviceName := os.Getenv("MEMO_DEVICE_NAME")
	if !strings.HasPrefix(strings.ToLower(deviceName), "memo_") {
		deviceName = ""
	}
	if deviceName != "" {
		logger.Info("ble: preferred device name", "name", deviceName)
	}
	bleSink := &bleAudioSink{}
	var bleTransport *ble.Transport
	bleTransport, err = ble.New(deviceName, ble.ModeFull)
	if err != nil {
		logger.Error("ble transport init failed", "error", err)
		bleTransport = nil
	} else {
		codec, codecErr := audio.NewBundleCodec()
		if codecErr != nil {
			logger.Warn("ble opus decode unavailable", "error", codecErr)
		}
		go bleTransport.Run(ctx)
		go runBLEDispatch(ctx, bleTransport, mux, bleSink, codec, logger)
	}

	cmds := command.New(64, logger)
	go cmds.Run(os.Stdin)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		orch, err := buildOrchestrator(source, rec, injector, probe, vocabulary, perfTracker, micTransport, bleSink, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "memo-stt: failed to start orchestrator: %v\n", err)
			os.Exit(1)
		}

		nextSource, shouldExit := runSession(ctx, orch, mux, cmds, vocabulary, sig, out, logger)
		orch.Wait()
		if shouldExit {
			return
		}
		source = nextSource
	}
}

// runSession drives one Orchestrator instance until the command channel
// requests an input-source switch, the process receives a shutdown
// signal, or stdin reaches EOF. It returns the next source to bind (valid
// only when exit is false).
func runSession(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	mux *trigger.Mux,
	cmds *command.Channel,
	vocabulary *prompt.Vocabulary,
	sig <-chan os.Signal,
	out *bufio.Writer,
	logger *zaplog.Logger,
) (next orchestrator.AudioSource, exit bool) {
	for {
		select {
		case cmd, ok := <-mux.Commands():
			if !ok {
				return 0, true
			}
			orch.HandleCommand(cmd)

		case msg, ok := <-cmds.Messages():
			if !ok {
				return 0, true
			}
			switch msg.Kind {
			case command.KindEnter:
				orch.SetPressEnter(msg.Enter)
			case command.KindVocab:
				vocabulary.Replace(msg.Apps, msg.Commands)
			case command.KindInputSource:
				src := parseSource(msg.InputSource)
				logger.Info("switching input source", "source", src.String())
				return src, false
			}

		case e := <-orch.Events():
			renderEvent(out, e)

		case <-sig:
			return 0, true

		case <-ctx.Done():
			return 0, true
		}
	}
}

func buildOrchestrator(
	source orchestrator.AudioSource,
	rec *recognizer.Recognizer,
	injector inject.Injector,
	probe fgapp.Probe,
	vocabulary *prompt.Vocabulary,
	perfTracker *perf.Tracker,
	micTransport *mic.Transport,
	bleSink *bleAudioSink,
	logger *zaplog.Logger,
) (*orchestrator.Orchestrator, error) {
	deps := orchestrator.Deps{
		Source:     source,
		Recognizer: rec,
		Injector:   injector,
		Probe:      probe,
		Vocabulary: vocabulary,
		Perf:       perfTracker,
		Logger:     logger,
	}

	switch source {
	case orchestrator.SourceBLE:
		deps.SourceRate = bleDeviceRate
	default:
		deps.SourceRate = mic.DefaultSampleRate
		deps.Mic = micTransport
	}
	rec.SetSourceRate(deps.SourceRate)

	orch, err := orchestrator.New(deps)
	if err != nil {
		return nil, err
	}

	if source == orchestrator.SourceBLE {
		bleSink.set(orch.FeedSamples)
	} else {
		bleSink.set(nil)
	}
	return orch, nil
}

// bleAudioSink is the one place the BLE dispatcher and the per-session
// Orchestrator meet: the dispatcher is process-lifetime and the
// Orchestrator it feeds is rebuilt on every input-source switch, so the
// feed target has to be swappable under a lock rather than captured once
// at goroutine-start time.
type bleAudioSink struct {
	mu   sync.Mutex
	feed func([]int16)
}

func (s *bleAudioSink) set(feed func([]int16)) {
	s.mu.Lock()
	s.feed = feed
	s.mu.Unlock()
}

func (s *bleAudioSink) call(samples []int16) {
	s.mu.Lock()
	feed := s.feed
	s.mu.Unlock()
	if feed != nil {
		feed(samples)
	}
}

// runBLEDispatch is the single goroutine allowed to read t.Events(): a Go
// channel delivers each value to exactly one receiver, so splitting control
// and audio events across two independent consumers of the same channel
// would silently drop half of each. Control events become trigger Commands
// via mux; audio bundles are Opus-decoded and handed to whichever
// Orchestrator currently owns bleSink, if any.
func runBLEDispatch(ctx context.Context, t *ble.Transport, mux *trigger.Mux, sink *bleAudioSink, codec *audio.BundleCodec, logger *zaplog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-t.Events():
			if !ok {
				return
			}
			switch e.Kind {
			case ble.EventControl:
				if cmd, ok := mux.TranslateBLEControl(e); ok {
					mux.Send(cmd)
				}
			case ble.EventAudio:
				if codec == nil || len(e.Audio) == 0 {
					continue
				}
				pcm, truncated, err := codec.DecodeBundle(e.Audio[1:])
				if err != nil {
					logger.Warn("ble: opus decode failed", "error", err)
					continue
				}
				if truncated {
					logger.Warn("ble: truncated opus bundle", "decoded_samples", len(pcm))
				}
				sink.call(pcm)
			}
		}
	}
}

func renderEvent(out *bufio.Writer, e orchestrator.Event) {
	switch e.Type {
	case orchestrator.EventLocked:
		fmt.Fprintln(os.Stderr, "memo-stt: locked")
	case orchestrator.EventUnlocked:
		fmt.Fprintln(os.Stderr, "memo-stt: unlocked")
	case orchestrator.EventNoSpeech:
		fmt.Fprintln(os.Stderr, "memo-stt: no speech detected")
	case orchestrator.EventAudioTooShort:
		fmt.Fprintln(os.Stderr, "memo-stt: AudioTooShort")
	case orchestrator.EventTranscribeError:
		fmt.Fprintf(os.Stderr, "memo-stt: transcription failed: %v\n", e.Err)
	case orchestrator.EventInjectError:
		fmt.Fprintf(os.Stderr, "memo-stt: injection failed: %v\n", e.Err)
	case orchestrator.EventAudioLevels:
		b, _ := json.Marshal(e.Levels)
		fmt.Fprintf(out, "AUDIO_LEVELS:%s\n", b)
	case orchestrator.EventAudioData:
		fmt.Fprintf(out, "AUDIO_DATA:%s\n", base64.StdEncoding.EncodeToString(e.AudioData))
	case orchestrator.EventAudioWav:
		fmt.Fprintf(out, "AUDIO_WAV:%s\n", base64.StdEncoding.EncodeToString(e.WavData))
	case orchestrator.EventAudioDuration:
		fmt.Fprintf(out, "AUDIO_DURATION:%.2f\n", e.DurationSeconds)
	case orchestrator.EventFinal:
		b, _ := json.Marshal(e.Final)
		fmt.Fprintf(out, "FINAL: %s\n", b)
	}
	out.Flush()
}

func parseSource(s string) orchestrator.AudioSource {
	if strings.EqualFold(s, "ble") {
		return orchestrator.SourceBLE
	}
	return orchestrator.SourceMic
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultModelPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ggml-base.en.bin"
	}
	return filepath.Join(home, ".cache", "memo-stt", "ggml-base.en.bin")
}
