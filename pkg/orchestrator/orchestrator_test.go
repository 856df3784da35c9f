package orchestrator

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oliverbhull/memo-stt/pkg/fgapp"
	"github.com/oliverbhull/memo-stt/pkg/recognizer"
	"github.com/oliverbhull/memo-stt/pkg/trigger"
)

// mockRecognizer records every SetPrompt call so tests can assert prompt
// freshness, and returns a scripted transcript.
type mockRecognizer struct {
	mu            sync.Mutex
	prompts       []*string
	transcript    string
	transcribeErr error

	// promptsAtTranscribe is len(prompts) when Transcribe was last called.
	promptsAtTranscribe int
}

func (m *mockRecognizer) SetPrompt(p *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, p)
}

func (m *mockRecognizer) Transcribe(samples []int16) (string, error) {
	m.mu.Lock()
	m.promptsAtTranscribe = len(m.prompts)
	m.mu.Unlock()
	if m.transcribeErr != nil {
		return "", m.transcribeErr
	}
	return m.transcript, nil
}

func (m *mockRecognizer) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockInjector records every injected string.
type mockInjector struct {
	mu   sync.Mutex
	text []string
}

func (m *mockInjector) Inject(text string, pressEnter bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = append(m.text, text)
	return nil
}

func (m *mockInjector) injected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.text...)
}

type mockProbe struct{ snap fgapp.Snapshot }

func (m mockProbe) Snapshot() fgapp.Snapshot { return m.snap }

func newTestOrchestrator(t *testing.T, rec *mockRecognizer, inj *mockInjector) *Orchestrator {
	t.Helper()
	o, err := New(Deps{
		Source:     SourceBLE,
		SourceRate: 16000,
		Recognizer: rec,
		Injector:   inj,
		Probe:      mockProbe{snap: fgapp.Snapshot{AppName: "Unknown"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

// drainEvents waits up to timeout for the first event, then collects
// whatever else is already queued. Utterance completion also emits
// AUDIO_WAV and AUDIO_DURATION alongside the notice under test, so
// callers look for a specific type with hasEventType rather than
// asserting an exact slice.
func drainEvents(o *Orchestrator, timeout time.Duration) []Event {
	var got []Event
	select {
	case e := <-o.Events():
		got = append(got, e)
	case <-time.After(timeout):
		return got
	}
	for {
		select {
		case e := <-o.Events():
			got = append(got, e)
		case <-time.After(50 * time.Millisecond):
			return got
		}
	}
}

func hasEventType(events []Event, t EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}

func TestNewRequiresRecognizerAndInjector(t *testing.T) {
	if _, err := New(Deps{Injector: &mockInjector{}}); !errors.Is(err, ErrNilRecognizer) {
		t.Fatalf("want ErrNilRecognizer, got %v", err)
	}
	if _, err := New(Deps{Recognizer: &mockRecognizer{}}); !errors.Is(err, ErrNilInjector) {
		t.Fatalf("want ErrNilInjector, got %v", err)
	}
}

func TestActivateDeactivateProducesOneTranscriptionJob(t *testing.T) {
	rec := &mockRecognizer{transcript: "hello there friend"}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 16000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	if got := inj.injected(); len(got) != 1 || got[0] != "hello there friend" {
		t.Fatalf("unexpected injections: %v", got)
	}
	if rec.promptCount() != 1 {
		t.Fatalf("want exactly one SetPrompt call per utterance, got %d", rec.promptCount())
	}
}

func TestSecondActivateWhileRecordingIsIgnored(t *testing.T) {
	rec := &mockRecognizer{transcript: "ignored duplicate"}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 8000))
	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 8000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	if got := inj.injected(); len(got) != 1 {
		t.Fatalf("want exactly one injection for the single session, got %v", got)
	}
}

func TestDeactivateWhileLockedIsIgnored(t *testing.T) {
	rec := &mockRecognizer{transcript: "should not fire yet"}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.ToggleLock})
	o.FeedSamples(make([]int16, 16000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	if got := inj.injected(); len(got) != 0 {
		t.Fatalf("deactivate must be ignored while locked, got %v", got)
	}

	o.HandleCommand(trigger.Command{Kind: trigger.ToggleLock})
	o.Wait()

	if got := inj.injected(); len(got) != 1 {
		t.Fatalf("want exactly one injection after unlocking, got %v", got)
	}
}

func TestEmptyUtteranceIsDiscardedSilently(t *testing.T) {
	rec := &mockRecognizer{transcript: "should not be reached"}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	if got := inj.injected(); len(got) != 0 {
		t.Fatalf("empty utterance must not reach the injector, got %v", got)
	}
	if rec.promptCount() != 0 {
		t.Fatalf("empty utterance must not reach the recognizer, got %d SetPrompt calls", rec.promptCount())
	}
}

func TestAudioTooShortEmitsNotice(t *testing.T) {
	rec := &mockRecognizer{transcribeErr: recognizer.ErrAudioTooShort}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 100))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	events := drainEvents(o, time.Second)
	if !hasEventType(events, EventAudioTooShort) {
		t.Fatalf("want an EventAudioTooShort, got %v", events)
	}
}

func TestNoSpeechEmitsNoticeWithoutInjection(t *testing.T) {
	rec := &mockRecognizer{transcript: "   "}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 16000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	if got := inj.injected(); len(got) != 0 {
		t.Fatalf("no-speech transcript must not be injected, got %v", got)
	}
	events := drainEvents(o, time.Second)
	if !hasEventType(events, EventNoSpeech) {
		t.Fatalf("want an EventNoSpeech, got %v", events)
	}
}

func TestPromptIsSetEvenWhenEmpty(t *testing.T) {
	rec := &mockRecognizer{transcript: "fine"}
	inj := &mockInjector{}
	o := newTestOrchestrator(t, rec, inj)

	// mockProbe reports AppName "Unknown" and no vocabulary, so
	// prompt.Build should yield ok=false and SetPrompt(nil) must still be
	// called, clearing any sticky prompt from a prior utterance.
	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 16000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.prompts) != 1 || rec.prompts[0] != nil {
		t.Fatalf("want exactly one SetPrompt(nil), got %v", rec.prompts)
	}
}

func TestVocabularyBiasedPromptIsSetBeforeTranscribe(t *testing.T) {
	rec := &mockRecognizer{transcript: "open slack"}
	inj := &mockInjector{}
	o, err := New(Deps{
		Source:     SourceBLE,
		SourceRate: 16000,
		Recognizer: rec,
		Injector:   inj,
		Probe:      mockProbe{snap: fgapp.Snapshot{AppName: "Terminal"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.vocabulary.Replace([]string{"Slack", "Mail"}, nil)

	o.HandleCommand(trigger.Command{Kind: trigger.Activate})
	o.FeedSamples(make([]int16, 16000))
	o.HandleCommand(trigger.Command{Kind: trigger.Deactivate})
	o.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.prompts) != 1 || rec.prompts[0] == nil {
		t.Fatalf("want exactly one non-nil SetPrompt call, got %v", rec.prompts)
	}
	if rec.promptsAtTranscribe != 1 {
		t.Fatalf("want SetPrompt called before Transcribe, saw %d prompts at Transcribe", rec.promptsAtTranscribe)
	}
	want := "You are transcribing for Terminal. Voice commands: open Slack, Mail."
	if got := *rec.prompts[0]; got != want {
		t.Fatalf("want prompt mentioning the foreground app and vocabulary %q, got %q", want, got)
	}
}
