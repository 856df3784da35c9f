package prompt

import (
	"testing"

	"github.com/oliverbhull/memo-stt/pkg/fgapp"
)

func TestBuildAppAndTitle(t *testing.T) {
	got, ok := Build(fgapp.Snapshot{AppName: "Slack", WindowTitle: "#general"}, nil, nil)
	if !ok {
		t.Fatal("expected a prompt")
	}
	want := "You are transcribing for Slack. The current window is: #general."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildAppOnly(t *testing.T) {
	got, ok := Build(fgapp.Snapshot{AppName: "Mail"}, nil, nil)
	if !ok {
		t.Fatal("expected a prompt")
	}
	if got != "You are transcribing for Mail." {
		t.Fatalf("got %q", got)
	}
}

func TestBuildUnknownAppTreatedAsAbsent(t *testing.T) {
	_, ok := Build(fgapp.Snapshot{AppName: "Unknown"}, nil, nil)
	if ok {
		t.Fatal("expected no prompt for an Unknown app with no vocabulary")
	}
}

func TestBuildVocabularyAppended(t *testing.T) {
	got, ok := Build(fgapp.Snapshot{}, []string{"Slack"}, []string{"send"})
	if !ok {
		t.Fatal("expected a prompt")
	}
	want := "Voice commands: open Slack. Commands: send."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildAllSegmentsCombine(t *testing.T) {
	got, ok := Build(fgapp.Snapshot{AppName: "Slack", WindowTitle: "#general"}, []string{"Slack", "Mail"}, []string{"send", "archive"})
	if !ok {
		t.Fatal("expected a prompt")
	}
	want := "You are transcribing for Slack. The current window is: #general. Voice commands: open Slack, Mail. Commands: send, archive."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildEmptyYieldsNone(t *testing.T) {
	_, ok := Build(fgapp.Snapshot{}, nil, nil)
	if ok {
		t.Fatal("expected no prompt for empty context and vocabulary")
	}
}
