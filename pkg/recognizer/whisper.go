package recognizer

import (
	"io"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// loadModel loads a ggml whisper model off disk.
func loadModel(path string) (engineModel, error) {
	m, err := whisper.New(path)
	if err != nil {
		return nil, err
	}
	return whisperModel{m}, nil
}

type whisperModel struct {
	model whisper.Model
}

func (w whisperModel) NewContext() (engineContext, error) {
	ctx, err := w.model.NewContext()
	if err != nil {
		return nil, err
	}
	return &whisperContext{ctx: ctx}, nil
}

func (w whisperModel) Close() error { return w.model.Close() }

type whisperContext struct {
	ctx whisper.Context
}

func (c *whisperContext) SetInitialPrompt(prompt string) { c.ctx.SetInitialPrompt(prompt) }

func (c *whisperContext) Process(samples []float32) error {
	return c.ctx.Process(samples, nil, nil, nil)
}

func (c *whisperContext) NextSegmentText() (string, bool, error) {
	seg, err := c.ctx.NextSegment()
	if err == io.EOF {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return seg.Text, true, nil
}
