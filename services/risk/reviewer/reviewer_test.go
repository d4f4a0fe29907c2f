// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the narrative reviewer collaborator.

package reviewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jinterlante1206/AleutianRisk/services/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	err     error
	sawCtx  context.Context
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	f.sawCtx = ctx
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return "looks reasonable", nil
}

func TestReview_Success(t *testing.T) {
	fake := &fakeLLM{}
	r := NewLLMReviewer(fake, Config{})
	require.NoError(t, r.Review(context.Background(), "score 0.4"))
	require.Len(t, fake.prompts, 1)
	assert.Equal(t, "score 0.4", fake.prompts[0])
}

func TestReview_PropagatesBackendFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("model unavailable")}
	r := NewLLMReviewer(fake, Config{})
	err := r.Review(context.Background(), "score 0.4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestReview_AppliesTimeout(t *testing.T) {
	fake := &fakeLLM{}
	r := NewLLMReviewer(fake, Config{Timeout: 50 * time.Millisecond})
	require.NoError(t, r.Review(context.Background(), "p"))

	deadline, ok := fake.sawCtx.Deadline()
	require.True(t, ok, "review call must carry a deadline")
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)
}

func TestReview_RateLimitRejectsInsteadOfBlocking(t *testing.T) {
	fake := &fakeLLM{}
	r := NewLLMReviewer(fake, Config{RatePerSecond: 0.001, Burst: 1})

	require.NoError(t, r.Review(context.Background(), "first"))
	err := r.Review(context.Background(), "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Len(t, fake.prompts, 1)
}
