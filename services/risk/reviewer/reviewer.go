// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package reviewer provides the narrative reviewer collaborator: an LLM
// that qualitatively reviews a rule-based risk score.
//
// The reviewer is advisory only. The pipeline inspects nothing but
// success or failure of a review; its text is logged and discarded. A
// failing or rate-limited reviewer must never abort the calling agent.
package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinterlante1206/AleutianRisk/services/llm"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single review call. The pipeline cannot block
// indefinitely on an external model.
const DefaultTimeout = 20 * time.Second

// Reviewer reviews a prompt describing a computed score. Only the error
// matters to callers; the review content is opaque to the pipeline.
type Reviewer interface {
	Review(ctx context.Context, prompt string) error
}

// LLMReviewer implements Reviewer over an llm.Client with a per-call
// timeout and a token-bucket rate limit.
type LLMReviewer struct {
	client  llm.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// Config tunes the LLMReviewer. Zero values take defaults.
type Config struct {
	// Timeout bounds one review call. Default: DefaultTimeout.
	Timeout time.Duration

	// RatePerSecond bounds review calls across the process. Default: 2.
	RatePerSecond float64

	// Burst is the limiter burst size. Default: 4.
	Burst int

	// Logger for degraded-mode warnings. Default: slog.Default().
	Logger *slog.Logger
}

// NewLLMReviewer wraps an LLM backend as a Reviewer.
func NewLLMReviewer(client llm.Client, cfg Config) *LLMReviewer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LLMReviewer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Review sends the prompt to the model. Rate-limit rejection counts as a
// review failure so the caller keeps its unamplified score; Allow is used
// rather than Wait so a saturated limiter degrades instead of stalling
// the pipeline.
func (r *LLMReviewer) Review(ctx context.Context, prompt string) error {
	if !r.limiter.Allow() {
		return fmt.Errorf("narrative reviewer rate limit exceeded")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	maxTokens := 512
	temp := float32(0.6)
	review, err := r.client.Generate(ctx, prompt, llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return fmt.Errorf("narrative review failed: %w", err)
	}
	r.logger.Debug("narrative review completed", "review_length", len(review))
	return nil
}
