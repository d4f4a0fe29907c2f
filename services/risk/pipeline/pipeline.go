// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline runs one risk assessment end to end.
//
// # Description
//
// A run moves through a fixed sequence of stages: context retrieval,
// the four analysis stages, then synthesis. Context retrieval is best
// effort and degrades to empty background. An analysis stage error
// aborts the run with no partial assessment. The four analysis stages
// are independent of each other; they run sequentially by default and
// concurrently when Config.Parallel is set, with identical results
// either way.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jinterlante1206/AleutianRisk/services/risk/agents"
	"github.com/jinterlante1206/AleutianRisk/services/risk/contextprov"
	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
	"github.com/jinterlante1206/AleutianRisk/services/risk/synthesis"
)

// tracer is the OpenTelemetry tracer for pipeline execution.
var tracer = otel.Tracer("aleutianrisk.pipeline")

// Stage names, reported in spans, logs, and stage errors.
const (
	StageContextRetrieval = "context_retrieval"
	StageSynthesis        = "risk_synthesis"
)

// StageName returns the stage name for an analysis dimension.
func StageName(riskType datatypes.RiskType) string {
	return string(riskType) + "_analysis"
}

// StageError wraps a failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Config tunes pipeline execution.
type Config struct {
	// Parallel runs the four analysis stages concurrently. The stage
	// outputs are independent, so this changes latency only.
	Parallel bool

	// Logger receives pipeline lifecycle logs. Nil means slog.Default.
	Logger *slog.Logger
}

// Pipeline executes assessments. Immutable after construction and safe
// for concurrent use; each run owns its own assessment context.
type Pipeline struct {
	provider    contextprov.Provider
	agents      []agents.Agent
	synthesizer *synthesis.Synthesizer
	config      Config
	metrics     *observability.RiskMetrics
	logger      *slog.Logger
}

// New builds a pipeline over the given collaborators.
//
// # Inputs
//
//   - provider: Background retrieval. Must not be nil; pass
//     contextprov.Noop{} when no vector store is configured.
//   - agentList: The analysis stages, in execution order. Must cover
//     each dimension exactly once.
//   - synthesizer: The final stage.
func New(provider contextprov.Provider, agentList []agents.Agent, synthesizer *synthesis.Synthesizer, config Config) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("pipeline requires a context provider")
	}
	if synthesizer == nil {
		return nil, fmt.Errorf("pipeline requires a synthesizer")
	}
	if err := checkAgentCoverage(agentList); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		provider:    provider,
		agents:      agentList,
		synthesizer: synthesizer,
		config:      config,
		metrics:     observability.InitMetrics(),
		logger:      logger,
	}, nil
}

func checkAgentCoverage(agentList []agents.Agent) error {
	seen := make(map[datatypes.RiskType]bool, len(agentList))
	for _, agent := range agentList {
		if seen[agent.RiskType()] {
			return fmt.Errorf("duplicate agent for dimension %q", agent.RiskType())
		}
		seen[agent.RiskType()] = true
	}
	for _, riskType := range datatypes.AgentRiskTypes {
		if !seen[riskType] {
			return fmt.Errorf("missing agent for dimension %q", riskType)
		}
	}
	return nil
}

// Run executes one assessment.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing. Cancellation between
//     stages aborts the run.
//   - req: A validated assessment request.
//
// # Outputs
//
//   - *datatypes.ComprehensiveAssessment: The final assessment.
//   - error: A *StageError naming the failed stage, or the context
//     error on cancellation.
func (p *Pipeline) Run(ctx context.Context, req *datatypes.AssessmentRequest) (*datatypes.ComprehensiveAssessment, error) {
	executionID := uuid.NewString()[:12]
	state := req.NewContext(executionID)

	ctx, span := tracer.Start(ctx, "risk.Pipeline",
		trace.WithAttributes(
			attribute.String("company.id", req.CompanyID),
			attribute.String("execution.id", executionID),
			attribute.Bool("pipeline.parallel", p.config.Parallel),
		),
	)
	defer span.End()

	start := time.Now()
	p.logger.Info("assessment started",
		slog.String("company_id", req.CompanyID),
		slog.String("execution_id", executionID),
	)

	p.retrieveContext(ctx, state)

	if err := p.runAnalysis(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.RecordError(observability.ComponentPipeline)
		p.logger.Error("assessment failed",
			slog.String("company_id", req.CompanyID),
			slog.String("execution_id", executionID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	assessment, err := p.synthesize(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.RecordError(observability.ComponentPipeline)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	p.logger.Info("assessment completed",
		slog.String("company_id", req.CompanyID),
		slog.String("execution_id", executionID),
		slog.String("assessment_id", assessment.AssessmentID),
		slog.String("overall_level", string(assessment.OverallRiskLevel)),
		slog.Duration("duration", time.Since(start)),
	)
	return assessment, nil
}

// retrieveContext populates state.Background best effort. A provider
// failure degrades to empty background and is recorded, never fatal.
func (p *Pipeline) retrieveContext(ctx context.Context, state *datatypes.AssessmentContext) {
	ctx, span := tracer.Start(ctx, StageContextRetrieval)
	defer span.End()

	background, err := p.provider.Retrieve(ctx, state.CompanyID)
	if err != nil {
		span.RecordError(err)
		p.metrics.RecordError(observability.ComponentContextProvider)
		p.logger.Warn("context retrieval degraded, continuing without background",
			slog.String("company_id", state.CompanyID),
			slog.String("execution_id", state.ExecutionID),
			slog.String("error", err.Error()),
		)
		return
	}
	state.Background = background
	span.SetAttributes(attribute.Int("background.length", len(background)))
}

func (p *Pipeline) runAnalysis(ctx context.Context, state *datatypes.AssessmentContext) error {
	if p.config.Parallel {
		return p.runAnalysisParallel(ctx, state)
	}
	for _, agent := range p.agents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runAgent(ctx, agent, state); err != nil {
			return err
		}
	}
	return nil
}

// runAnalysisParallel runs all four analysis stages concurrently. The
// first failure cancels the rest.
func (p *Pipeline) runAnalysisParallel(ctx context.Context, state *datatypes.AssessmentContext) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, agent := range p.agents {
		g.Go(func() error {
			return p.runAgent(gctx, agent, state)
		})
	}
	return g.Wait()
}

func (p *Pipeline) runAgent(ctx context.Context, agent agents.Agent, state *datatypes.AssessmentContext) error {
	stage := StageName(agent.RiskType())
	ctx, span := tracer.Start(ctx, stage,
		trace.WithAttributes(attribute.String("execution.id", state.ExecutionID)),
	)
	defer span.End()

	score, err := agent.Analyze(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: stage, Err: err}
	}
	if err := state.SetAgentScore(score); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &StageError{Stage: stage, Err: err}
	}
	span.SetAttributes(attribute.Float64("risk.score", score.Score))
	return nil
}

func (p *Pipeline) synthesize(ctx context.Context, state *datatypes.AssessmentContext) (*datatypes.ComprehensiveAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, span := tracer.Start(ctx, StageSynthesis)
	defer span.End()

	assessment, err := p.synthesizer.Synthesize(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &StageError{Stage: StageSynthesis, Err: err}
	}
	state.Assessment = assessment
	span.SetAttributes(
		attribute.String("assessment.id", assessment.AssessmentID),
		attribute.Float64("risk.overall_score", assessment.OverallRiskScore),
	)
	return assessment, nil
}
