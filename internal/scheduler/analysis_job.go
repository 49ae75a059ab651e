package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/pipeline"
)

// AnalysisJob runs the daily analysis pipeline on schedule.
type AnalysisJob struct {
	pipeline *pipeline.Pipeline
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAnalysisJob creates the daily analysis job.
func NewAnalysisJob(p *pipeline.Pipeline, timeout time.Duration, log zerolog.Logger) *AnalysisJob {
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &AnalysisJob{
		pipeline: p,
		timeout:  timeout,
		log:      log.With().Str("job", "daily_analysis").Logger(),
	}
}

// Run executes a full analysis run. A run already started manually is left
// alone rather than treated as a failure.
func (j *AnalysisJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.pipeline.RunOnce(ctx)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		j.log.Info().Msg("Skipping scheduled run, analysis already in progress")
		return nil
	}
	return err
}

// Name returns the job name.
func (j *AnalysisJob) Name() string {
	return "daily_analysis"
}
