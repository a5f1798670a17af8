package analyses

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ats-backend/internal/shared/metrics"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/uploads"
)

// maxEchoRunes caps how much of the extracted resume and job description
// is echoed back in the response. Always a prefix truncation.
const maxEchoRunes = 3000

// Service orchestrates one analysis request: persist the upload under a
// unique temp name, extract text, run the engine, clean up, shape the
// response. No state is shared between requests.
type Service struct {
	Store       *uploads.Store
	ExtractText func(path string) string
	Engine      *Engine
	Repo        Repo
	Model       string
}

// Result is the response payload for a completed analysis.
type Result struct {
	ParsedResume         string `json:"parsed_resume"`
	ParsedJobDescription string `json:"parsed_job_description"`
	ATSResult            string `json:"ats_result"`
}

// Analyze runs the full pipeline. The saved temp file is removed on every
// exit path, including panics unwinding through the deferred cleanup.
func (s *Service) Analyze(ctx context.Context, fileName string, file io.Reader, jobDescription string) (Result, error) {
	started := time.Now()
	metrics.IncAnalysisStarted()

	path, size, err := s.Store.Save(ctx, file)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Result{}, fmt.Errorf("save resume: %w", err)
	}
	defer s.Store.Remove(path)

	resumeText := s.ExtractText(path)
	if resumeText == "" {
		metrics.IncAnalysisFailed()
		return Result{}, ErrNoExtractableText
	}

	telemetry.Info("analyses.extracted", map[string]any{
		"file_name":  fileName,
		"size_bytes": size,
		"text_chars": len(resumeText),
	})

	atsResult := s.Engine.Run(ctx, resumeText, jobDescription)
	s.record(ctx, fileName, jobDescription, atsResult, started)

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))

	return Result{
		ParsedResume:         truncateRunes(resumeText, maxEchoRunes),
		ParsedJobDescription: truncateRunes(jobDescription, maxEchoRunes),
		ATSResult:            atsResult,
	}, nil
}

// record persists the completed analysis. Failures are logged and never
// fail the request.
func (s *Service) record(ctx context.Context, fileName, jobDescription, result string, started time.Time) {
	if s.Repo == nil {
		return
	}
	analysis := Analysis{
		ID:             uuid.NewString(),
		FileName:       fileName,
		JobDescription: truncateRunes(jobDescription, maxEchoRunes),
		Result:         result,
		Model:          s.Model,
		DurationMs:     time.Since(started).Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		telemetry.Error("analyses.history_insert_failed", map[string]any{
			"analysis_id": analysis.ID,
			"err":         err.Error(),
		})
	}
}

// truncateRunes keeps the first n code points so multi-byte text is never
// split mid-character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
