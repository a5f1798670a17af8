package analyses

import "time"

// Analysis is one completed resume evaluation kept for history.
type Analysis struct {
	ID             string
	FileName       string
	JobDescription string
	Result         string
	Model          string
	DurationMs     int64
	CreatedAt      time.Time
}

type analysisResponse struct {
	ID             string    `json:"id"`
	FileName       string    `json:"fileName"`
	JobDescription string    `json:"jobDescription"`
	Result         string    `json:"result"`
	Model          string    `json:"model"`
	DurationMs     int64     `json:"durationMs"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toResponse(a Analysis) analysisResponse {
	return analysisResponse{
		ID:             a.ID,
		FileName:       a.FileName,
		JobDescription: a.JobDescription,
		Result:         a.Result,
		Model:          a.Model,
		DurationMs:     a.DurationMs,
		CreatedAt:      a.CreatedAt,
	}
}
