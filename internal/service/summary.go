package service

import "github.com/pulsecheck/backend/internal/models"

// RunSummary aggregates the outcome of a batch run for persistence on the
// analysis_runs row.
type RunSummary struct {
	Total            int `json:"total"`
	Success          int `json:"success"`
	InsufficientData int `json:"insufficient_data"`
	Errors           int `json:"errors"`
}

func SummarizeResults(results []models.AnalysisResult) RunSummary {
	s := RunSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case models.StatusSuccess:
			s.Success++
		case models.StatusInsufficientData:
			s.InsufficientData++
		default:
			s.Errors++
		}
	}
	return s
}
