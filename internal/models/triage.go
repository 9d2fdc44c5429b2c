package models

import "triage-service/internal/triage"

type TriageRequest struct {
	Description string `json:"description"`
}

type TriageResult struct {
	Category triage.Category `json:"category"`
	Priority triage.Priority `json:"priority"`
}

func NewTriageResult(result triage.Result) TriageResult {
	return TriageResult{
		Category: result.Category,
		Priority: result.Priority,
	}
}
