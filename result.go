package mxprobe

import "github.com/optimode/mxprobe/types"

// Summary counts results by status.
type Summary struct {
	Total        int `json:"total"`
	Valid        int `json:"valid"`
	Invalid      int `json:"invalid"`
	Undetermined int `json:"undetermined"`
}

// Summarize counts results by status.
func Summarize(results []types.VerificationResult) Summary {
	var s Summary
	for _, r := range results {
		s.add(r)
	}
	return s
}

func (s *Summary) add(r types.VerificationResult) {
	s.Total++
	switch r.Status {
	case types.StatusValid:
		s.Valid++
	case types.StatusInvalid:
		s.Invalid++
	default:
		s.Undetermined++
	}
}

// Filter returns the results with the given status, in their original order.
func Filter(results []types.VerificationResult, status types.Status) []types.VerificationResult {
	var out []types.VerificationResult
	for _, r := range results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
