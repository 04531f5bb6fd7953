// Package domain contains core types shared by the relay packages.
package domain

import "strings"

// PromptRequest is the body of a run request.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// Normalize trims the prompt and rejects blank input.
func (r PromptRequest) Normalize() (string, error) {
	p := strings.TrimSpace(r.Prompt)
	if p == "" {
		return "", NewError(KindValidation, "", "Prompt is empty.", nil)
	}
	return p, nil
}

// RunResult is the body of a successful run.
type RunResult struct {
	Output string `json:"output"`
}
