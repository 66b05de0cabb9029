package api

import (
	"time"

	"talkclip/internal/export"
	"talkclip/internal/history"
	"talkclip/internal/status"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	Text string `json:"text"`
}

// Report is the transport form of a status report.
type Report struct {
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	SubKind      string `json:"subKind"`
	SubMessage   string `json:"subMessage,omitempty"`
	Action       string `json:"action,omitempty"`
	ActionTarget string `json:"actionTarget,omitempty"`
	ActionTip    string `json:"actionTip,omitempty"`
}

// ExportResponse answers POST /api/export.
type ExportResponse struct {
	AttemptID  string `json:"attemptId"`
	AudioPath  string `json:"audioPath,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
	Report     Report `json:"report"`
}

// HistoryEntry is one journaled export.
type HistoryEntry struct {
	ID         int64  `json:"id"`
	AttemptID  string `json:"attemptId"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
	Character  string `json:"character,omitempty"`
	Text       string `json:"text,omitempty"`
	AudioPath  string `json:"audioPath,omitempty"`
	Report     Report `json:"report"`
}

// HistoryResponse answers GET /api/history.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	UptimeS int64  `json:"uptimeS"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FromReport converts a status report.
func FromReport(r status.Report) Report {
	out := Report{
		Kind:       r.Kind.String(),
		Message:    r.Message,
		SubKind:    r.SubKind.String(),
		SubMessage: r.SubMessage,
		ActionTip:  r.ActionTip,
	}
	if r.Action != nil {
		out.Action = r.Action.Name
		out.ActionTarget = r.Action.Target
	}
	return out
}

// FromOutcome converts an export outcome.
func FromOutcome(o export.Outcome) ExportResponse {
	return ExportResponse{
		AttemptID:  o.AttemptID,
		AudioPath:  o.AudioPath,
		StartedAt:  formatTime(o.StartedAt),
		FinishedAt: formatTime(o.FinishedAt),
		Report:     FromReport(o.Report),
	}
}

// FromHistory converts journal entries.
func FromHistory(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:         e.ID,
			AttemptID:  e.AttemptID,
			StartedAt:  formatTime(e.StartedAt),
			FinishedAt: formatTime(e.FinishedAt),
			Character:  e.Character,
			Text:       e.Text,
			AudioPath:  e.AudioPath,
			Report:     FromReport(e.Report),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}
