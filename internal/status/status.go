// Package status defines the single report an export attempt produces.
package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a status message slot.
type Kind int

const (
	KindNone Kind = iota
	KindSuccess
	KindFail
	KindInformation
	KindWarning
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindSuccess:     "success",
	KindFail:        "fail",
	KindInformation: "information",
	KindWarning:     "warning",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its value.
func ParseKind(value string) (Kind, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for kind, name := range kindNames {
		if name == value {
			return kind, nil
		}
	}
	return KindNone, fmt.Errorf("unknown status kind %q", value)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ActionOpenFolder reveals the saved audio file in its folder.
const ActionOpenFolder = "open-folder"

// Action is an optional follow-up offered alongside the secondary message.
type Action struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// Report is the only observable result of one export attempt.
type Report struct {
	Kind       Kind    `json:"kind"`
	Message    string  `json:"message"`
	SubKind    Kind    `json:"sub_kind"`
	SubMessage string  `json:"sub_message,omitempty"`
	Action     *Action `json:"action,omitempty"`
	ActionTip  string  `json:"action_tip,omitempty"`
}

// Fail builds a failure report with an optional secondary message.
func Fail(message string, subKind Kind, subMessage string) Report {
	if strings.TrimSpace(subMessage) == "" {
		subKind = KindNone
	}
	return Report{Kind: KindFail, Message: message, SubKind: subKind, SubMessage: subMessage}
}

// Succeeded reports whether the primary outcome is a success.
func (r Report) Succeeded() bool {
	return r.Kind == KindSuccess
}

// HasWarning reports whether the secondary slot carries a warning or failure.
func (r Report) HasWarning() bool {
	return r.SubKind == KindWarning || r.SubKind == KindFail
}

func (r Report) String() string {
	var b strings.Builder
	b.WriteString(r.Kind.String())
	if r.Message != "" {
		b.WriteString(": ")
		b.WriteString(r.Message)
	}
	if r.SubKind != KindNone || r.SubMessage != "" {
		b.WriteString(" (")
		b.WriteString(r.SubKind.String())
		if r.SubMessage != "" {
			b.WriteString(": ")
			b.WriteString(r.SubMessage)
		}
		b.WriteString(")")
	}
	return b.String()
}
