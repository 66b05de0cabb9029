// Package timeline registers saved audio in the timeline tool by driving its
// UI through an accessibility bridge.
package timeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrProcessNotFound means the tool (or the bridge) is not running.
	ErrProcessNotFound = errors.New("process not found")
	// ErrElementNotFound means no element matched the conditions.
	ErrElementNotFound = errors.New("element not found")
)

// Property is an element property conditions match against.
type Property string

const (
	PropControlType  Property = "control_type"
	PropClassName    Property = "class_name"
	PropAutomationID Property = "automation_id"
	PropName         Property = "name"
)

// Control types used by the driver.
const (
	ControlWindow   = "window"
	ControlListItem = "list_item"
)

// Condition matches one property exactly, or by prefix.
type Condition struct {
	Property Property `json:"property"`
	Value    string   `json:"value"`
	Prefix   bool     `json:"prefix,omitempty"`
}

func (c Condition) String() string {
	op := "="
	if c.Prefix {
		op = "^="
	}
	return fmt.Sprintf("%s%s%q", c.Property, op, c.Value)
}

// Element is a UI element of the target process.
type Element interface {
	FindChild(ctx context.Context, conds ...Condition) (Element, error)
	FindChildren(ctx context.Context, conds ...Condition) ([]Element, error)
	SetValue(ctx context.Context, value string) error
	Expand(ctx context.Context) error
	Collapse(ctx context.Context) error
	Select(ctx context.Context) error
	Invoke(ctx context.Context) error
}

// Process is an attached target process.
type Process interface {
	InputIdle(ctx context.Context) (bool, error)
	MainWindow(ctx context.Context) (Element, error)
	// TopLevelWindow searches the desktop for a window owned by the process.
	TopLevelWindow(ctx context.Context, conds ...Condition) (Element, error)
}

// Desktop locates processes.
type Desktop interface {
	FindProcess(ctx context.Context, name string) (Process, error)
}
