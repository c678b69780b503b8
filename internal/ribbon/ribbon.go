// Package ribbon describes the contextual toolbar of a screen: registers hold
// tabs, tabs hold actions.
package ribbon

import (
	"cmp"
	"context"
	"io"
	"slices"
)

// Kind groups registers by purpose.
type Kind int

const (
	QuickAccess Kind = iota
	Actions
	LinkedInfo
	Reports
	Custom
)

func (k Kind) String() string {
	switch k {
	case QuickAccess:
		return "QuickAccess"
	case Actions:
		return "Actions"
	case LinkedInfo:
		return "LinkedInfo"
	case Reports:
		return "Reports"
	default:
		return "Custom"
	}
}

// Size is the rendered size of an action button.
type Size int

const (
	Small Size = iota
	Large
)

// Action is one toolbar entry. Values are immutable once built.
type Action struct {
	ID       string
	Label    string
	Icon     string
	Size     Size
	Disabled bool
	Tooltip  string
	Callback func(ctx context.Context) error
	// FileCallback is set for actions that take a file from the host.
	FileCallback func(ctx context.Context, r io.Reader, fileName, contentType string) error
}

// Action returns the ID. Kept for callers that still address actions by name.
func (a Action) Action() string { return a.ID }

// AcceptsFile reports whether the host should ask for a file before invoking.
func (a Action) AcceptsFile() bool { return a.FileCallback != nil }

// Invoke runs the callback unless the action is disabled.
func (a Action) Invoke(ctx context.Context) error {
	if a.Disabled || a.Callback == nil {
		return nil
	}
	return a.Callback(ctx)
}

// InvokeFile runs the file callback unless the action is disabled.
func (a Action) InvokeFile(ctx context.Context, r io.Reader, fileName, contentType string) error {
	if a.Disabled || a.FileCallback == nil {
		return nil
	}
	return a.FileCallback(ctx, r, fileName, contentType)
}

// Tab groups actions under a title.
type Tab struct {
	Title   string
	Actions []Action
	Sort    int
}

// Register is the top-level grouping returned by a view model.
type Register struct {
	Kind Kind
	Tabs []Tab
}

// NewRegister builds a register from tabs.
func NewRegister(kind Kind, tabs ...Tab) Register {
	return Register{Kind: kind, Tabs: tabs}
}

// NewTab builds a tab from actions.
func NewTab(title string, sort int, actions ...Action) Tab {
	return Tab{Title: title, Sort: sort, Actions: actions}
}

// Merge folds registers of the same kind together, keeping first-seen kind order
// and sorting tabs by Sort then title. Tabs with the same title are concatenated.
func Merge(registers []Register) []Register {
	if len(registers) == 0 {
		return nil
	}
	var order []Kind
	byKind := map[Kind][]Tab{}
	for _, r := range registers {
		if _, ok := byKind[r.Kind]; !ok {
			order = append(order, r.Kind)
			byKind[r.Kind] = nil
		}
		for _, t := range r.Tabs {
			merged := false
			for i := range byKind[r.Kind] {
				if byKind[r.Kind][i].Title == t.Title {
					byKind[r.Kind][i].Actions = append(slices.Clone(byKind[r.Kind][i].Actions), t.Actions...)
					merged = true
					break
				}
			}
			if !merged {
				byKind[r.Kind] = append(byKind[r.Kind], Tab{Title: t.Title, Sort: t.Sort, Actions: slices.Clone(t.Actions)})
			}
		}
	}
	out := make([]Register, 0, len(order))
	for _, k := range order {
		tabs := byKind[k]
		slices.SortStableFunc(tabs, func(a, b Tab) int {
			if c := cmp.Compare(a.Sort, b.Sort); c != 0 {
				return c
			}
			return cmp.Compare(a.Title, b.Title)
		})
		out = append(out, Register{Kind: k, Tabs: tabs})
	}
	return out
}

// Flatten lists every action in register/tab order.
func Flatten(registers []Register) []Action {
	var out []Action
	for _, r := range registers {
		for _, t := range r.Tabs {
			out = append(out, t.Actions...)
		}
	}
	return out
}

// Find returns the first action with the given id.
func Find(registers []Register, id string) (Action, bool) {
	for _, a := range Flatten(registers) {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}
