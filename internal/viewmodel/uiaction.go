package viewmodel

// Named UI actions understood by the host.
const (
	ActionBack        = "Back"
	ActionNew         = "New"
	ActionOpen        = "Open"
	ActionClearFilter = "ClearFilter"
	ActionSaved       = "Saved"
	ActionDeleted     = "Deleted"
	ActionReload      = "Reload"
	ActionNotify      = "Notify"
	ActionEditField   = "EditField"
)

type PanelPosition int

const (
	AfterRibbon PanelPosition = iota
	AfterCard
)

func (p PanelPosition) String() string {
	if p == AfterCard {
		return "AfterCard"
	}
	return "AfterRibbon"
}

// Overlay asks the host to open a modal component.
type Overlay struct {
	Component  string
	Parameters map[string]any
}

// Panel asks the host to render an embedded view model at a position.
type Panel struct {
	Position   PanelPosition
	Component  string
	Child      ViewModel
	Parameters map[string]any
}

// UIAction is a request from a view model to its host. Exactly one of Name,
// Overlay and Panel is expected to be set.
type UIAction struct {
	Name    string
	Payload any
	Overlay *Overlay
	Panel   *Panel
}

func Named(name string, payload any) UIAction {
	return UIAction{Name: name, Payload: payload}
}

func ShowOverlay(component string, params map[string]any) UIAction {
	return UIAction{Overlay: &Overlay{Component: component, Parameters: params}}
}

func ShowPanel(pos PanelPosition, component string, child ViewModel) UIAction {
	return UIAction{Panel: &Panel{Position: pos, Component: component, Child: child}}
}

// PayloadString returns the payload when it is a string.
func (a UIAction) PayloadString() string {
	s, _ := a.Payload.(string)
	return s
}
