package domain

// ControlKind identifies how a control is drawn in the controls region.
type ControlKind string

const (
	ControlButton      ControlKind = "button"
	ControlSelect      ControlKind = "select"
	ControlToggle      ControlKind = "toggle"
	ControlMenuTrigger ControlKind = "menu-trigger"
)

// Control is one interactive element a card exposes.
type Control struct {
	Kind     ControlKind        `json:"kind"`
	ID       string             `json:"id"`
	Label    string             `json:"label"`
	Value    string             `json:"value"`
	Options  []string           `json:"options,omitempty"`
	OnChange func(value string) `json:"-"`
}

// HeaderBlock is the structural wrapper some sources put around a title and
// its controls. The render pipeline unwraps it into TitleRegion and Controls.
type HeaderBlock struct {
	Title    string    `json:"title"`
	Controls []Control `json:"controls"`
}

// TitleRegion is the clean title element of a card.
type TitleRegion struct {
	Text string `json:"text"`
}

// CardContent is what a content source produces for one render request.
// It only lives until the card markup has been built.
type CardContent struct {
	CardID      string            `json:"cardId"`
	Title       string            `json:"title"`
	BodyMarkup  string            `json:"bodyMarkup"`
	Header      *HeaderBlock      `json:"header,omitempty"`
	TitleRegion *TitleRegion      `json:"titleRegion,omitempty"`
	Controls    []Control         `json:"controls"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Classes     []string          `json:"classes,omitempty"`
}

// Clone returns a deep copy so pipeline steps never share slices or maps
// with their input.
func (c CardContent) Clone() CardContent {
	out := c
	if c.Header != nil {
		h := *c.Header
		h.Controls = cloneControls(c.Header.Controls)
		out.Header = &h
	}
	if c.TitleRegion != nil {
		t := *c.TitleRegion
		out.TitleRegion = &t
	}
	out.Controls = cloneControls(c.Controls)
	if c.Attributes != nil {
		out.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			out.Attributes[k] = v
		}
	}
	if c.Classes != nil {
		out.Classes = append([]string(nil), c.Classes...)
	}
	return out
}

// FindControl returns the control with the given id from the controls region.
func (c CardContent) FindControl(id string) (Control, bool) {
	for _, ctl := range c.Controls {
		if ctl.ID == id {
			return ctl, true
		}
	}
	return Control{}, false
}

func cloneControls(in []Control) []Control {
	if in == nil {
		return nil
	}
	out := make([]Control, len(in))
	for i, ctl := range in {
		out[i] = ctl
		if ctl.Options != nil {
			out[i].Options = append([]string(nil), ctl.Options...)
		}
	}
	return out
}
