package domain

// RenderedCard is one card ready for the hosting page: its geometry plus the
// final markup produced by the render pipeline.
type RenderedCard struct {
	Placement CardPlacement `json:"placement"`
	Title     string        `json:"title"`
	Markup    string        `json:"markup"`
}

// DashboardState represents the complete state of the dashboard for rendering.
// Returned to the frontend to paint the full grid.
type DashboardState struct {
	Spec     GridSpec       `json:"spec"`
	Cards    []RenderedCard `json:"cards"`
	OpenMenu string         `json:"openMenu"`
	Unplaced []string       `json:"unplaced,omitempty"`
}
