package model

// EnrichedEdge is a single directed link between canonical titles.
type EnrichedEdge struct {
	Source Title `json:"source"`
	Target Title `json:"target"`
}
