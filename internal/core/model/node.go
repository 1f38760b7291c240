package model

// Classification tells a canonical page from a confirmed missing one.
type Classification string

const (
	ClassCanonical Classification = "canonical"
	ClassMissing   Classification = "missing"
)

type EnrichedNode struct {
	ID             Title          `json:"id"`
	Label          string         `json:"label"`
	Exists         bool           `json:"exists"`
	Aliases        []Title        `json:"aliases"`
	Classification Classification `json:"type"`
}
