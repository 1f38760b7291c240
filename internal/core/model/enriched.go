package model

// TimestampLayout is the format of the timestamp field in exported metadata.
const TimestampLayout = "2006-01-02 15:04:05"

type Metadata struct {
	TotalNodes        int    `json:"total_nodes"`
	ExistingNodes     int    `json:"existing_nodes"`
	MissingNodes      int    `json:"missing_nodes"`
	TotalEdges        int    `json:"total_edges"`
	RedirectsResolved int    `json:"redirects_resolved"`
	Timestamp         string `json:"timestamp"`
}

// EnrichedGraph is the artifact consumed by the visualization frontend.
type EnrichedGraph struct {
	Metadata Metadata       `json:"metadata"`
	Nodes    []EnrichedNode `json:"nodes"`
	Edges    []EnrichedEdge `json:"edges"`
}

type LegacyMetadata struct {
	TotalNodes int    `json:"total_nodes"`
	TotalEdges int    `json:"total_edges"`
	Timestamp  string `json:"timestamp"`
}

// LegacyGraph is the adjacency-list export kept for older consumers.
type LegacyGraph struct {
	Metadata LegacyMetadata    `json:"metadata"`
	Graph    map[Title][]Title `json:"graph"`
}
