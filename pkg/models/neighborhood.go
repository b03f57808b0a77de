package models

// Neighborhood is the induced subgraph reachable from a seed node within a
// bounded number of hops: every visited node, and every edge whose both
// endpoints were visited.
type Neighborhood struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}
