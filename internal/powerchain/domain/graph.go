package powerchain

// Node is one device in a power chain payload.
type Node struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	// Level is the signed hop distance from the start device: negative
	// upstream, positive downstream.
	Level int    `json:"level"`
	Group string `json:"group,omitempty"`
}

// Edge is one connection, oriented source to target as stored.
type Edge struct {
	ID     int64  `json:"id"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	Arrows string `json:"arrows"`
	Label  string `json:"label"`
	Title  string `json:"title,omitempty"`
}

// Graph is the traversal result handed to visualization clients.
type Graph struct {
	Start int64  `json:"start"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
