package model

// LocationKind is the hierarchy level of a LocationNode.
type LocationKind string

const (
	KindCountry LocationKind = "country"
	KindState   LocationKind = "state"
	KindCity    LocationKind = "city"
)

// LocationNode is one country, state/province or city of the aggregated
// hierarchy. Members holds every person at or below the node.
type LocationNode struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        LocationKind    `json:"type"`
	Coordinates Coordinates     `json:"coordinates"`
	Members     []Person        `json:"friends"`
	Children    []*LocationNode `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (n *LocationNode) IsLeaf() bool { return len(n.Children) == 0 }

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *LocationNode) Walk(fn func(node *LocationNode, parent *LocationNode) bool) {
	n.walk(nil, fn)
}

func (n *LocationNode) walk(parent *LocationNode, fn func(*LocationNode, *LocationNode) bool) {
	if !fn(n, parent) {
		return
	}
	for _, c := range n.Children {
		c.walk(n, fn)
	}
}
