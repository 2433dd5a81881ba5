package locations

import (
	"go.uber.org/zap"

	"github.com/sells-group/friend-map/internal/model"
)

// node is the arena representation of a LocationNode. Children are arena
// indexes so the tree never needs parent pointers.
type node struct {
	id       string
	name     string
	kind     model.LocationKind
	coords   model.Coordinates
	members  []model.Person
	children []int
}

// Builder accumulates people into the location hierarchy. Nodes live in a
// single arena and are indexed by composite key, one index per level.
type Builder struct {
	nodes     []node
	roots     []int
	countries map[string]int
	states    map[string]int
	cities    map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		countries: make(map[string]int),
		states:    make(map[string]int),
		cities:    make(map[string]int),
	}
}

// Aggregate groups people by location and returns the country roots in
// first-seen order. Every person is expected to carry coordinates already.
func Aggregate(people []model.Person) []*model.LocationNode {
	b := NewBuilder()
	for _, p := range people {
		b.Add(p)
	}
	roots := b.Build()

	zap.L().Debug("aggregated locations",
		zap.Int("people", len(people)),
		zap.Int("countries", len(b.countries)),
		zap.Int("states", len(b.states)),
		zap.Int("cities", len(b.cities)),
	)
	return roots
}

// Add inserts a person, creating country, state and city nodes on first use.
func (b *Builder) Add(p model.Person) {
	place := ParsePlace(p.Location)

	country, created := b.lookup(b.countries, place.CountryKey(), place.Country, model.KindCountry, model.Coordinates{})
	if created {
		b.roots = append(b.roots, country)
	}
	parent := country

	state := -1
	if key := place.StateKey(); key != "" {
		state, created = b.lookup(b.states, key, place.State, model.KindState, model.Coordinates{})
		if created {
			b.attach(country, state)
		}
		parent = state
	}

	city := -1
	if key := place.CityKey(); key != "" {
		city, created = b.lookup(b.cities, key, place.City, model.KindCity, p.Point())
		if created {
			b.attach(parent, city)
		}
	}

	for _, idx := range []int{city, state, country} {
		if idx >= 0 {
			b.nodes[idx].members = append(b.nodes[idx].members, p)
		}
	}
}

// lookup returns the arena index for key, creating the node when missing.
func (b *Builder) lookup(index map[string]int, key, name string, kind model.LocationKind, seed model.Coordinates) (int, bool) {
	if idx, ok := index[key]; ok {
		return idx, false
	}
	b.nodes = append(b.nodes, node{id: key, name: name, kind: kind, coords: seed})
	idx := len(b.nodes) - 1
	index[key] = idx
	return idx, true
}

func (b *Builder) attach(parent, child int) {
	b.nodes[parent].children = append(b.nodes[parent].children, child)
}

// Build runs the centroid pass and returns the finished forest. The builder
// can keep accepting people afterwards; a later Build reflects them.
func (b *Builder) Build() []*model.LocationNode {
	for _, r := range b.roots {
		b.centroid(r)
	}
	out := make([]*model.LocationNode, 0, len(b.roots))
	for _, r := range b.roots {
		out = append(out, b.materialize(r))
	}
	return out
}

// centroid sets every non-leaf node to the unweighted mean of its direct
// children, finalizing children first. Leaves keep their seed coordinates.
func (b *Builder) centroid(idx int) model.Coordinates {
	n := &b.nodes[idx]
	if len(n.children) == 0 {
		return n.coords
	}
	var lon, lat float64
	for _, c := range n.children {
		cc := b.centroid(c)
		lon += cc[0]
		lat += cc[1]
	}
	count := float64(len(n.children))
	n.coords = model.Coordinates{lon / count, lat / count}
	return n.coords
}

func (b *Builder) materialize(idx int) *model.LocationNode {
	n := b.nodes[idx]
	out := &model.LocationNode{
		ID:          n.id,
		Name:        n.name,
		Kind:        n.kind,
		Coordinates: n.coords,
		Members:     append(make([]model.Person, 0, len(n.members)), n.members...),
		Children:    make([]*model.LocationNode, 0, len(n.children)),
	}
	for _, c := range n.children {
		out.Children = append(out.Children, b.materialize(c))
	}
	return out
}
