package locations

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/friend-map/internal/model"
)

// Filter returns a pruned copy of roots holding only people whose name,
// handle or location contains query, ignoring case. Matching happens at the
// leaves: surviving non-leaf nodes keep their filtered children but no
// members, and nodes left with neither are dropped. An empty query returns
// roots as-is.
func Filter(roots []*model.LocationNode, query string) []*model.LocationNode {
	if query == "" {
		return roots
	}
	fold := cases.Fold()
	return filterNodes(roots, fold.String(query), fold)
}

func filterNodes(nodes []*model.LocationNode, needle string, fold cases.Caser) []*model.LocationNode {
	out := make([]*model.LocationNode, 0, len(nodes))
	for _, n := range nodes {
		cp := *n
		if !n.IsLeaf() {
			cp.Children = filterNodes(n.Children, needle, fold)
			cp.Members = []model.Person{}
		} else {
			cp.Children = []*model.LocationNode{}
			cp.Members = make([]model.Person, 0, len(n.Members))
			for _, p := range n.Members {
				if matches(p, needle, fold) {
					cp.Members = append(cp.Members, p)
				}
			}
		}
		if len(cp.Children) > 0 || len(cp.Members) > 0 {
			out = append(out, &cp)
		}
	}
	return out
}

func matches(p model.Person, needle string, fold cases.Caser) bool {
	for _, field := range []string{p.Name, p.Handle, p.Location} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

// Summary counts the people and nodes of a hierarchy.
type Summary struct {
	People    int `json:"people"`
	Countries int `json:"countries"`
	States    int `json:"states"`
	Cities    int `json:"cities"`
}

// Summarize counts people across roots and nodes per level.
func Summarize(roots []*model.LocationNode) Summary {
	var s Summary
	for _, r := range roots {
		s.People += len(r.Members)
		r.Walk(func(n, _ *model.LocationNode) bool {
			switch n.Kind {
			case model.KindCountry:
				s.Countries++
			case model.KindState:
				s.States++
			case model.KindCity:
				s.Cities++
			}
			return true
		})
	}
	return s
}
