// Package cluster implements the single-pass face grouping engine.
//
// Every image is compared only against the representative (first member) of
// each existing group, in group creation order. The first group whose
// representative is close enough wins; there is no best-fit search, no
// centroid and no reassignment once an image has been placed.
package cluster

// Ref identifies a source photo by its path.
type Ref string

// Group is an ordered, non-empty list of photos of one person.
// The first member is the representative and never changes.
type Group struct {
	members []Ref
}

func newGroup(rep Ref) *Group {
	return &Group{members: []Ref{rep}}
}

// NewGroup builds a group from already decided members. The first member is
// the representative. It returns nil when no members are given.
func NewGroup(members ...Ref) *Group {
	if len(members) == 0 {
		return nil
	}
	g := newGroup(members[0])
	g.members = append(g.members, members[1:]...)
	return g
}

// Representative returns the photo every candidate is compared against.
func (g *Group) Representative() Ref {
	return g.members[0]
}

// Members returns a copy of the group's photos in insertion order.
func (g *Group) Members() []Ref {
	out := make([]Ref, len(g.members))
	copy(out, g.members)
	return out
}

// Len returns the number of photos in the group.
func (g *Group) Len() int {
	return len(g.members)
}

func (g *Group) add(ref Ref) {
	g.members = append(g.members, ref)
}

// Result is the final state of one run: groups in creation order plus the
// photos that could not be decoded.
type Result struct {
	Groups   []*Group
	Failures []Ref
}

// Total returns the number of photos accounted for by the result.
func (r *Result) Total() int {
	n := len(r.Failures)
	for _, g := range r.Groups {
		n += g.Len()
	}
	return n
}

// Stats counts what happened during a run.
type Stats struct {
	Processed      int
	DecodeFailures int
	Comparisons    int
	AutoAccepted   int
	Adjudications  int
	Confirmed      int
	NewGroups      int
}
