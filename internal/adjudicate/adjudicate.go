// Package adjudicate provides the deciders consulted by the cluster
// assigner when two photos are neither clearly the same person nor clearly
// different people.
package adjudicate

import (
	"context"

	"github.com/kozaktomas/photo-grouper/internal/cluster"
)

var (
	_ cluster.Adjudicator = Fixed(false)
	_ cluster.Adjudicator = (*Terminal)(nil)
	_ cluster.Adjudicator = (*Web)(nil)
	_ cluster.Adjudicator = (*Assisted)(nil)
)

// Fixed answers every question the same way.
type Fixed bool

// Adjudicate returns the fixed answer.
func (f Fixed) Adjudicate(context.Context, cluster.Ref, cluster.Ref) bool {
	return bool(f)
}
