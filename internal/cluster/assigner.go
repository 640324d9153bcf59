package cluster

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Oracle returns the face distance between two photos. It must never fail:
// photos that cannot be compared get a distance in the reject zone.
type Oracle interface {
	Distance(ctx context.Context, a, b Ref) float64
}

// Adjudicator decides whether two photos show the same person. It is only
// consulted for ambiguous distances and may block for as long as it needs.
type Adjudicator interface {
	Adjudicate(ctx context.Context, a, b Ref) bool
}

// Decoder reports whether a photo can be loaded as pixel data.
type Decoder interface {
	Decode(ref Ref) error
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ref Ref) error

func (f DecoderFunc) Decode(ref Ref) error { return f(ref) }

// Reporter receives progress after every processed photo.
type Reporter interface {
	Report(fraction float64, message string)
}

// Options configures an Assigner. Zero values fall back to defaults.
type Options struct {
	Thresholds *Thresholds // nil uses DefaultThresholds(); a zero value is a real setting
	Decoder    Decoder    // nil treats every photo as decodable
	Reporter   Reporter   // nil disables progress reporting
	Logger     *zap.Logger
}

// Placement describes where a single photo ended up.
type Placement struct {
	Group    int  // 0-based group index, -1 for decode failures
	NewGroup bool // the photo became the representative of a new group
	Failed   bool // the photo could not be decoded
}

// Assigner holds the evolving groups of one run. It is not safe for
// concurrent use: photos are placed one at a time.
type Assigner struct {
	oracle      Oracle
	adjudicator Adjudicator
	decoder     Decoder
	reporter    Reporter
	thresholds  Thresholds
	logger      *zap.Logger

	groups   []*Group
	failures []Ref
	stats    Stats
}

// NewAssigner creates an Assigner with no groups. A nil adjudicator treats
// every ambiguous pair as two different people.
func NewAssigner(oracle Oracle, adjudicator Adjudicator, opts Options) *Assigner {
	a := &Assigner{
		oracle:      oracle,
		adjudicator: adjudicator,
		decoder:     opts.Decoder,
		reporter:    opts.Reporter,
		thresholds:  DefaultThresholds(),
		logger:      opts.Logger,
	}
	if opts.Thresholds != nil {
		a.thresholds = *opts.Thresholds
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Run places every photo in order and returns the final result. Progress is
// reported after each photo, decode failures included.
func (a *Assigner) Run(ctx context.Context, refs []Ref) *Result {
	total := len(refs)
	for i, ref := range refs {
		a.Place(ctx, ref)

		if a.reporter != nil {
			fraction := float64(i+1) / float64(total)
			a.reporter.Report(fraction, fmt.Sprintf("Processing %d%%...", int(fraction*100)))
		}
	}
	return a.Result()
}

// Place decides the group of a single photo.
func (a *Assigner) Place(ctx context.Context, ref Ref) Placement {
	a.stats.Processed++

	if a.decoder != nil {
		if err := a.decoder.Decode(ref); err != nil {
			a.logger.Info("image could not be decoded", zap.String("image", string(ref)), zap.Error(err))
			a.failures = append(a.failures, ref)
			a.stats.DecodeFailures++
			return Placement{Group: -1, Failed: true}
		}
	}

	for i, g := range a.groups {
		rep := g.Representative()
		d := a.oracle.Distance(ctx, rep, ref)
		a.stats.Comparisons++

		zone := a.thresholds.Zone(d)
		a.logger.Debug("compared with group",
			zap.String("image", string(ref)),
			zap.String("representative", string(rep)),
			zap.Int("group", i+1),
			zap.Float64("distance", d),
			zap.Stringer("zone", zone),
		)

		switch zone {
		case ZoneAccept:
			g.add(ref)
			a.stats.AutoAccepted++
			return Placement{Group: i}
		case ZoneAmbiguous:
			if a.adjudicator == nil {
				continue
			}
			a.stats.Adjudications++
			if a.adjudicator.Adjudicate(ctx, rep, ref) {
				g.add(ref)
				a.stats.Confirmed++
				return Placement{Group: i}
			}
		case ZoneReject:
		}
	}

	a.groups = append(a.groups, newGroup(ref))
	a.stats.NewGroups++
	return Placement{Group: len(a.groups) - 1, NewGroup: true}
}

// Result returns the current groups and failures. The slices are copies but
// the groups are shared with the Assigner.
func (a *Assigner) Result() *Result {
	groups := make([]*Group, len(a.groups))
	copy(groups, a.groups)
	failures := make([]Ref, len(a.failures))
	copy(failures, a.failures)
	return &Result{Groups: groups, Failures: failures}
}

// Stats returns the counters collected so far.
func (a *Assigner) Stats() Stats {
	return a.stats
}

// Thresholds returns the thresholds in use.
func (a *Assigner) Thresholds() Thresholds {
	return a.thresholds
}
