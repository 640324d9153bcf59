package cluster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct{ a, b Ref }

// stubOracle returns fixed distances per (representative, candidate) pair and
// records every call. Unknown pairs are far apart.
type stubOracle struct {
	distances map[pair]float64
	calls     []pair
}

func (o *stubOracle) Distance(_ context.Context, a, b Ref) float64 {
	o.calls = append(o.calls, pair{a, b})
	if d, ok := o.distances[pair{a, b}]; ok {
		return d
	}
	return 1.0
}

// stubAdjudicator answers per pair, defaulting to no.
type stubAdjudicator struct {
	answers map[pair]bool
	calls   []pair
}

func (s *stubAdjudicator) Adjudicate(_ context.Context, a, b Ref) bool {
	s.calls = append(s.calls, pair{a, b})
	return s.answers[pair{a, b}]
}

type recordingReporter struct {
	fractions []float64
	messages  []string
}

func (r *recordingReporter) Report(fraction float64, message string) {
	r.fractions = append(r.fractions, fraction)
	r.messages = append(r.messages, message)
}

func failing(bad ...Ref) Decoder {
	set := make(map[Ref]bool, len(bad))
	for _, b := range bad {
		set[b] = true
	}
	return DecoderFunc(func(ref Ref) error {
		if set[ref] {
			return errors.New("corrupt")
		}
		return nil
	})
}

func members(r *Result) [][]Ref {
	out := make([][]Ref, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = g.Members()
	}
	return out
}

func TestZone(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		d    float64
		want Zone
	}{
		{0.0, ZoneAccept},
		{0.39, ZoneAccept},
		{0.40, ZoneAmbiguous},
		{0.5, ZoneAmbiguous},
		{0.59, ZoneAmbiguous},
		{0.60, ZoneReject},
		{1.0, ZoneReject},
		{2.0, ZoneReject},
	}

	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, th.Zone(tc.d), "distance %v", tc.d)
		})
	}
}

func TestZoneString(t *testing.T) {
	assert.Equal(t, "accept", ZoneAccept.String())
	assert.Equal(t, "ambiguous", ZoneAmbiguous.String())
	assert.Equal(t, "reject", ZoneReject.String())
	assert.Equal(t, "zone(7)", Zone(7).String())
}

func TestThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name            string
		d               float64
		answer          bool
		wantGroups      int
		wantAdjudicated bool
	}{
		{"0.39 auto accepts", 0.39, false, 1, false},
		{"0.40 asks and accepts", 0.40, true, 1, true},
		{"0.40 asks and rejects", 0.40, false, 2, true},
		{"0.59 asks and accepts", 0.59, true, 1, true},
		{"0.60 rejects without asking", 0.60, true, 2, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			oracle := &stubOracle{distances: map[pair]float64{{"a.jpg", "b.jpg"}: tc.d}}
			adj := &stubAdjudicator{answers: map[pair]bool{{"a.jpg", "b.jpg"}: tc.answer}}

			result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"a.jpg", "b.jpg"})

			assert.Len(t, result.Groups, tc.wantGroups)
			if tc.wantAdjudicated {
				assert.Equal(t, []pair{{"a.jpg", "b.jpg"}}, adj.calls)
			} else {
				assert.Empty(t, adj.calls)
			}
		})
	}
}

func TestScenario_AllCloseFormOneGroup(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"img1", "img2"}: 0.2,
		{"img1", "img3"}: 0.2,
	}}
	adj := &stubAdjudicator{}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"img1", "img2", "img3"})

	assert.Equal(t, [][]Ref{{"img1", "img2", "img3"}}, members(result))
	assert.Empty(t, result.Failures)
	assert.Empty(t, adj.calls)
}

func TestScenario_AmbiguousConfirmed(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"img1", "img2"}: 0.5}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"img1", "img2"}: true}}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"img1", "img2"})

	assert.Equal(t, [][]Ref{{"img1", "img2"}}, members(result))
	assert.Len(t, adj.calls, 1)
}

func TestScenario_AmbiguousDenied(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"img1", "img2"}: 0.5}}
	adj := &stubAdjudicator{}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"img1", "img2"})

	assert.Equal(t, [][]Ref{{"img1"}, {"img2"}}, members(result))
	assert.Len(t, adj.calls, 1)
}

func TestScenario_FarApart(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"img1", "img2"}: 0.8}}
	adj := &stubAdjudicator{}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"img1", "img2"})

	assert.Equal(t, [][]Ref{{"img1"}, {"img2"}}, members(result))
	assert.Empty(t, adj.calls)
}

func TestScenario_CorruptImageIsolated(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"a1", "a2"}: 0.1,
		{"a1", "b1"}: 0.9,
		{"a1", "b2"}: 0.9,
		{"b1", "b2"}: 0.3,
	}}
	adj := &stubAdjudicator{}

	refs := []Ref{"a1", "bad", "a2", "b1", "b2"}
	result := NewAssigner(oracle, adj, Options{Decoder: failing("bad")}).Run(context.Background(), refs)

	assert.Equal(t, []Ref{"bad"}, result.Failures)
	assert.Equal(t, [][]Ref{{"a1", "a2"}, {"b1", "b2"}}, members(result))
	for _, c := range oracle.calls {
		assert.NotEqual(t, Ref("bad"), c.a)
		assert.NotEqual(t, Ref("bad"), c.b)
	}
	assert.Empty(t, adj.calls)
}

func TestDecodeFailureShortCircuit(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"good", "bad"}: 0.5}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"good", "bad"}: true}}

	a := NewAssigner(oracle, adj, Options{Decoder: failing("bad")})
	a.Place(context.Background(), "good")
	placement := a.Place(context.Background(), "bad")

	assert.Equal(t, Placement{Group: -1, Failed: true}, placement)
	assert.Empty(t, oracle.calls)
	assert.Empty(t, adj.calls)
	assert.Equal(t, 1, a.Stats().DecodeFailures)
}

func TestFirstFitNotBestFit(t *testing.T) {
	// c is ambiguous against a and a near-perfect match for b, but a was
	// created first and the adjudicator says yes.
	oracle := &stubOracle{distances: map[pair]float64{
		{"a", "b"}: 0.9,
		{"a", "c"}: 0.45,
		{"b", "c"}: 0.01,
	}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"a", "c"}: true}}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"a", "b", "c"})

	assert.Equal(t, [][]Ref{{"a", "c"}, {"b"}}, members(result))
	assert.Equal(t, []pair{{"a", "b"}, {"a", "c"}}, oracle.calls)
}

func TestDeniedAdjudicationKeepsScanning(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"a", "b"}: 0.9,
		{"a", "c"}: 0.5,
		{"b", "c"}: 0.55,
	}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"b", "c"}: true}}

	result := NewAssigner(oracle, adj, Options{}).Run(context.Background(), []Ref{"a", "b", "c"})

	assert.Equal(t, [][]Ref{{"a"}, {"b", "c"}}, members(result))
	assert.Equal(t, []pair{{"a", "c"}, {"b", "c"}}, adj.calls)
}

func TestAdjudicatorCalledOncePerAmbiguousPair(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"a", "b"}: 0.7,
		{"a", "c"}: 0.45,
		{"b", "c"}: 0.65,
		{"a", "d"}: 0.2,
	}}
	adj := &stubAdjudicator{}

	a := NewAssigner(oracle, adj, Options{})
	a.Run(context.Background(), []Ref{"a", "b", "c", "d"})

	assert.Equal(t, []pair{{"a", "c"}}, adj.calls)
	stats := a.Stats()
	assert.Equal(t, 1, stats.Adjudications)
	assert.Equal(t, 0, stats.Confirmed)
	assert.Equal(t, 1, stats.AutoAccepted)
	assert.Equal(t, 3, stats.NewGroups)
}

func TestOnlyRepresentativesAreCompared(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"a", "b"}: 0.1,
		{"a", "c"}: 0.1,
		{"a", "d"}: 0.1,
	}}

	NewAssigner(oracle, nil, Options{}).Run(context.Background(), []Ref{"a", "b", "c", "d"})

	for _, c := range oracle.calls {
		assert.Equal(t, Ref("a"), c.a, "every comparison must be against the representative")
	}
	assert.Len(t, oracle.calls, 3)
}

func TestRepresentativeStability(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{
		{"rep", "x"}: 0.1,
		{"rep", "y"}: 0.45,
		{"rep", "z"}: 0.3,
	}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"rep", "y"}: true}}

	a := NewAssigner(oracle, adj, Options{})
	a.Place(context.Background(), "rep")
	for _, ref := range []Ref{"x", "y", "z"} {
		a.Place(context.Background(), ref)
		require.Len(t, a.Result().Groups, 1)
		assert.Equal(t, Ref("rep"), a.Result().Groups[0].Representative())
	}
	assert.Equal(t, 4, a.Result().Groups[0].Len())
}

func TestPartitionProperty(t *testing.T) {
	refs := []Ref{"p1", "p2", "bad1", "p3", "p4", "p5", "bad2", "p6"}
	oracle := &stubOracle{distances: map[pair]float64{
		{"p1", "p2"}: 0.45,
		{"p1", "p3"}: 0.3,
		{"p1", "p4"}: 0.5,
		{"p2", "p4"}: 0.1,
		{"p1", "p5"}: 0.58,
		{"p2", "p5"}: 0.42,
		{"p1", "p6"}: 1.2,
		{"p2", "p6"}: 0.4,
	}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"p2", "p6"}: true}}

	result := NewAssigner(oracle, adj, Options{Decoder: failing("bad1", "bad2")}).Run(context.Background(), refs)

	seen := make(map[Ref]int)
	for _, g := range result.Groups {
		require.NotZero(t, g.Len())
		for _, m := range g.Members() {
			seen[m]++
		}
	}
	for _, f := range result.Failures {
		seen[f]++
	}

	assert.Len(t, seen, len(refs))
	for _, ref := range refs {
		assert.Equal(t, 1, seen[ref], "%s must be placed exactly once", ref)
	}
	assert.Equal(t, len(refs), result.Total())
}

func TestProgressReportedPerImage(t *testing.T) {
	reporter := &recordingReporter{}
	oracle := &stubOracle{}

	NewAssigner(oracle, nil, Options{Reporter: reporter, Decoder: failing("b")}).
		Run(context.Background(), []Ref{"a", "b", "c", "d"})

	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1.0}, reporter.fractions)
	assert.Equal(t, "Processing 25%...", reporter.messages[0])
	assert.Equal(t, "Processing 100%...", reporter.messages[3])
}

func TestRunEmpty(t *testing.T) {
	reporter := &recordingReporter{}
	result := NewAssigner(&stubOracle{}, nil, Options{Reporter: reporter}).Run(context.Background(), nil)

	assert.Empty(t, result.Groups)
	assert.Empty(t, result.Failures)
	assert.Empty(t, reporter.fractions)
}

func TestCustomThresholds(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"a", "b"}: 0.45}}
	adj := &stubAdjudicator{}

	a := NewAssigner(oracle, adj, Options{Thresholds: &Thresholds{Accept: 0.5, Reject: 0.7}})
	result := a.Run(context.Background(), []Ref{"a", "b"})

	assert.Equal(t, [][]Ref{{"a", "b"}}, members(result))
	assert.Empty(t, adj.calls)
	assert.Equal(t, Thresholds{Accept: 0.5, Reject: 0.7}, a.Thresholds())
}

func TestZeroThresholdsRejectEveryPair(t *testing.T) {
	oracle := &stubOracle{distances: map[pair]float64{{"a", "b"}: 0.1}}
	adj := &stubAdjudicator{answers: map[pair]bool{{"a", "b"}: true}}

	a := NewAssigner(oracle, adj, Options{Thresholds: &Thresholds{}})
	result := a.Run(context.Background(), []Ref{"a", "b"})

	assert.Equal(t, Thresholds{}, a.Thresholds())
	assert.Equal(t, [][]Ref{{"a"}, {"b"}}, members(result))
	assert.Empty(t, adj.calls)
}

func TestNilThresholdsUseDefaults(t *testing.T) {
	a := NewAssigner(&stubOracle{}, nil, Options{})
	assert.Equal(t, DefaultThresholds(), a.Thresholds())
}

func TestMembersReturnsCopy(t *testing.T) {
	g := newGroup("rep")
	g.add("other")

	m := g.Members()
	m[0] = "changed"

	assert.Equal(t, Ref("rep"), g.Representative())
}

func TestNewGroup(t *testing.T) {
	assert.Nil(t, NewGroup())

	g := NewGroup("rep", "a", "b")
	require.NotNil(t, g)
	assert.Equal(t, Ref("rep"), g.Representative())
	assert.Equal(t, []Ref{"rep", "a", "b"}, g.Members())
	assert.Equal(t, 3, g.Len())
}
