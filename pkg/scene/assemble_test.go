package scene

import (
	"strings"
	"testing"

	"github.com/matzehuels/formulagraph/pkg/graph"
)

var testDomains = []graph.Domain{
	{ID: "a", Name: "Physics"},
	{ID: "b", Name: "Economics"},
	{ID: "c", Name: "Biology"},
}

func testFormulas() []graph.Formula {
	return []graph.Formula{
		{ID: "f1", Principle: "first principle", Reference: "Book One", DomainIDs: []string{"a", "b"}},
		{ID: "f2", Principle: "second principle", DomainIDs: []string{"b"}},
		{ID: "f3", Principle: "third principle", DomainIDs: nil},
	}
}

func TestAssembleFormulasEmpty(t *testing.T) {
	s := AssembleFormulas(nil, nil, nil, Params{})
	if !s.Empty() {
		t.Error("empty input should produce an empty scene")
	}
	if s.Annotation != NoDataAnnotation {
		t.Errorf("annotation = %q, want %q", s.Annotation, NoDataAnnotation)
	}
}

func TestDomainFilter(t *testing.T) {
	formulas := testFormulas()
	edges := graph.BuildEdges(formulas)

	s := AssembleFormulas(formulas, testDomains, edges, Params{SelectedDomains: []string{"a"}})
	if len(s.Markers) != 1 {
		t.Fatalf("got %d markers, want 1", len(s.Markers))
	}
	if s.Markers[0].ID != "f1" {
		t.Errorf("survivor = %s, want f1", s.Markers[0].ID)
	}
	// No edges survive: f2 was filtered out.
	if len(s.Lines) != 0 {
		t.Errorf("got %d lines, want 0", len(s.Lines))
	}
}

func TestMinCountFilter(t *testing.T) {
	formulas := testFormulas()
	edges := graph.BuildEdges(formulas)

	// f1 and f2 share domain b (degree 1 each); f3 is isolated.
	s := AssembleFormulas(formulas, testDomains, edges, Params{MinCount: 1})
	if len(s.Markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(s.Markers))
	}
	ids := map[string]bool{}
	for _, m := range s.Markers {
		ids[m.ID] = true
	}
	if !ids["f1"] || !ids["f2"] {
		t.Errorf("survivors = %v, want f1 and f2", ids)
	}
}

func TestFilterToNothingYieldsPlaceholder(t *testing.T) {
	formulas := testFormulas()

	s := AssembleFormulas(formulas, testDomains, nil, Params{MinCount: 99})
	if !s.Empty() {
		t.Error("over-filtered scene should carry no primitives")
	}
	if s.Annotation != NoDataAnnotation {
		t.Errorf("annotation = %q, want %q", s.Annotation, NoDataAnnotation)
	}
}

func TestCrossDomainOnly(t *testing.T) {
	formulas := []graph.Formula{
		{ID: "f1", Principle: "p1", DomainIDs: []string{"a", "b"}}, // primary a
		{ID: "f2", Principle: "p2", DomainIDs: []string{"b"}},      // primary b
		{ID: "f4", Principle: "p4", DomainIDs: []string{"b"}},      // primary b
	}
	edges := graph.BuildEdges(formulas)

	all := AssembleFormulas(formulas, testDomains, edges, Params{})
	if len(all.Lines) != 3 {
		t.Fatalf("got %d lines before cross-domain filter, want 3", len(all.Lines))
	}

	cross := AssembleFormulas(formulas, testDomains, edges, Params{CrossDomainOnly: true})
	// f1-f2 and f1-f4 cross primary domains; f2-f4 share primary b and drops.
	if len(cross.Lines) != 2 {
		t.Errorf("got %d lines with cross-domain filter, want 2", len(cross.Lines))
	}
}

func TestMarkerSizing(t *testing.T) {
	// f1 has degree 2, f2 and f3 degree 1 → f1 max size, others in range.
	formulas := []graph.Formula{
		{ID: "f1", Principle: "hub", DomainIDs: []string{"a", "b", "c"}},
		{ID: "f2", Principle: "leaf", DomainIDs: []string{"b"}},
		{ID: "f3", Principle: "leaf", DomainIDs: []string{"c"}},
	}
	edges := graph.BuildEdges(formulas)

	s := AssembleFormulas(formulas, testDomains, edges, Params{})
	sizes := map[string]float64{}
	for _, m := range s.Markers {
		if m.Size < MinMarkerSize || m.Size > MaxMarkerSize {
			t.Errorf("marker %s size %v outside [%v, %v]", m.ID, m.Size, MinMarkerSize, MaxMarkerSize)
		}
		sizes[m.ID] = m.Size
	}
	if sizes["f1"] != MaxMarkerSize {
		t.Errorf("hub size = %v, want %v", sizes["f1"], MaxMarkerSize)
	}
	if sizes["f2"] >= sizes["f1"] {
		t.Error("larger metric must not receive a smaller size")
	}
}

func TestZeroMetricGuard(t *testing.T) {
	// No edges at all: every node gets the minimum size, no division by zero.
	formulas := testFormulas()
	s := AssembleFormulas(formulas, testDomains, nil, Params{})
	for _, m := range s.Markers {
		if m.Size != MinMarkerSize {
			t.Errorf("marker %s size = %v, want %v", m.ID, m.Size, MinMarkerSize)
		}
	}
}

func TestNodeColors(t *testing.T) {
	formulas := testFormulas()
	lookup := graph.BuildLookup(testDomains)

	s := AssembleFormulas(formulas, testDomains, nil, Params{})
	colors := map[string]string{}
	for _, m := range s.Markers {
		colors[m.ID] = m.Color
	}
	if colors["f1"] != lookup["a"].Color {
		t.Errorf("f1 color = %s, want primary domain color %s", colors["f1"], lookup["a"].Color)
	}
	if colors["f3"] != graph.NeutralColor {
		t.Errorf("f3 color = %s, want neutral %s", colors["f3"], graph.NeutralColor)
	}
}

func TestEdgeWidthClamp(t *testing.T) {
	formulas := []graph.Formula{
		{ID: "f1", Principle: "p", DomainIDs: []string{"a", "b", "c", "d", "e"}},
		{ID: "f2", Principle: "q", DomainIDs: []string{"a", "b", "c", "d", "e"}},
	}
	domains := []graph.Domain{
		{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"},
		{ID: "d", Name: "D"}, {ID: "e", Name: "E"},
	}
	edges := graph.BuildEdges(formulas) // weight 5 → 7.5 clamps to 6

	s := AssembleFormulas(formulas, domains, edges, Params{})
	if len(s.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(s.Lines))
	}
	if s.Lines[0].Width != MaxEdgeWidth {
		t.Errorf("width = %v, want clamped %v", s.Lines[0].Width, MaxEdgeWidth)
	}
	if s.Lines[0].Opacity != EdgeOpacity {
		t.Errorf("opacity = %v, want %v", s.Lines[0].Opacity, EdgeOpacity)
	}
}

func TestHoverText(t *testing.T) {
	formulas := testFormulas()
	edges := graph.BuildEdges(formulas)

	s := AssembleFormulas(formulas, testDomains, edges, Params{})
	hovers := map[string]string{}
	for _, m := range s.Markers {
		hovers[m.ID] = m.Hover
	}

	if !strings.Contains(hovers["f1"], "Physics, Economics") {
		t.Errorf("f1 hover missing resolved domains: %q", hovers["f1"])
	}
	if !strings.Contains(hovers["f1"], "Reference: Book One") {
		t.Errorf("f1 hover missing reference: %q", hovers["f1"])
	}
	if !strings.Contains(hovers["f2"], "Reference: N/A") {
		t.Errorf("f2 hover missing N/A sentinel: %q", hovers["f2"])
	}
	if !strings.Contains(hovers["f3"], "Domains: None") {
		t.Errorf("f3 hover missing None: %q", hovers["f3"])
	}
	if !strings.Contains(hovers["f1"], "Connections: 1") {
		t.Errorf("f1 hover missing count: %q", hovers["f1"])
	}
}

func TestLegend(t *testing.T) {
	formulas := testFormulas()

	// No domain filter: every domain appears.
	s := AssembleFormulas(formulas, testDomains, nil, Params{})
	if len(s.Legend) != 3 {
		t.Fatalf("got %d legend entries, want 3", len(s.Legend))
	}
	if s.Legend[0].Label != "Physics" {
		t.Errorf("legend[0] = %s, want input order", s.Legend[0].Label)
	}

	// With a domain filter only domains with surviving nodes appear.
	s = AssembleFormulas(formulas, testDomains, nil, Params{SelectedDomains: []string{"a"}})
	if len(s.Legend) != 2 {
		t.Fatalf("got %d legend entries, want 2 (a and b via f1)", len(s.Legend))
	}
}

func TestEdgesDrawnBeforeMarkers(t *testing.T) {
	formulas := testFormulas()
	edges := graph.BuildEdges(formulas)

	s := AssembleFormulas(formulas, testDomains, edges, Params{})
	if len(s.Lines) == 0 || len(s.Markers) == 0 {
		t.Fatal("expected both lines and markers")
	}
	// Ordering is structural: the scene type separates lines from markers and
	// sinks emit lines first. Assert both populated on the same scene.
}

func TestDanglingDomainTolerated(t *testing.T) {
	formulas := []graph.Formula{
		{ID: "f1", Principle: "p", DomainIDs: []string{"ghost", "a"}},
	}
	s := AssembleFormulas(formulas, testDomains, nil, Params{})
	if len(s.Markers) != 1 {
		t.Fatalf("got %d markers, want 1", len(s.Markers))
	}
	// Primary domain "ghost" is not in the lookup → neutral color, no error.
	if s.Markers[0].Color != graph.NeutralColor {
		t.Errorf("color = %s, want neutral for dangling primary", s.Markers[0].Color)
	}
	if !strings.Contains(s.Markers[0].Hover, "Domains: Physics") {
		t.Errorf("hover should resolve only known domains: %q", s.Markers[0].Hover)
	}
}

func TestAssembleReplicas(t *testing.T) {
	formulas := []graph.Formula{
		{ID: "f1", Principle: "spanning", DomainIDs: []string{"a", "b", "c"}},
	}
	rows := graph.BuildReplicaRows(formulas)

	s := AssembleReplicas(rows, testDomains, Params{})
	// One replica per (principle, domain).
	if len(s.Markers) != 3 {
		t.Fatalf("got %d markers, want 3", len(s.Markers))
	}
	// One edge per pair row.
	if len(s.Lines) != 3 {
		t.Errorf("got %d lines, want 3", len(s.Lines))
	}
	for _, m := range s.Markers {
		if !strings.Contains(m.Hover, "Domains: 3") {
			t.Errorf("replica hover missing domain count: %q", m.Hover)
		}
	}
}

func TestAssembleReplicasEmpty(t *testing.T) {
	s := AssembleReplicas(nil, testDomains, Params{})
	if s.Annotation != NoDataAnnotation {
		t.Errorf("annotation = %q, want placeholder", s.Annotation)
	}
}

func TestAssembleReplicasMinCount(t *testing.T) {
	formulas := []graph.Formula{
		{ID: "f1", Principle: "wide", DomainIDs: []string{"a", "b", "c"}},
		{ID: "f2", Principle: "narrow", DomainIDs: []string{"a", "b"}},
	}
	rows := graph.BuildReplicaRows(formulas)

	s := AssembleReplicas(rows, testDomains, Params{MinCount: 3})
	// Only f1 (3 domains) survives → 3 replicas.
	if len(s.Markers) != 3 {
		t.Fatalf("got %d markers, want 3", len(s.Markers))
	}
}

func TestAssemblyDeterministic(t *testing.T) {
	formulas := testFormulas()
	edges := graph.BuildEdges(formulas)

	a := AssembleFormulas(formulas, testDomains, edges, Params{})
	b := AssembleFormulas(formulas, testDomains, edges, Params{})
	if len(a.Markers) != len(b.Markers) {
		t.Fatal("marker count differs across identical calls")
	}
	for i := range a.Markers {
		if a.Markers[i] != b.Markers[i] {
			t.Errorf("marker %d differs: %+v vs %+v", i, a.Markers[i], b.Markers[i])
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"Short", "hello world", 60, "hello world"},
		{"Breaks", "one two three", 7, "one two\nthree"},
		{"LongWord", "supercalifragilistic", 5, "supercalifragilistic"},
		{"Empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wordWrap(tt.in, tt.width); got != tt.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}
