package system_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/l1jgo/ecscore/internal/core/system"
)

func sortOK(t *testing.T, g *system.Graph) []string {
	t.Helper()
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	return order
}

func assertBefore(t *testing.T, order []string, a, b string) {
	t.Helper()
	ia, ib := slices.Index(order, a), slices.Index(order, b)
	if ia < 0 || ib < 0 || ia >= ib {
		t.Errorf("expected %s before %s in %v", a, b, order)
	}
}

func TestLinearChain(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "Input"},
		{Name: "Physics", After: []string{"Input"}},
		{Name: "Render", After: []string{"Physics"}},
	})
	got := sortOK(t, g)
	want := []string{"Input", "Physics", "Render"}
	if !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestBeforeConstraint(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "Render"},
		{Name: "Physics", Before: []string{"Render"}},
	})
	got := sortOK(t, g)
	if !slices.Equal(got, []string{"Physics", "Render"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestFIFOTieBreak(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "zeta"},
		{Name: "alpha"},
		{Name: "mid", After: []string{"zeta"}},
		{Name: "beta"},
	})
	got := sortOK(t, g)
	want := []string{"zeta", "alpha", "beta", "mid"}
	if !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := 0; i < 5; i++ {
		if again := sortOK(t, g); !slices.Equal(again, got) {
			t.Fatalf("sort is not repeatable: %v then %v", got, again)
		}
	}
}

func TestCycleDetected(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "A", After: []string{"B"}},
		{Name: "B", After: []string{"A"}},
	})
	_, err := g.TopologicalSort()
	var cycle *system.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !slices.Contains(cycle.InvolvedNodes, "A") || !slices.Contains(cycle.InvolvedNodes, "B") {
		t.Fatalf("InvolvedNodes = %v", cycle.InvolvedNodes)
	}
}

func TestCycleReportsDownstreamNodes(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "free"},
		{Name: "A", After: []string{"C"}},
		{Name: "B", After: []string{"A"}},
		{Name: "C", After: []string{"B"}},
		{Name: "tail", After: []string{"C"}},
	})
	_, err := g.TopologicalSort()
	var cycle *system.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	want := []string{"A", "B", "C", "tail"}
	if !slices.Equal(cycle.InvolvedNodes, want) {
		t.Fatalf("InvolvedNodes = %v, want %v", cycle.InvolvedNodes, want)
	}
}

func TestCycleThroughSet(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "X", Sets: []string{"gfx"}, Before: []string{"Y"}},
		{Name: "Y", Before: []string{"set:gfx"}},
	})
	_, err := g.TopologicalSort()
	var cycle *system.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !slices.Contains(cycle.InvolvedNodes, "set:gfx") {
		t.Fatalf("set node missing from %v", cycle.InvolvedNodes)
	}
}

func TestSetOrdering(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "Y", After: []string{"set:gfx"}},
		{Name: "X", Sets: []string{"gfx"}},
	})
	got := sortOK(t, g)
	assertBefore(t, got, "X", "Y")
}

func TestSetPrerequisitesApplyToMembers(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "draw_sprites", Sets: []string{"render"}},
		{Name: "draw_ui", Sets: []string{"render"}},
		{Name: "physics", Before: []string{"set:render"}},
	})
	got := sortOK(t, g)
	if len(got) != 3 {
		t.Fatalf("virtual node leaked into %v", got)
	}
	assertBefore(t, got, "physics", "draw_sprites")
	assertBefore(t, got, "physics", "draw_ui")
	if g.Size() != 4 {
		t.Fatalf("Size = %d, want 4 (3 systems + 1 set)", g.Size())
	}
	n, ok := g.Node("set:render")
	if !ok || !n.Virtual {
		t.Fatal("set node should be virtual")
	}
	if !slices.Equal(n.OutEdges(), []string{"draw_sprites", "draw_ui"}) {
		t.Fatalf("set out-edges = %v", n.OutEdges())
	}
	if !slices.Equal(n.InEdges(), []string{"physics"}) {
		t.Fatalf("set in-edges = %v", n.InEdges())
	}
}

func TestPlainNameIsNotASet(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "X", Sets: []string{"gfx"}},
		{Name: "Y", After: []string{"gfx"}},
	})
	got := sortOK(t, g)
	// "gfx" without the prefix is a dangling system reference.
	if !slices.Contains(got, "gfx") {
		t.Fatalf("expected dangling node gfx in %v", got)
	}
	n, _ := g.Node("gfx")
	if n.Virtual {
		t.Fatal("unprefixed reference must not be virtual")
	}
	assertBefore(t, got, "gfx", "Y")
}

func TestSelfEdgeIgnored(t *testing.T) {
	g := system.NewGraph()
	g.AddEdge("A", "A")
	if g.Size() != 0 {
		t.Fatalf("self edge created nodes: Size = %d", g.Size())
	}
	g.AddSystemNode("A")
	g.AddEdge("A", "A")
	got := sortOK(t, g)
	if !slices.Equal(got, []string{"A"}) {
		t.Fatalf("order = %v", got)
	}

	g.BuildFromSystems([]system.Info{{Name: "S", After: []string{"S"}, Before: []string{"S"}}})
	if got := sortOK(t, g); !slices.Equal(got, []string{"S"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestDuplicateEdgesIdempotent(t *testing.T) {
	g := system.NewGraph()
	g.AddEdge("A", "B")
	g.AddEdge("A", "B")
	if g.Size() != 2 {
		t.Fatalf("Size = %d, want 2", g.Size())
	}
	a, _ := g.Node("A")
	if len(a.OutEdges()) != 1 {
		t.Fatalf("duplicate edge stored: %v", a.OutEdges())
	}
	if got := sortOK(t, g); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestAddEdgeInfersVirtual(t *testing.T) {
	g := system.NewGraph()
	g.AddEdge("set:late", "A")
	n, ok := g.Node("set:late")
	if !ok || !n.Virtual {
		t.Fatal("prefixed endpoint should be created virtual")
	}
	if id := g.AddSetNode("late"); id != "set:late" {
		t.Fatalf("AddSetNode id = %q", id)
	}
	if g.Size() != 2 {
		t.Fatalf("AddSetNode should be idempotent, Size = %d", g.Size())
	}
	if got := sortOK(t, g); !slices.Equal(got, []string{"A"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestBuildClearsPreviousGraph(t *testing.T) {
	g := system.NewGraph()
	g.BuildFromSystems([]system.Info{
		{Name: "A", After: []string{"B"}},
		{Name: "B", After: []string{"A"}},
	})
	g.BuildFromSystems([]system.Info{{Name: "C"}})
	if got := sortOK(t, g); !slices.Equal(got, []string{"C"}) {
		t.Fatalf("order = %v", got)
	}
	g.Clear()
	if g.Size() != 0 {
		t.Fatalf("Size after Clear = %d", g.Size())
	}
	if got := sortOK(t, g); len(got) != 0 {
		t.Fatalf("empty graph sorted to %v", got)
	}
}

func TestDAGHonorsEveryEdge(t *testing.T) {
	infos := []system.Info{
		{Name: "net_recv", Sets: []string{"io"}},
		{Name: "input", After: []string{"net_recv"}},
		{Name: "ai", After: []string{"input"}, Sets: []string{"logic"}},
		{Name: "movement", After: []string{"input"}, Sets: []string{"logic"}},
		{Name: "collision", After: []string{"movement"}, Before: []string{"set:output"}},
		{Name: "render", Sets: []string{"output"}, After: []string{"set:logic"}},
		{Name: "net_send", Sets: []string{"output", "io"}},
		{Name: "audio", After: []string{"ai"}},
	}
	g := system.NewGraph()
	g.BuildFromSystems(infos)
	order := sortOK(t, g)
	if len(order) != len(infos) {
		t.Fatalf("order has %d systems, want %d: %v", len(order), len(infos), order)
	}

	// Expand set edges into member edges and check every real pair.
	members := map[string][]string{}
	for _, s := range infos {
		for _, set := range s.Sets {
			members[system.SetID(set)] = append(members[system.SetID(set)], s.Name)
		}
	}
	resolve := func(id string) []string {
		if system.IsSetID(id) {
			return members[id]
		}
		return []string{id}
	}
	for _, s := range infos {
		for _, b := range s.Before {
			for _, m := range resolve(b) {
				assertBefore(t, order, s.Name, m)
			}
		}
		for _, a := range s.After {
			for _, m := range resolve(a) {
				assertBefore(t, order, m, s.Name)
			}
		}
	}
}
