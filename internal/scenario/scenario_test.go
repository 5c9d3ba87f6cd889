package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/nodewar/internal/pathfinding"
	"github.com/vovakirdan/nodewar/internal/world"
)

func TestBuiltinsAreRegistered(t *testing.T) {
	infos := List()
	if len(infos) < 2 {
		t.Fatalf("expected at least 2 built-in scenarios, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID >= infos[i].ID {
			t.Errorf("List not sorted: %q before %q", infos[i-1].ID, infos[i].ID)
		}
	}
	for _, id := range []string{"diamond", "frontier"} {
		if !Exists(id) {
			t.Errorf("%s not registered", id)
		}
	}
}

func TestCreateReturnsFreshWorlds(t *testing.T) {
	a, err := Create("diamond")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, _ := Create("diamond")
	if a.World == b.World {
		t.Error("Create returned a shared world")
	}
}

func TestCreateUnknown(t *testing.T) {
	_, err := Create("atlantis")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("err = %v, want ErrUnknown", err)
	}
}

func TestDiamondShape(t *testing.T) {
	s, err := Create("diamond")
	if err != nil {
		t.Fatal(err)
	}
	w := s.World

	if len(w.Nodes) != 4 || len(w.Connections) != 4 {
		t.Fatalf("nodes %d connections %d", len(w.Nodes), len(w.Connections))
	}
	a, _ := w.Node("a")
	if a.OwnerID != "red" || a.Status != world.StatusClaimed || a.ControlPoints != 100 {
		t.Errorf("owned node = %+v", a)
	}
	if got := strings.Join(a.ConnectionIDs, ","); got != "ab,ac" {
		t.Errorf("a connections = %s, want file order ab,ac", got)
	}

	p := pathfinding.FindPath(w, "a", "d")
	if p == nil || strings.Join(p.NodeIDs, ">") != "a>b>d" {
		t.Errorf("path = %+v", p)
	}
}

func TestFrontierGatewaysAndRelations(t *testing.T) {
	s, err := Create("frontier")
	if err != nil {
		t.Fatal(err)
	}
	w := s.World

	e, ok := w.Connection("mid-vault")
	if !ok {
		t.Fatal("missing gateway")
	}
	g, ok := e.(world.Gateway)
	if !ok {
		t.Fatalf("mid-vault is %T, want Gateway", e)
	}
	if g.ActivationTime != 5 || len(g.ActivationCost) != 1 || g.ActivationCost[0].Amount != 25 {
		t.Errorf("gateway = %+v", g)
	}
	if g.LastActivatedTick.IsSet() {
		t.Error("fresh gateway has an activation tick")
	}

	closed, _ := w.Connection("n2-s2")
	if closed.Base().IsActive {
		t.Error("inactive connection loaded as active")
	}

	r, ok := w.Relation("south", "north")
	if !ok || r.Status != world.RelationWar {
		t.Errorf("relation = %+v", r)
	}

	e1, _ := w.Node("e1")
	if e1.ControlPoints != 60 {
		t.Errorf("explicit control points ignored: %d", e1.ControlPoints)
	}
	mid, _ := w.Node("mid")
	if mid.MaxPoints() != 150 {
		t.Errorf("max control points = %d", mid.MaxPoints())
	}
}

func TestInputAtMergesSteps(t *testing.T) {
	data := []byte(`
id: merge
nodes:
  - { id: a }
  - { id: b }
connections:
  - id: g
    from: a
    to: b
    gateway: { activation_time: 1 }
script:
  - tick: 2
    claims: [{ player: p1, node: a }]
  - tick: 0
    activate: [{ gateway: g, node: a }]
  - tick: 2
    claims: [{ player: p2, node: b }]
    diplomacy: [{ action: declare_war, from: p1, to: p2 }]
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if last, ok := s.LastScriptedTick(); !ok || last != 2 {
		t.Errorf("LastScriptedTick = %d, %v", last, ok)
	}
	if s.Script[0].Tick != 0 {
		t.Error("script not sorted by tick")
	}

	in := s.InputAt(2)
	if len(in.Claims) != 2 || len(in.Requests) != 1 {
		t.Errorf("InputAt(2) = %+v", in)
	}
	if len(s.InputAt(0).Activations) != 1 {
		t.Error("activation missing at tick 0")
	}
	if got := s.InputAt(1); len(got.Claims)+len(got.Requests)+len(got.Activations) != 0 {
		t.Errorf("InputAt(1) = %+v", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ``},
		{"no nodes", "id: x\nnodes: []\n"},
		{"unknown field", "id: x\nnodes: [{ id: a }]\nweather: rain\n"},
		{"bad resource", "id: x\nnodes: [{ id: a, resources: [{ type: gold, capacity: 5 }] }]\n"},
		{"negative travel", "id: x\nnodes: [{ id: a }, { id: b }]\nconnections: [{ id: ab, from: a, to: b, travel_time: -1 }]\n"},
		{"duplicate node", "id: x\nnodes: [{ id: a }, { id: a }]\n"},
		{"dangling connection", "id: x\nnodes: [{ id: a }]\nconnections: [{ id: ab, from: a, to: b }]\n"},
		{"overfull resource", "id: x\nnodes: [{ id: a, resources: [{ type: food, amount: 9, capacity: 5 }] }]\n"},
		{"control points above max", "id: x\nnodes: [{ id: a, control_points: 120 }]\n"},
		{"self relation", "id: x\nnodes: [{ id: a }]\nrelations: [{ players: [p, p], status: war }]\n"},
		{"claim on unknown node", "id: x\nnodes: [{ id: a }]\nscript: [{ tick: 0, claims: [{ player: p, node: z }] }]\n"},
		{"activate a plain connection", "id: x\nnodes: [{ id: a }, { id: b }]\nconnections: [{ id: ab, from: a, to: b }]\nscript: [{ tick: 0, activate: [{ gateway: ab, node: a }] }]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	if err := os.WriteFile(path, []byte("id: tiny\nnodes: [{ id: only, x: 1, y: 2 }]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(path): %v", err)
	}
	if s.FilePath != path || s.Name != "tiny" {
		t.Errorf("scenario = %+v", s)
	}
	if n, _ := s.World.Node("only"); n.Name != "only" || n.Position != world.V(1, 2) {
		t.Errorf("node = %+v", n)
	}

	if _, err := Resolve("diamond"); err != nil {
		t.Errorf("Resolve(diamond): %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate id")
		}
	}()
	Register("diamond", Builtin("builtin/diamond.yaml"))
}
