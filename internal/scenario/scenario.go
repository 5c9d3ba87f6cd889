// Package scenario loads world definitions from YAML files and keeps a
// catalogue of built-in scenarios.
package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

//go:embed scenario.schema.json
var schemaJSON []byte

const schemaURL = "scenario.schema.json"

// YAMLScenario is the on-disk shape of a scenario file.
type YAMLScenario struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Players     []string         `yaml:"players,omitempty"`
	Nodes       []YAMLNode       `yaml:"nodes"`
	Connections []YAMLConnection `yaml:"connections,omitempty"`
	Relations   []YAMLRelation   `yaml:"relations,omitempty"`
	Script      []YAMLStep       `yaml:"script,omitempty"`
}

// YAMLNode is a node entry.
type YAMLNode struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name"`
	X                float64        `yaml:"x"`
	Y                float64        `yaml:"y"`
	Owner            string         `yaml:"owner,omitempty"`
	ControlPoints    *int           `yaml:"control_points,omitempty"` // Defaults to the maximum when owned
	MaxControlPoints int            `yaml:"max_control_points,omitempty"`
	Resources        []YAMLResource `yaml:"resources,omitempty"`
}

// YAMLResource is a resource stock on a node.
type YAMLResource struct {
	Type     string  `yaml:"type"`
	Amount   float64 `yaml:"amount"`
	Regen    float64 `yaml:"regen"`
	Capacity float64 `yaml:"capacity"`
}

// YAMLConnection is a connection entry. A gateway block turns it into a gateway.
type YAMLConnection struct {
	ID         string       `yaml:"id"`
	From       string       `yaml:"from"`
	To         string       `yaml:"to"`
	TravelTime float64      `yaml:"travel_time"`
	Active     *bool        `yaml:"active,omitempty"`
	Gateway    *YAMLGateway `yaml:"gateway,omitempty"`
}

// YAMLGateway holds gateway-only settings.
type YAMLGateway struct {
	ActivationTime uint64     `yaml:"activation_time"`
	Cost           []YAMLCost `yaml:"cost,omitempty"`
}

// YAMLCost is one activation cost entry.
type YAMLCost struct {
	Type   string  `yaml:"type"`
	Amount float64 `yaml:"amount"`
}

// YAMLRelation is a starting diplomatic relation.
type YAMLRelation struct {
	Players []string `yaml:"players"`
	Status  string   `yaml:"status"`
	Since   uint64   `yaml:"since,omitempty"`
}

// YAMLStep is scripted input for one tick.
type YAMLStep struct {
	Tick      uint64           `yaml:"tick"`
	Claims    []YAMLClaim      `yaml:"claims,omitempty"`
	Diplomacy []YAMLDiplomacy  `yaml:"diplomacy,omitempty"`
	Activate  []YAMLActivation `yaml:"activate,omitempty"`
}

// YAMLClaim is a scripted claim.
type YAMLClaim struct {
	Player string `yaml:"player"`
	Node   string `yaml:"node"`
}

// YAMLDiplomacy is a scripted diplomatic request.
type YAMLDiplomacy struct {
	Action string `yaml:"action"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// YAMLActivation is a scripted gateway activation.
type YAMLActivation struct {
	Gateway string `yaml:"gateway"`
	Node    string `yaml:"node"`
}

// Scenario is a parsed scenario ready to run.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Players     []string
	World       *world.World
	Script      []Step // Sorted by tick
	FilePath    string
}

// Step is the scripted input for one tick.
type Step struct {
	Tick        uint64
	Claims      []world.ClaimAction
	Requests    []diplomacy.Request
	Activations []tick.Activation
}

// InputAt returns the scripted input for a tick. Steps sharing a tick are merged.
func (s *Scenario) InputAt(t uint64) tick.Input {
	var in tick.Input
	for _, step := range s.Script {
		if step.Tick != t {
			continue
		}
		in.Claims = append(in.Claims, step.Claims...)
		in.Requests = append(in.Requests, step.Requests...)
		in.Activations = append(in.Activations, step.Activations...)
	}
	return in
}

// LastScriptedTick returns the highest tick with scripted input.
func (s *Scenario) LastScriptedTick() (uint64, bool) {
	if len(s.Script) == 0 {
		return 0, false
	}
	return s.Script[len(s.Script)-1].Tick, true
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: cannot read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.FilePath = path
	return s, nil
}

// Parse validates data against the scenario schema and builds the world.
func Parse(data []byte) (*Scenario, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var ys YAMLScenario
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("scenario: yaml unmarshal: %w", err)
	}
	return build(ys)
}

// validateSchema checks the document against the embedded JSON schema. The
// YAML is round-tripped through JSON so the validator sees JSON types.
func validateSchema(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("scenario: yaml unmarshal: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("scenario: not representable as json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return fmt.Errorf("scenario: json decode: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("scenario: schema: %w", err)
	}
	return nil
}

var compiledSchema = sync.OnceValues(compileSchema)

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("scenario: add schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("scenario: compile schema: %w", err)
	}
	return s, nil
}

func build(ys YAMLScenario) (*Scenario, error) {
	w := world.New(ys.ID)

	for _, yn := range ys.Nodes {
		if _, dup := w.Node(yn.ID); dup {
			return nil, fmt.Errorf("scenario: duplicate node %q", yn.ID)
		}
		n, err := buildNode(yn)
		if err != nil {
			return nil, err
		}
		w = w.AddNode(n)
	}

	for _, yc := range ys.Connections {
		if _, dup := w.Connection(yc.ID); dup {
			return nil, fmt.Errorf("scenario: duplicate connection %q", yc.ID)
		}
		for _, end := range []string{yc.From, yc.To} {
			if _, ok := w.Node(end); !ok {
				return nil, fmt.Errorf("scenario: connection %q references unknown node %q", yc.ID, end)
			}
		}
		w = w.AddConnection(buildEdge(yc))
	}

	for _, yr := range ys.Relations {
		if yr.Players[0] == yr.Players[1] {
			return nil, fmt.Errorf("scenario: relation of %q with itself", yr.Players[0])
		}
		w = w.WithRelation(world.NewRelation(yr.Players[0], yr.Players[1], world.RelationStatus(yr.Status), yr.Since))
	}

	script, err := buildScript(w, ys.Script)
	if err != nil {
		return nil, err
	}

	players := ys.Players
	if len(players) == 0 {
		players = w.Players()
	}

	name := ys.Name
	if name == "" {
		name = ys.ID
	}
	return &Scenario{
		ID:          ys.ID,
		Name:        name,
		Description: ys.Description,
		Players:     players,
		World:       w,
		Script:      script,
	}, nil
}

func buildNode(yn YAMLNode) (world.Node, error) {
	name := yn.Name
	if name == "" {
		name = yn.ID
	}
	n := world.NewNode(yn.ID, name, world.V(yn.X, yn.Y))
	if yn.MaxControlPoints > 0 {
		n.MaxControlPoints = yn.MaxControlPoints
	}

	if yn.Owner != "" {
		n.OwnerID = yn.Owner
		n.Status = world.StatusClaimed
		n.ControlPoints = n.MaxPoints()
	}
	if yn.ControlPoints != nil {
		if *yn.ControlPoints > n.MaxPoints() {
			return world.Node{}, fmt.Errorf("scenario: node %q control points %d above maximum %d",
				yn.ID, *yn.ControlPoints, n.MaxPoints())
		}
		n.ControlPoints = *yn.ControlPoints
	}

	for _, yr := range yn.Resources {
		rt, ok := world.ParseResourceType(yr.Type)
		if !ok {
			return world.Node{}, fmt.Errorf("scenario: node %q unknown resource %q", yn.ID, yr.Type)
		}
		if yr.Amount > yr.Capacity {
			return world.Node{}, fmt.Errorf("scenario: node %q %s amount %g above capacity %g",
				yn.ID, yr.Type, yr.Amount, yr.Capacity)
		}
		n.Resources = append(n.Resources, world.Resource{
			Type:      rt,
			Amount:    yr.Amount,
			RegenRate: yr.Regen,
			Capacity:  yr.Capacity,
		})
	}
	return n, nil
}

func buildEdge(yc YAMLConnection) world.Edge {
	active := yc.Active == nil || *yc.Active
	if yc.Gateway == nil {
		c := world.NewConnection(yc.ID, yc.From, yc.To, yc.TravelTime)
		c.IsActive = active
		return c
	}

	var costs []world.ResourceCost
	for _, c := range yc.Gateway.Cost {
		rt, _ := world.ParseResourceType(c.Type)
		costs = append(costs, world.ResourceCost{Type: rt, Amount: c.Amount})
	}
	g := world.NewGateway(yc.ID, yc.From, yc.To, yc.TravelTime, yc.Gateway.ActivationTime, costs...)
	g.IsActive = active
	return g
}

func buildScript(w *world.World, steps []YAMLStep) ([]Step, error) {
	out := make([]Step, 0, len(steps))
	for _, ys := range steps {
		st := Step{Tick: ys.Tick}
		for _, c := range ys.Claims {
			if _, ok := w.Node(c.Node); !ok {
				return nil, fmt.Errorf("scenario: tick %d claim on unknown node %q", ys.Tick, c.Node)
			}
			st.Claims = append(st.Claims, world.ClaimAction{PlayerID: c.Player, NodeID: c.Node, Tick: ys.Tick})
		}
		for _, d := range ys.Diplomacy {
			action, ok := diplomacy.ParseAction(d.Action)
			if !ok {
				return nil, fmt.Errorf("scenario: tick %d unknown diplomatic action %q", ys.Tick, d.Action)
			}
			st.Requests = append(st.Requests, diplomacy.Request{
				Type:         action,
				FromPlayerID: d.From,
				ToPlayerID:   d.To,
				Tick:         ys.Tick,
			})
		}
		for _, a := range ys.Activate {
			e, ok := w.Connection(a.Gateway)
			if _, isGateway := e.(world.Gateway); !ok || !isGateway {
				return nil, fmt.Errorf("scenario: tick %d activation of unknown gateway %q", ys.Tick, a.Gateway)
			}
			st.Activations = append(st.Activations, tick.Activation{GatewayID: a.Gateway, NodeID: a.Node})
		}
		out = append(out, st)
	}
	slices.SortStableFunc(out, func(a, b Step) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	return out, nil
}
