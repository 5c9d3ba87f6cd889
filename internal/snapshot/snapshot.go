// Package snapshot saves and restores whole worlds as zstd-compressed files:
// one JSON header line followed by the JSON body.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zstd"

	"github.com/vovakirdan/nodewar/internal/digest"
	"github.com/vovakirdan/nodewar/internal/world"
)

// Version is the snapshot format written by this package.
const Version = 1

var (
	// ErrVersion is returned for snapshots in a format this build cannot read.
	ErrVersion = errors.New("snapshot: unsupported version")
	// ErrDigest is returned when a restored world does not match its recorded digest.
	ErrDigest = errors.New("snapshot: digest mismatch")
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	Digest  string `json:"digest"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Paused        bool    `json:"paused"`
	Speed         float64 `json:"speed"`
	MaxEventQueue int     `json:"max_event_queue"`

	Nodes       []NodeV1          `json:"nodes"`
	Connections []ConnectionV1    `json:"connections"`
	Relations   []RelationV1      `json:"relations,omitempty"`
	Offers      []OfferV1         `json:"offers,omitempty"`
	Events      []world.GameEvent `json:"events,omitempty"`
}

type NodeV1 struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	X                float64      `json:"x"`
	Y                float64      `json:"y"`
	Status           string       `json:"status"`
	Owner            string       `json:"owner,omitempty"`
	ControlPoints    int          `json:"control_points"`
	MaxControlPoints int          `json:"max_control_points"`
	Resources        []ResourceV1 `json:"resources,omitempty"`
	ConnectionIDs    []string     `json:"connection_ids,omitempty"`
}

type ResourceV1 struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	RegenRate float64 `json:"regen_rate"`
	Capacity  float64 `json:"capacity"`
}

type ConnectionV1 struct {
	ID         string     `json:"id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Type       string     `json:"type"`
	TravelTime float64    `json:"travel_time"`
	Active     bool       `json:"active"`
	Gateway    *GatewayV1 `json:"gateway,omitempty"`
}

type GatewayV1 struct {
	ActivationTime    uint64   `json:"activation_time"`
	Cost              []CostV1 `json:"cost,omitempty"`
	CoolingDown       bool     `json:"cooling_down"`
	LastActivatedTick *uint64  `json:"last_activated_tick,omitempty"` // nil = never activated
}

type CostV1 struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type RelationV1 struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Status  string `json:"status"`
	Since   uint64 `json:"since"`
}

type OfferV1 struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
	Tick uint64 `json:"tick"`
}

// FromWorld converts a world into its snapshot form. Nodes, connections,
// and relations are written in sorted order.
func FromWorld(w *world.World) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{
			Version: Version,
			WorldID: w.ID,
			Tick:    w.CurrentTick,
			Digest:  digest.State(w),
		},
		Paused:        w.IsPaused,
		Speed:         w.Speed,
		MaxEventQueue: w.MaxEventQueue,
		Events:        slices.Clone(w.EventQueue),
	}

	for _, id := range w.NodeIDs() {
		n := w.Nodes[id]
		nv := NodeV1{
			ID:               n.ID,
			Name:             n.Name,
			X:                n.Position.X,
			Y:                n.Position.Y,
			Status:           string(n.Status),
			Owner:            n.OwnerID,
			ControlPoints:    n.ControlPoints,
			MaxControlPoints: n.MaxControlPoints,
			ConnectionIDs:    slices.Clone(n.ConnectionIDs),
		}
		for _, r := range n.Resources {
			nv.Resources = append(nv.Resources, ResourceV1{
				Type:      string(r.Type),
				Amount:    r.Amount,
				RegenRate: r.RegenRate,
				Capacity:  r.Capacity,
			})
		}
		snap.Nodes = append(snap.Nodes, nv)
	}

	for _, id := range w.ConnectionIDs() {
		e := w.Connections[id]
		base := e.Base()
		cv := ConnectionV1{
			ID:         base.ID,
			From:       base.FromNodeID,
			To:         base.ToNodeID,
			Type:       string(base.Type),
			TravelTime: base.TravelTime,
			Active:     base.IsActive,
		}
		if g, ok := e.(world.Gateway); ok {
			gv := &GatewayV1{
				ActivationTime: g.ActivationTime,
				CoolingDown:    g.IsCoolingDown,
			}
			if t, set := g.LastActivatedTick.Get(); set {
				gv.LastActivatedTick = &t
			}
			for _, c := range g.ActivationCost {
				gv.Cost = append(gv.Cost, CostV1{Type: string(c.Type), Amount: c.Amount})
			}
			cv.Gateway = gv
		}
		snap.Connections = append(snap.Connections, cv)
	}

	keys := make([]world.PairKey, 0, len(w.Relations))
	for k := range w.Relations {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		r := w.Relations[k]
		snap.Relations = append(snap.Relations, RelationV1{
			Player1: r.Player1ID,
			Player2: r.Player2ID,
			Status:  string(r.Status),
			Since:   r.EstablishedTick,
		})
	}

	for _, o := range w.PendingOffers {
		snap.Offers = append(snap.Offers, OfferV1{
			From: o.FromPlayerID,
			To:   o.ToPlayerID,
			Type: string(o.Type),
			Tick: o.OfferedTick,
		})
	}
	return snap
}

// ToWorld rebuilds the world described by a snapshot.
func ToWorld(snap SnapshotV1) (*world.World, error) {
	if snap.Header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}

	w := world.New(snap.Header.WorldID)
	w.CurrentTick = snap.Header.Tick
	w.IsPaused = snap.Paused
	w.Speed = snap.Speed
	w.MaxEventQueue = snap.MaxEventQueue

	for _, nv := range snap.Nodes {
		n := world.NewNode(nv.ID, nv.Name, world.V(nv.X, nv.Y))
		n.Status = world.NodeStatus(nv.Status)
		n.OwnerID = nv.Owner
		n.ControlPoints = nv.ControlPoints
		n.MaxControlPoints = nv.MaxControlPoints
		n.ConnectionIDs = slices.Clone(nv.ConnectionIDs)
		for _, rv := range nv.Resources {
			n.Resources = append(n.Resources, world.Resource{
				Type:      world.ResourceType(rv.Type),
				Amount:    rv.Amount,
				RegenRate: rv.RegenRate,
				Capacity:  rv.Capacity,
			})
		}
		w.Nodes[n.ID] = n
	}

	for _, cv := range snap.Connections {
		c := world.NewConnection(cv.ID, cv.From, cv.To, cv.TravelTime)
		c.IsActive = cv.Active
		if cv.Gateway == nil {
			w.Connections[c.ID] = c
			continue
		}
		c.Type = world.ConnectionGateway
		g := world.Gateway{
			Connection:     c,
			ActivationTime: cv.Gateway.ActivationTime,
			IsCoolingDown:  cv.Gateway.CoolingDown,
		}
		if cv.Gateway.LastActivatedTick != nil {
			g.LastActivatedTick = world.SomeTick(*cv.Gateway.LastActivatedTick)
		}
		for _, cost := range cv.Gateway.Cost {
			g.ActivationCost = append(g.ActivationCost, world.ResourceCost{
				Type:   world.ResourceType(cost.Type),
				Amount: cost.Amount,
			})
		}
		w.Connections[g.ID] = g
	}

	for _, rv := range snap.Relations {
		r := world.NewRelation(rv.Player1, rv.Player2, world.RelationStatus(rv.Status), rv.Since)
		w.Relations[r.Key()] = r
	}
	for _, ov := range snap.Offers {
		w.PendingOffers = append(w.PendingOffers, world.Offer{
			FromPlayerID: ov.From,
			ToPlayerID:   ov.To,
			Type:         world.OfferType(ov.Type),
			OfferedTick:  ov.Tick,
		})
	}
	w.EventQueue = slices.Clone(snap.Events)

	if snap.Header.Digest != "" {
		if got := digest.State(w); got != snap.Header.Digest {
			return nil, fmt.Errorf("%w: recorded %s, restored %s", ErrDigest, snap.Header.Digest, got)
		}
	}
	return w, nil
}

// Write saves w to path, creating parent directories as needed.
func Write(path string, w *world.World) error {
	return WriteSnapshot(path, FromWorld(w))
}

// Read loads a world from path and checks it against the recorded digest.
func Read(path string) (*world.World, error) {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return ToWorld(snap)
}

// WriteSnapshot encodes snap to path.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot: cannot create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot: cannot create %s: %w", path, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: zstd writer: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: zstd close: %w", err)
	}
	return f.Close()
}

// ReadSnapshot decodes the snapshot stored at path.
func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, fmt.Errorf("snapshot: cannot open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The body repeats the header, so the first line is skipped.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("snapshot: read header: %w", err)
	}

	jd := json.NewDecoder(br)
	jd.UseNumber()
	if err := jd.Decode(&snap); err != nil {
		return snap, fmt.Errorf("snapshot: json decode: %w", err)
	}
	for i := range snap.Events {
		snap.Events[i].Data = normalize(snap.Events[i].Data)
	}
	return snap, nil
}

// ReadHeader returns only the header line of a snapshot.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, fmt.Errorf("snapshot: cannot open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("snapshot: read header: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return h, fmt.Errorf("snapshot: parse header: %w", err)
	}
	return h, nil
}

// normalize turns decoded json.Number values into int64 or float64 so event
// data reads back the way it was written.
func normalize(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		return normalize(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalizeValue(v[i])
		}
		return out
	default:
		return v
	}
}
