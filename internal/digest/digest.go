// Package digest hashes world state into a short fingerprint for
// determinism checks and replay verification.
package digest

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/vovakirdan/nodewar/internal/world"
)

// State returns a 16-digit hex xxhash64 of the world. Map contents are
// written in sorted key order, so equal worlds always hash equally.
func State(w *world.World) string {
	h := xxhash.New()
	writeWorld(h, w)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Events returns the digest of an event sequence.
func Events(evts []world.GameEvent) string {
	h := xxhash.New()
	for _, e := range evts {
		writeEvent(h, e)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func writeWorld(out io.Writer, w *world.World) {
	fmt.Fprintf(out, "world %s tick=%d paused=%t speed=%g\n", w.ID, w.CurrentTick, w.IsPaused, w.Speed)

	for _, id := range w.NodeIDs() {
		n := w.Nodes[id]
		fmt.Fprintf(out, "node %s %q %v %s owner=%s cp=%d/%d conns=%v\n",
			n.ID, n.Name, n.Position, n.Status, n.OwnerID, n.ControlPoints, n.MaxPoints(), n.ConnectionIDs)
		for _, r := range n.Resources {
			fmt.Fprintf(out, "  res %s %g %g %g\n", r.Type, r.Amount, r.RegenRate, r.Capacity)
		}
	}

	for _, id := range w.ConnectionIDs() {
		switch e := w.Connections[id].(type) {
		case world.Gateway:
			fmt.Fprintf(out, "gate %s %s-%s %g active=%t cost=%v time=%d cooling=%t last=%s\n",
				e.ID, e.FromNodeID, e.ToNodeID, e.TravelTime, e.IsActive,
				e.ActivationCost, e.ActivationTime, e.IsCoolingDown, e.LastActivatedTick)
		case world.Connection:
			fmt.Fprintf(out, "conn %s %s-%s %g active=%t\n",
				e.ID, e.FromNodeID, e.ToNodeID, e.TravelTime, e.IsActive)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(w.Relations)) {
		r := w.Relations[key]
		fmt.Fprintf(out, "rel %s %s %d\n", key, r.Status, r.EstablishedTick)
	}
	for _, o := range w.PendingOffers {
		fmt.Fprintf(out, "offer %s>%s %s %d\n", o.FromPlayerID, o.ToPlayerID, o.Type, o.OfferedTick)
	}
	for _, e := range w.EventQueue {
		writeEvent(out, e)
	}
}

// writeEvent relies on fmt printing maps in sorted key order.
func writeEvent(out io.Writer, e world.GameEvent) {
	fmt.Fprintf(out, "evt %s %d %s %v\n", e.Type, e.Tick, e.EntityID, e.Data)
}
