package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

func testWorld() *world.World {
	a := world.NewNode("a", "A", world.V(0, 0))
	a.OwnerID = "red"
	a.Status = world.StatusClaimed
	a.ControlPoints = 100
	b := world.NewNode("b", "B", world.V(1, 0))
	b.OwnerID = "blue"
	b.Status = world.StatusClaimed
	b.ControlPoints = 100

	w := world.New("rt").AddNode(a).AddNode(b).
		AddNode(world.NewNode("c", "C", world.V(2, 0)))
	w = w.AddConnection(world.NewConnection("ab", "a", "b", 1))
	return w.AddConnection(world.NewConnection("bc", "b", "c", 1))
}

type recordingSaver struct {
	runIDs []string
	ticks  []uint64
	err    error
}

func (s *recordingSaver) SaveTick(runID string, res tick.Result) error {
	s.runIDs = append(s.runIDs, runID)
	s.ticks = append(s.ticks, res.ProcessedTick)
	return s.err
}

type fixedScript map[uint64]tick.Input

func (s fixedScript) InputAt(t uint64) tick.Input { return s[t] }

func TestStepAppliesSubmittedInput(t *testing.T) {
	r := New(testWorld(), Options{})

	if err := r.SubmitClaim("red", "c"); err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if err := r.SubmitDiplomacy(DiplomacyInput{Action: diplomacy.DeclareWar, From: "red", To: "blue"}); err != nil {
		t.Fatalf("SubmitDiplomacy: %v", err)
	}

	f, err := r.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if f.Tick != 0 || f.World.CurrentTick != 1 {
		t.Errorf("frame tick %d, world tick %d", f.Tick, f.World.CurrentTick)
	}
	if c, _ := f.World.Node("c"); c.ControlPoints != 10 {
		t.Errorf("claim not applied: %d points", c.ControlPoints)
	}
	if diplomacy.Status(f.World, "red", "blue") != world.RelationWar {
		t.Error("war not declared")
	}
	if r.History().Len() != len(f.Events) || len(f.Events) == 0 {
		t.Errorf("history %d, events %d", r.History().Len(), len(f.Events))
	}
	if f.Digest != r.Digest() {
		t.Error("frame digest differs from runner digest")
	}

	// Input is consumed by the tick it was drained into.
	f, _ = r.Step()
	if c, _ := f.World.Node("c"); c.ControlPoints != 10 {
		t.Errorf("claim applied twice: %d points", c.ControlPoints)
	}
}

func TestPausedStepKeepsInput(t *testing.T) {
	r := New(testWorld(), Options{})
	r.Pause()

	if err := r.SubmitClaim("red", "c"); err != nil {
		t.Fatal(err)
	}
	f, _ := r.Step()
	if !f.Paused || f.World.CurrentTick != 0 || len(f.Events) != 0 {
		t.Fatalf("paused frame = %+v", f)
	}

	if paused := r.TogglePause(); paused {
		t.Fatal("TogglePause should resume")
	}
	f, _ = r.Step()
	if c, _ := f.World.Node("c"); c.ControlPoints != 10 {
		t.Errorf("queued claim lost across pause: %d points", c.ControlPoints)
	}
}

func TestSubmitRejections(t *testing.T) {
	r := New(testWorld(), Options{ClaimsPerSecond: 0.001, ClaimsBurst: 2, InputBuffer: 3})

	if err := r.SubmitClaim("", "a"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty player: %v", err)
	}
	if err := r.SubmitActivation("red", "", "a"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty gateway: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := r.SubmitClaim("red", "c"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := r.SubmitClaim("red", "c"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third submit: %v, want ErrRateLimited", err)
	}

	if err := r.SubmitClaim("blue", "c"); err != nil {
		t.Fatalf("other player limited: %v", err)
	}
	if err := r.SubmitClaim("green", "c"); !errors.Is(err, ErrInputFull) {
		t.Errorf("full buffer: %v, want ErrInputFull", err)
	}
}

func TestSubscriptionDropsOldest(t *testing.T) {
	r := New(testWorld(), Options{})
	sub := r.Subscribe(1)
	defer sub.Close()

	r.Step()
	r.Step()

	f := <-sub.Frames()
	if f.Tick != 1 {
		t.Errorf("got frame for tick %d, want newest (1)", f.Tick)
	}
	select {
	case extra := <-sub.Frames():
		t.Errorf("unexpected frame %d", extra.Tick)
	default:
	}

	sub.Close()
	r.Step()
	if r.Subscribers() != 0 {
		t.Errorf("closed subscription still counted")
	}
}

func TestSaverReceivesEveryTick(t *testing.T) {
	saver := &recordingSaver{}
	r := New(testWorld(), Options{Saver: saver, RunID: "run-1"})

	for i := 0; i < 3; i++ {
		if _, err := r.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if len(saver.ticks) != 3 || saver.ticks[2] != 2 || saver.runIDs[0] != "run-1" {
		t.Errorf("saved = %v %v", saver.runIDs, saver.ticks)
	}

	saver.err = errors.New("disk full")
	f, err := r.Step()
	if err == nil || !errors.Is(err, saver.err) {
		t.Fatalf("err = %v, want wrapped saver error", err)
	}
	if f.World.CurrentTick != 4 || r.World().CurrentTick != 4 {
		t.Error("tick should still apply when saving fails")
	}
}

func TestScriptRunsBeforePlayerInput(t *testing.T) {
	script := fixedScript{
		0: {Requests: []diplomacy.Request{{Type: diplomacy.OfferAlliance, FromPlayerID: "red", ToPlayerID: "blue"}}},
	}
	r := New(testWorld(), Options{Script: script})
	if err := r.SubmitDiplomacy(DiplomacyInput{Action: diplomacy.AcceptAlliance, From: "blue", To: "red"}); err != nil {
		t.Fatal(err)
	}

	f, _ := r.Step()
	if diplomacy.Status(f.World, "red", "blue") != world.RelationAllied {
		t.Errorf("status = %s, want allied", diplomacy.Status(f.World, "red", "blue"))
	}
}

func TestRunStopsAfterMaxTicks(t *testing.T) {
	r := New(testWorld(), Options{TickRate: time.Millisecond, MaxTicks: 3})
	sub := r.Subscribe(8)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Ticks() != 3 || r.World().CurrentTick != 3 {
		t.Errorf("ticks %d, world tick %d", r.Ticks(), r.World().CurrentTick)
	}
	select {
	case <-sub.Done():
	default:
		t.Error("subscription not closed when Run returned")
	}
}

func TestRunCancelled(t *testing.T) {
	r := New(testWorld(), Options{TickRate: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Ticks() != 0 {
		t.Errorf("ticks = %d", r.Ticks())
	}
}

func TestSetSpeed(t *testing.T) {
	r := New(testWorld(), Options{})
	r.SetSpeed(4)
	if r.World().Speed != 4 {
		t.Errorf("speed = %v", r.World().Speed)
	}
}

func TestAdvanceWhilePaused(t *testing.T) {
	r := New(testWorld(), Options{})
	r.Pause()
	if err := r.SubmitClaim("red", "c"); err != nil {
		t.Fatal(err)
	}

	f, err := r.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if !f.Paused || !f.World.IsPaused {
		t.Error("Advance should leave the world paused")
	}
	if f.World.CurrentTick != 1 || len(f.Events) == 0 {
		t.Errorf("tick %d, %d events", f.World.CurrentTick, len(f.Events))
	}
	if c, _ := r.World().Node("c"); c.ControlPoints != 10 {
		t.Errorf("claim not applied: %d", c.ControlPoints)
	}
	if f.Digest != r.Digest() {
		t.Error("digest out of sync")
	}
}
