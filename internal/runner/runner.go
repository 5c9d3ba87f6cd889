// Package runner drives a world in real time. It owns the current world,
// collects player input between ticks, and broadcasts a Frame after each one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/nodewar/internal/config"
	"github.com/vovakirdan/nodewar/internal/digest"
	"github.com/vovakirdan/nodewar/internal/events"
	"github.com/vovakirdan/nodewar/internal/territory"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

// TickSaver persists the outcome of a tick.
type TickSaver interface {
	SaveTick(runID string, res tick.Result) error
}

// Script supplies scripted input for a tick, merged ahead of player input.
type Script interface {
	InputAt(t uint64) tick.Input
}

// Options configures a Runner. Zero fields fall back to config.Default().
// A negative ClaimsPerSecond disables submission limits.
type Options struct {
	TickRate        time.Duration
	InputBuffer     int
	ClaimsPerSecond float64
	ClaimsBurst     int
	HistorySize     int
	MaxTicks        uint64 // Run returns after this many ticks; 0 runs until cancelled

	EventConfig events.Config
	Territory   territory.Rules
	Registry    *events.Registry
	Script      Script

	Saver TickSaver
	RunID string

	Logger *log.Logger
}

// OptionsFromConfig maps the loaded configuration onto runner options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		TickRate:        cfg.Runner.TickRate,
		InputBuffer:     cfg.Runner.InputBuffer,
		ClaimsPerSecond: cfg.Runner.ClaimsPerSecond,
		ClaimsBurst:     cfg.Runner.ClaimsBurst,
		HistorySize:     cfg.World.HistorySize,
		EventConfig:     cfg.EventConfig(),
		Territory:       cfg.TerritoryRules(),
	}
}

// Runner is the authoritative loop around tick.ProcessTick.
// All methods are safe for concurrent use.
type Runner struct {
	opts   Options
	logger *log.Logger

	mu         sync.Mutex
	world      *world.World
	history    events.History
	lastDigest string
	ticks      uint64

	inputs   chan Input
	limiters *limiters
	subs     subscribers
}

// New creates a runner around w. The world's speed is left as is.
func New(w *world.World, opts Options) *Runner {
	def := config.Default()
	if opts.TickRate <= 0 {
		opts.TickRate = def.Runner.TickRate
	}
	if opts.InputBuffer <= 0 {
		opts.InputBuffer = def.Runner.InputBuffer
	}
	if opts.ClaimsPerSecond == 0 {
		opts.ClaimsPerSecond = def.Runner.ClaimsPerSecond
	}
	if opts.ClaimsBurst <= 0 {
		opts.ClaimsBurst = def.Runner.ClaimsBurst
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = def.World.HistorySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Runner{
		opts:       opts,
		logger:     logger,
		world:      w,
		history:    events.NewHistory(opts.HistorySize),
		lastDigest: digest.State(w),
		inputs:     make(chan Input, opts.InputBuffer),
		limiters:   newLimiters(opts.ClaimsPerSecond, opts.ClaimsBurst),
	}
}

// World returns the current world. The pointer stays valid; worlds are
// never modified in place.
func (r *Runner) World() *world.World {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.world
}

// History returns a copy of the recent event history.
func (r *Runner) History() events.History {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history
}

// Digest returns the state digest of the current world.
func (r *Runner) Digest() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDigest
}

// RunID returns the id ticks are saved under, if any.
func (r *Runner) RunID() string {
	return r.opts.RunID
}

// Submit queues an input for the next tick. Non-blocking.
func (r *Runner) Submit(in Input) error {
	if in == nil || in.playerID() == "" {
		return ErrInvalidInput
	}
	if !r.limiters.allow(in.playerID()) {
		return fmt.Errorf("%w: player %s", ErrRateLimited, in.playerID())
	}
	select {
	case r.inputs <- in:
		return nil
	default:
		return ErrInputFull
	}
}

// SubmitClaim queues a claim by playerID on nodeID.
func (r *Runner) SubmitClaim(playerID, nodeID string) error {
	if nodeID == "" {
		return ErrInvalidInput
	}
	return r.Submit(ClaimInput{PlayerID: playerID, NodeID: nodeID})
}

// SubmitDiplomacy queues a diplomatic action. Validation happens during the tick.
func (r *Runner) SubmitDiplomacy(in DiplomacyInput) error {
	return r.Submit(in)
}

// SubmitActivation queues a gateway activation paid from nodeID.
func (r *Runner) SubmitActivation(playerID, gatewayID, nodeID string) error {
	if gatewayID == "" || nodeID == "" {
		return ErrInvalidInput
	}
	return r.Submit(ActivationInput{PlayerID: playerID, GatewayID: gatewayID, NodeID: nodeID})
}

// Subscribe registers for frames. bufferSize frames are kept before the
// oldest is dropped.
func (r *Runner) Subscribe(bufferSize int) *Subscription {
	return r.subs.add(bufferSize)
}

// Subscribers returns the number of open subscriptions.
func (r *Runner) Subscribers() int {
	return r.subs.count()
}

// Pause stops the simulation. Pending input stays queued.
func (r *Runner) Pause() {
	r.setWorld(func(w *world.World) *world.World { return w.WithPaused(true) })
	r.logger.Info("paused")
}

// Resume restarts a paused simulation.
func (r *Runner) Resume() {
	r.setWorld(func(w *world.World) *world.World { return w.WithPaused(false) })
	r.logger.Info("resumed")
}

// TogglePause flips the paused flag and reports the new state.
func (r *Runner) TogglePause() bool {
	var paused bool
	r.setWorld(func(w *world.World) *world.World {
		paused = !w.IsPaused
		return w.WithPaused(paused)
	})
	return paused
}

// SetSpeed changes the simulation speed multiplier. Run picks it up on the
// next tick.
func (r *Runner) SetSpeed(speed float64) {
	r.setWorld(func(w *world.World) *world.World { return w.WithSpeed(speed) })
}

func (r *Runner) setWorld(f func(*world.World) *world.World) {
	r.mu.Lock()
	r.world = f(r.world)
	r.lastDigest = digest.State(r.world)
	r.mu.Unlock()
}

// Step simulates one tick and broadcasts its frame. A paused world produces
// a frame without consuming input. The returned error comes from the saver;
// the tick itself has already been applied.
func (r *Runner) Step() (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.world
	if w.IsPaused {
		f := Frame{Tick: w.CurrentTick, World: w, Digest: r.lastDigest, Paused: true}
		r.subs.broadcast(f)
		return f, nil
	}
	return r.stepLocked(w, false)
}

// Advance simulates exactly one tick even when the world is paused. The
// pause flag is left as it was.
func (r *Runner) Advance() (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.world.IsPaused {
		return r.stepLocked(r.world, false)
	}
	return r.stepLocked(r.world.WithPaused(false), true)
}

func (r *Runner) stepLocked(w *world.World, repause bool) (Frame, error) {
	in := tick.Input{
		EventConfig: r.opts.EventConfig,
		Registry:    r.opts.Registry,
		Territory:   r.opts.Territory,
	}
	if r.opts.Script != nil {
		scripted := r.opts.Script.InputAt(w.CurrentTick)
		in.Claims = append(in.Claims, scripted.Claims...)
		in.Activations = append(in.Activations, scripted.Activations...)
		in.Requests = append(in.Requests, scripted.Requests...)
	}
	r.drainInputs(&in)

	res := tick.ProcessTick(w, in)
	if repause {
		res.World = res.World.WithPaused(true)
	}
	r.world = res.World
	r.history = r.history.AppendMany(res.Events)
	r.lastDigest = digest.State(res.World)
	r.ticks++

	for _, rej := range res.Rejected {
		r.logger.Debug("diplomacy rejected",
			"action", rej.Request.Type,
			"from", rej.Request.FromPlayerID,
			"to", rej.Request.ToPlayerID,
			"reason", rej.Reason)
	}
	if res.Stats.TotalDropped > 0 {
		r.logger.Warn("events dropped",
			"tick", res.ProcessedTick,
			"dropped", res.Stats.TotalDropped,
			"depth_limit", res.Stats.MaxDepthReached,
			"count_limit", res.Stats.MaxCountReached)
	}

	f := Frame{
		Tick:    res.ProcessedTick,
		World:   res.World,
		Events:  res.Events,
		Digest:  r.lastDigest,
		Paused:  repause,
		Dropped: len(res.Dropped),
	}

	var err error
	if r.opts.Saver != nil {
		if err = r.opts.Saver.SaveTick(r.opts.RunID, res); err != nil {
			err = fmt.Errorf("runner: save tick %d: %w", res.ProcessedTick, err)
		}
	}

	r.subs.broadcast(f)
	return f, err
}

// drainInputs moves everything queued so far into in, in arrival order.
func (r *Runner) drainInputs(in *tick.Input) {
	for {
		select {
		case next := <-r.inputs:
			next.apply(in)
		default:
			return
		}
	}
}

// Ticks returns how many ticks this runner has simulated.
func (r *Runner) Ticks() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks
}

// Run steps the world on a ticker until ctx is cancelled or MaxTicks is
// reached. The interval is TickRate divided by the world's speed and is
// re-read after every tick. Subscriptions are closed on return.
func (r *Runner) Run(ctx context.Context) error {
	defer r.subs.closeAll()

	interval := config.TickInterval(r.opts.TickRate, r.World().Speed)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("runner started", "world", r.World().ID, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", "ticks", r.Ticks())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			f, err := r.Step()
			if err != nil {
				r.logger.Error("tick failed", "tick", f.Tick, "error", err)
			}
			if r.opts.MaxTicks > 0 && r.Ticks() >= r.opts.MaxTicks {
				r.logger.Info("runner finished", "ticks", r.Ticks(), "digest", f.Digest)
				return nil
			}
			if next := config.TickInterval(r.opts.TickRate, f.World.Speed); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}
