package runner

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/vovakirdan/nodewar/internal/diplomacy"
	"github.com/vovakirdan/nodewar/internal/tick"
	"github.com/vovakirdan/nodewar/internal/world"
)

var (
	// ErrRateLimited is returned when a player submits faster than allowed.
	ErrRateLimited = errors.New("runner: rate limit exceeded")
	// ErrInputFull is returned when the input buffer has no room left.
	ErrInputFull = errors.New("runner: input buffer full")
	// ErrInvalidInput is returned for submissions missing a player or target.
	ErrInvalidInput = errors.New("runner: invalid input")
)

// Input is a player action waiting for the next tick.
type Input interface {
	playerID() string
	apply(in *tick.Input)
}

// ClaimInput asks to claim a node on the next tick.
type ClaimInput struct {
	PlayerID string
	NodeID   string
}

func (c ClaimInput) playerID() string { return c.PlayerID }

func (c ClaimInput) apply(in *tick.Input) {
	in.Claims = append(in.Claims, world.ClaimAction{PlayerID: c.PlayerID, NodeID: c.NodeID})
}

// DiplomacyInput carries one diplomatic action.
type DiplomacyInput struct {
	Action diplomacy.Action
	From   string
	To     string
}

func (d DiplomacyInput) playerID() string { return d.From }

func (d DiplomacyInput) apply(in *tick.Input) {
	in.Requests = append(in.Requests, diplomacy.Request{Type: d.Action, FromPlayerID: d.From, ToPlayerID: d.To})
}

// ActivationInput opens a gateway, paying from the given endpoint.
type ActivationInput struct {
	PlayerID  string
	GatewayID string
	NodeID    string
}

func (a ActivationInput) playerID() string { return a.PlayerID }

func (a ActivationInput) apply(in *tick.Input) {
	in.Activations = append(in.Activations, tick.Activation{GatewayID: a.GatewayID, NodeID: a.NodeID})
}

// limiters hands out one token bucket per player.
type limiters struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	players map[string]*rate.Limiter
}

func newLimiters(perSecond float64, burst int) *limiters {
	l := &limiters{
		perSec:  rate.Inf,
		burst:   burst,
		players: make(map[string]*rate.Limiter),
	}
	if perSecond > 0 {
		l.perSec = rate.Limit(perSecond)
	}
	if l.burst < 1 {
		l.burst = 1
	}
	return l
}

func (l *limiters) allow(playerID string) bool {
	l.mu.Lock()
	limiter, ok := l.players[playerID]
	if !ok {
		limiter = rate.NewLimiter(l.perSec, l.burst)
		l.players[playerID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
