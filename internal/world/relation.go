package world

// RelationStatus is the diplomatic state between two players.
type RelationStatus string

const (
	RelationNeutral RelationStatus = "neutral"
	RelationAllied  RelationStatus = "allied"
	RelationWar     RelationStatus = "war"
)

// PairKey identifies an unordered pair of players.
type PairKey string

// CanonicalPair orders two player ids. Every relation lookup goes through it
// so (a, b) and (b, a) always resolve to the same entry.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// MakePairKey returns the canonical key for a player pair.
func MakePairKey(a, b string) PairKey {
	p1, p2 := CanonicalPair(a, b)
	return PairKey(p1 + "|" + p2)
}

// Relation is the stored diplomatic state of a canonical player pair.
type Relation struct {
	Player1ID       string
	Player2ID       string
	Status          RelationStatus
	EstablishedTick uint64
}

// NewRelation builds a relation with canonically ordered players.
func NewRelation(a, b string, status RelationStatus, tick uint64) Relation {
	p1, p2 := CanonicalPair(a, b)
	return Relation{Player1ID: p1, Player2ID: p2, Status: status, EstablishedTick: tick}
}

// Key returns the canonical pair key of the relation.
func (r Relation) Key() PairKey {
	return MakePairKey(r.Player1ID, r.Player2ID)
}

// OfferType is the kind of proposal awaiting an answer.
type OfferType string

const (
	OfferAlliance OfferType = "alliance"
	OfferPeace    OfferType = "peace"
)

// Offer is a pending alliance or peace proposal.
type Offer struct {
	FromPlayerID string
	ToPlayerID   string
	Type         OfferType
	OfferedTick  uint64
}

// Between reports whether the offer involves both players, in either direction.
func (o Offer) Between(a, b string) bool {
	return (o.FromPlayerID == a && o.ToPlayerID == b) || (o.FromPlayerID == b && o.ToPlayerID == a)
}
