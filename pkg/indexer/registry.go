package indexer

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/duality-labs/dex-indexer/pkg/db/models"
)

type pairKey struct {
	token0 string
	token1 string
}

// Registry holds the in-memory token and pair catalogs. The canonical
// (token0, token1) ordering of a pair is fixed the first time it is seen and
// never changes afterwards. A single ingestion goroutine assigns new ids;
// query handlers read concurrently.
type Registry struct {
	logger      *zap.Logger
	tokens      *xsync.Map[string, *models.Token]
	pairs       *xsync.Map[pairKey, *models.Pair]
	pairsByID   *xsync.Map[uint64, *models.Pair]
	nextTokenID atomic.Uint64
	nextPairID  atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:    logger.Named("registry"),
		tokens:    xsync.NewMap[string, *models.Token](),
		pairs:     xsync.NewMap[pairKey, *models.Pair](),
		pairsByID: xsync.NewMap[uint64, *models.Pair](),
	}
}

// Restore loads previously persisted tokens and pairs, advancing the id
// counters past the highest ids seen.
func (r *Registry) Restore(tokens []models.Token, pairs []models.Pair) {
	for i := range tokens {
		t := tokens[i]
		r.tokens.Store(t.Denom, &t)
		if t.ID > r.nextTokenID.Load() {
			r.nextTokenID.Store(t.ID)
		}
	}
	for i := range pairs {
		p := pairs[i]
		r.storePair(&p)
		if p.ID > r.nextPairID.Load() {
			r.nextPairID.Store(p.ID)
		}
	}
	r.logger.Info("registry restored",
		zap.Int("tokens", len(tokens)),
		zap.Int("pairs", len(pairs)))
}

func (r *Registry) storePair(p *models.Pair) {
	r.pairs.Store(pairKey{p.Token0, p.Token1}, p)
	r.pairsByID.Store(p.ID, p)
}

// LookupPair resolves a pair given tokens in either order. inverted reports
// that the caller's (a, b) order is the reverse of the canonical one.
func (r *Registry) LookupPair(a, b string) (pair *models.Pair, inverted bool, ok bool) {
	if p, found := r.pairs.Load(pairKey{a, b}); found {
		return p, false, true
	}
	if p, found := r.pairs.Load(pairKey{b, a}); found {
		return p, true, true
	}
	return nil, false, false
}

// PairByID resolves a pair by id.
func (r *Registry) PairByID(id uint64) (*models.Pair, bool) {
	return r.pairsByID.Load(id)
}

// TokenKnown reports whether a denom has been registered.
func (r *Registry) TokenKnown(denom string) bool {
	_, ok := r.tokens.Load(denom)
	return ok
}

// RegistryBatch stages new tokens and pairs for one ingested page. Lookups
// see staged entries before committed ones; Commit publishes the staged
// entries into the registry after the page's rows have been flushed.
type RegistryBatch struct {
	reg    *Registry
	tokens map[string]*models.Token
	pairs  map[pairKey]*models.Pair

	NewTokens []*models.Token
	NewPairs  []*models.Pair
}

// NewBatch opens a staging view over the registry.
func (r *Registry) NewBatch() *RegistryBatch {
	return &RegistryBatch{
		reg:    r,
		tokens: map[string]*models.Token{},
		pairs:  map[pairKey]*models.Pair{},
	}
}

// EnsureToken returns the token for a denom, staging a new one if unseen.
func (b *RegistryBatch) EnsureToken(denom string, height uint64) *models.Token {
	if t, ok := b.tokens[denom]; ok {
		return t
	}
	if t, ok := b.reg.tokens.Load(denom); ok {
		return t
	}
	t := &models.Token{
		ID:            b.reg.nextTokenID.Add(1),
		Denom:         denom,
		CreatedHeight: height,
	}
	b.tokens[denom] = t
	b.NewTokens = append(b.NewTokens, t)
	return t
}

// EnsurePair returns the pair for two tokens in either order, staging a new
// pair with canonical order (token0, token1) as given if unseen.
func (b *RegistryBatch) EnsurePair(token0, token1 string, height uint64) *models.Pair {
	if p, ok := b.pairs[pairKey{token0, token1}]; ok {
		return p
	}
	if p, ok := b.pairs[pairKey{token1, token0}]; ok {
		return p
	}
	if p, _, ok := b.reg.LookupPair(token0, token1); ok {
		return p
	}
	b.EnsureToken(token0, height)
	b.EnsureToken(token1, height)
	p := &models.Pair{
		ID:            b.reg.nextPairID.Add(1),
		Token0:        token0,
		Token1:        token1,
		CreatedHeight: height,
	}
	b.pairs[pairKey{token0, token1}] = p
	b.NewPairs = append(b.NewPairs, p)
	return p
}

// Commit publishes staged tokens and pairs into the registry.
func (b *RegistryBatch) Commit() {
	for denom, t := range b.tokens {
		b.reg.tokens.Store(denom, t)
	}
	for _, p := range b.pairs {
		b.reg.storePair(p)
	}
}
