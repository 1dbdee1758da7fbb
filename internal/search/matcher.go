package search

import (
	"log"

	"acejump/internal/buffers"
	"acejump/internal/domain"
)

// Query holds the characters typed so far and their normalized form
type Query struct {
	raw        []rune
	normalized []rune
}

// String returns the query as typed
func (q Query) String() string {
	return string(q.raw)
}

// Len returns the number of typed runes
func (q Query) Len() int {
	return len(q.raw)
}

// Normalized returns the form used for comparison
func (q Query) Normalized() []rune {
	return q.normalized
}

// IsEmpty reports whether nothing was typed yet
func (q Query) IsEmpty() bool {
	return len(q.raw) == 0
}

func (q Query) extend(ch rune, n Normalizer) Query {
	raw := make([]rune, len(q.raw), len(q.raw)+1)
	copy(raw, q.raw)
	normalized := make([]rune, len(q.normalized), len(q.normalized)+1)
	copy(normalized, q.normalized)
	return Query{
		raw:        append(raw, ch),
		normalized: append(normalized, n.Rune(ch)),
	}
}

// Snapshot is the normalized text of every participating buffer taken at one instant
type Snapshot struct {
	Buffers []buffers.ID
	Texts   map[buffers.ID][]rune
	Scope   Scope
}

// Scope decides which match starts count. A visible-region scope keeps
// the regions it was captured with, so scrolling does not move it.
type Scope struct {
	source   buffers.Source
	boundary buffers.Boundary
	regions  map[buffers.ID]buffers.Region
}

// Contains reports whether a match may start at offset of buffer id
func (s Scope) Contains(id buffers.ID, offset int) bool {
	if s.boundary != buffers.VisibleRegion {
		return s.source.IsOffsetInScope(id, offset, s.boundary)
	}
	r, ok := s.regions[id]
	return ok && r.Contains(offset)
}

// Matcher finds literal occurrences of a query within buffer scope
type Matcher struct {
	source     buffers.Source
	boundary   buffers.Boundary
	normalizer Normalizer
}

// NewMatcher creates a matcher bound to one scope for its whole lifetime
func NewMatcher(source buffers.Source, boundary buffers.Boundary, normalizer Normalizer) *Matcher {
	return &Matcher{
		source:     source,
		boundary:   boundary,
		normalizer: normalizer,
	}
}

// Normalizer returns the normalizer used for text and queries
func (m *Matcher) Normalizer() Normalizer {
	return m.normalizer
}

// Scope captures the current scope of the live buffers in ids
func (m *Matcher) Scope(ids []buffers.ID) Scope {
	scope := Scope{source: m.source, boundary: m.boundary}
	if m.boundary != buffers.VisibleRegion {
		return scope
	}
	scope.regions = make(map[buffers.ID]buffers.Region, len(ids))
	for _, id := range ids {
		if m.source.IsLive(id) {
			scope.regions[id] = m.source.VisibleRegion(id)
		}
	}
	return scope
}

// Snapshot reads and normalizes the text of all live buffers in ids,
// together with their scope as it is right now
func (m *Matcher) Snapshot(ids []buffers.ID) Snapshot {
	return m.snapshotIn(ids, m.Scope(ids))
}

func (m *Matcher) snapshotIn(ids []buffers.ID, scope Scope) Snapshot {
	snap := Snapshot{Texts: make(map[buffers.ID][]rune, len(ids)), Scope: scope}
	for _, id := range ids {
		if !m.source.IsLive(id) {
			continue
		}
		snap.Buffers = append(snap.Buffers, id)
		snap.Texts[id] = m.normalizer.Runes(m.source.Text(id))
	}
	return snap
}

// Match returns every in-scope offset where query occurs, ordered by
// buffer order and then by offset. Overlapping occurrences are included.
// The empty query matches nothing.
func (m *Matcher) Match(query []rune, snap Snapshot) []domain.Match {
	if len(query) == 0 {
		return nil
	}

	var results []domain.Match
	for _, id := range snap.Buffers {
		text := snap.Texts[id]
		for i := 0; i+len(query) <= len(text); i++ {
			if !buffers.HasAt(text, i, query) || !snap.Scope.Contains(id, i) {
				continue
			}
			results = append(results, domain.Match{Buffer: id, Left: i, Right: i + len(query)})
		}
	}
	return results
}

// Processor keeps the live match set of one session as the query grows
type Processor struct {
	matcher  *Matcher
	buffers  []buffers.ID
	scope    Scope
	query    Query
	results  []domain.Match
	snapshot Snapshot
}

// NewProcessor creates a processor with an empty query. The scope of ids
// is captured here and kept for the processor's lifetime.
func NewProcessor(matcher *Matcher, ids []buffers.ID) *Processor {
	return &Processor{
		matcher: matcher,
		buffers: ids,
		scope:   matcher.Scope(ids),
	}
}

// Type appends ch to the query. Once the query has matches, a rune that
// would leave no matches is rejected and the query stays unchanged.
func (p *Processor) Type(ch rune) bool {
	next := p.query.extend(ch, p.matcher.normalizer)
	snap := p.matcher.snapshotIn(p.buffers, p.scope)
	results := p.matcher.Match(next.normalized, snap)

	if len(results) == 0 && len(p.results) > 0 {
		log.Printf("Search: dropping %q, %q would have no matches", ch, next.String())
		return false
	}

	p.query = next
	p.results = results
	p.snapshot = snap
	return true
}

// Refresh recomputes the matches of the current query against the current text
func (p *Processor) Refresh() {
	p.snapshot = p.matcher.snapshotIn(p.buffers, p.scope)
	p.results = p.matcher.Match(p.query.normalized, p.snapshot)
}

// Reset clears the query and matches. The captured scope is kept.
func (p *Processor) Reset() {
	p.query = Query{}
	p.results = nil
	p.snapshot = Snapshot{}
}

// Query returns the current query
func (p *Processor) Query() Query {
	return p.query
}

// Results returns the current matches
func (p *Processor) Results() []domain.Match {
	return p.results
}

// Snapshot returns the normalized text the current matches were computed on
func (p *Processor) Snapshot() Snapshot {
	return p.snapshot
}
