package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/etymolog/etymolog/internal/ancestry"
	"github.com/etymolog/etymolog/internal/foldcase"
	"github.com/etymolog/etymolog/internal/spelling"
	"github.com/etymolog/etymolog/server/dao"
)

// LexiconRepository is a map-backed dao.LexiconRepository. The spelling
// junction is not stored separately; it is always recomputed from
// GlyphOrder via internal/spelling, which keeps the "junction equals
// graphemeIdSet(decode(glyph_order))" invariant true by construction
// rather than by careful bookkeeping. The ancestry closure mirrors the
// sqlite backend's persisted lexicon_ancestry_closure table: it is kept
// in r.closure rather than recomputed on every read, rebuilt whenever
// SetAncestry changes the underlying edges.
type LexiconRepository struct {
	byID     map[int64]dao.Lexicon
	ancestry map[int64][]dao.AncestryEdge // lexiconID (child) -> edges
	closure  *ancestry.Closure
	nextID   int64
}

func NewLexiconRepository() *LexiconRepository {
	return &LexiconRepository{
		byID:     make(map[int64]dao.Lexicon),
		ancestry: make(map[int64][]dao.AncestryEdge),
		closure:  ancestry.NewClosure(),
		nextID:   1,
	}
}

func (r *LexiconRepository) clear() {
	r.byID = make(map[int64]dao.Lexicon)
	r.ancestry = make(map[int64][]dao.AncestryEdge)
	r.closure = ancestry.NewClosure()
	r.nextID = 1
}

func (r *LexiconRepository) rebuildClosure() {
	var edges []ancestry.Edge
	for _, es := range r.ancestry {
		for _, e := range es {
			edges = append(edges, ancestry.Edge{Child: e.LexiconID, Parent: e.AncestorID, Position: e.Position, Type: string(e.Type)})
		}
	}
	r.closure.Rebuild(edges)
}

func (r *LexiconRepository) Create(ctx context.Context, l dao.Lexicon) (dao.Lexicon, error) {
	l.ID = r.nextID
	r.nextID++
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	r.byID[l.ID] = l
	return l, nil
}

func (r *LexiconRepository) GetByID(ctx context.Context, id int64) (dao.Lexicon, error) {
	l, ok := r.byID[id]
	if !ok {
		return dao.Lexicon{}, dao.ErrNotFound
	}
	return l, nil
}

func (r *LexiconRepository) GetAll(ctx context.Context) ([]dao.Lexicon, error) {
	all := make([]dao.Lexicon, 0, len(r.byID))
	for _, l := range r.byID {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].NeedsAttention != all[j].NeedsAttention {
			return all[i].NeedsAttention // true (needs attention) sorts first
		}
		ki, kj := sortKey(all[i]), sortKey(all[j])
		if ki != kj {
			return ki < kj
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func sortKey(l dao.Lexicon) string {
	if l.Pronunciation != "" {
		return foldcase.Fold(l.Pronunciation)
	}
	return foldcase.Fold(l.Lemma)
}

func (r *LexiconRepository) GetAllWithUsage(ctx context.Context) ([]dao.LexiconUsage, error) {
	all, _ := r.GetAll(ctx)
	out := make([]dao.LexiconUsage, len(all))
	for i, l := range all {
		out[i] = dao.LexiconUsage{Lexicon: l, UsageCount: len(r.closure.DescendantsOf(l.ID))}
	}
	return out, nil
}

func (r *LexiconRepository) Search(ctx context.Context, query string) ([]dao.Lexicon, error) {
	all, _ := r.GetAll(ctx)
	var out []dao.Lexicon
	for _, l := range all {
		if foldcase.Contains(l.Lemma, query) ||
			foldcase.Contains(l.Pronunciation, query) ||
			foldcase.Contains(l.Meaning, query) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LexiconRepository) GetByNative(ctx context.Context, isNative bool) ([]dao.Lexicon, error) {
	all, _ := r.GetAll(ctx)
	var out []dao.Lexicon
	for _, l := range all {
		if l.IsNative == isNative {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LexiconRepository) Update(ctx context.Context, id int64, l dao.Lexicon) (dao.Lexicon, error) {
	existing, ok := r.byID[id]
	if !ok {
		return dao.Lexicon{}, dao.ErrNotFound
	}
	l.ID = id
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = time.Now()
	r.byID[id] = l
	return l, nil
}

func (r *LexiconRepository) UpdateSpelling(ctx context.Context, id int64, glyphOrder string) (dao.Lexicon, error) {
	existing, ok := r.byID[id]
	if !ok {
		return dao.Lexicon{}, dao.ErrNotFound
	}
	existing.GlyphOrder = glyphOrder
	existing.NeedsAttention = false
	existing.UpdatedAt = time.Now()
	r.byID[id] = existing
	return existing, nil
}

func (r *LexiconRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.ancestry, id)
	for child, edges := range r.ancestry {
		filtered := edges[:0]
		for _, e := range edges {
			if e.AncestorID != id {
				filtered = append(filtered, e)
			}
		}
		r.ancestry[child] = filtered
	}
	r.rebuildClosure()
	return nil
}

func (r *LexiconRepository) SpellingGraphemeIDs(ctx context.Context, id int64) ([]int64, error) {
	l, ok := r.byID[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	entries := spelling.Decode(l.GlyphOrder)
	return spelling.GraphemeIDSet(entries), nil
}

func (r *LexiconRepository) EntriesReferencingGrapheme(ctx context.Context, graphemeID int64) ([]dao.Lexicon, error) {
	var out []dao.Lexicon
	for _, l := range r.byID {
		entries := spelling.Decode(l.GlyphOrder)
		for _, gid := range spelling.GraphemeIDSet(entries) {
			if gid == graphemeID {
				out = append(out, l)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LexiconRepository) GetAncestryEdges(ctx context.Context, lexiconID int64) ([]dao.AncestryEdge, error) {
	edges := append([]dao.AncestryEdge(nil), r.ancestry[lexiconID]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Position < edges[j].Position })
	return edges, nil
}

func (r *LexiconRepository) AllEdges(ctx context.Context) ([]dao.AncestryEdge, error) {
	var all []dao.AncestryEdge
	for _, edges := range r.ancestry {
		all = append(all, edges...)
	}
	return all, nil
}

func (r *LexiconRepository) SetAncestry(ctx context.Context, lexiconID int64, edges []dao.AncestryEdge) error {
	if _, ok := r.byID[lexiconID]; !ok {
		return dao.ErrNotFound
	}
	stored := make([]dao.AncestryEdge, len(edges))
	for i, e := range edges {
		e.LexiconID = lexiconID
		stored[i] = e
	}
	r.ancestry[lexiconID] = stored
	r.rebuildClosure()
	return nil
}
