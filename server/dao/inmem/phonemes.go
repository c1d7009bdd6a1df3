package inmem

import (
	"context"
	"sort"

	"github.com/etymolog/etymolog/server/dao"
)

// PhonemesRepository is a map-backed dao.PhonemeRepository.
type PhonemesRepository struct {
	byID   map[int64]dao.Phoneme
	nextID int64
}

func NewPhonemesRepository() *PhonemesRepository {
	return &PhonemesRepository{byID: make(map[int64]dao.Phoneme), nextID: 1}
}

func (r *PhonemesRepository) clear() {
	r.byID = make(map[int64]dao.Phoneme)
	r.nextID = 1
}

func (r *PhonemesRepository) Add(ctx context.Context, p dao.Phoneme) (dao.Phoneme, error) {
	p.ID = r.nextID
	r.nextID++
	r.byID[p.ID] = p
	return p, nil
}

func (r *PhonemesRepository) GetByID(ctx context.Context, id int64) (dao.Phoneme, error) {
	p, ok := r.byID[id]
	if !ok {
		return dao.Phoneme{}, dao.ErrNotFound
	}
	return p, nil
}

func (r *PhonemesRepository) GetByGraphemeID(ctx context.Context, graphemeID int64) ([]dao.Phoneme, error) {
	var out []dao.Phoneme
	for _, p := range r.byID {
		if p.GraphemeID == graphemeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PhonemesRepository) Update(ctx context.Context, id int64, p dao.Phoneme) (dao.Phoneme, error) {
	if _, ok := r.byID[id]; !ok {
		return dao.Phoneme{}, dao.ErrNotFound
	}
	p.ID = id
	r.byID[id] = p
	return p, nil
}

func (r *PhonemesRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return dao.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *PhonemesRepository) DeleteAllForGrapheme(ctx context.Context, graphemeID int64) error {
	r.deleteAllForGraphemeLocked(graphemeID)
	return nil
}

// deleteAllForGraphemeLocked is called from DeleteAllForGrapheme, from
// the glyphs repository's cascade-delete path and from the graphemes
// repository's Delete; none of them holds a lock (the store assumes a
// single writer, see the engine's concurrency model).
func (r *PhonemesRepository) deleteAllForGraphemeLocked(graphemeID int64) {
	for id, p := range r.byID {
		if p.GraphemeID == graphemeID {
			delete(r.byID, id)
		}
	}
}

func (r *PhonemesRepository) GetAutoSpelling(ctx context.Context) ([]dao.Phoneme, error) {
	var out []dao.Phoneme
	for _, p := range r.byID {
		if p.UseInAutoSpelling {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
