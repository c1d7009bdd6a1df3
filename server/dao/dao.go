// Package dao provides data access objects for the workbench's
// persistent model: glyphs, graphemes (with their glyph composition and
// phonemes), lexicon entries (with their spelling junction and ancestry
// edges/closure), and the settings bag. Concrete implementations live
// in sqlite (the durable store) and inmem (a map-backed mirror used for
// tests and offline operation).
package dao

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness or referential constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from storage format to model format")
)

// Store holds all of the repositories plus the status, clear and close
// operations shared across them.
type Store interface {
	Glyphs() GlyphRepository
	Graphemes() GraphemeRepository
	Phonemes() PhonemeRepository
	Lexicon() LexiconRepository
	Settings() SettingsRepository

	// Status reports lightweight counts for the Database API's
	// getStatus operation.
	Status(ctx context.Context) (Status, error)

	// Clear truncates every table, preserving schema.
	Clear(ctx context.Context) error

	// Close releases any underlying resources (connections, file
	// handles).
	Close() error
}

// Status is the Database API's getStatus payload.
type Status struct {
	Initialized    bool
	GlyphCount     int
	GraphemeCount  int
	LexiconCount   int
	LastPersisted  *time.Time
}

// Glyph is the atomic visual unit. SVGData is an opaque payload; the
// drawing surface that produces it is out of scope here.
type Glyph struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SVGData   string    `json:"svg_data"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlyphUsage pairs a Glyph with its usage count (number of
// grapheme_glyph rows referencing it).
type GlyphUsage struct {
	Glyph
	UsageCount int
}

type GlyphRepository interface {
	Create(ctx context.Context, g Glyph) (Glyph, error)
	GetByID(ctx context.Context, id int64) (Glyph, error)
	GetAll(ctx context.Context) ([]Glyph, error)
	GetAllWithUsage(ctx context.Context) ([]GlyphUsage, error)
	Search(ctx context.Context, query string) ([]Glyph, error)
	Update(ctx context.Context, id int64, g Glyph) (Glyph, error)

	// Delete removes the glyph. It fails with ErrConstraintViolation if
	// any grapheme_glyph row references it.
	Delete(ctx context.Context, id int64) error

	// ForceDelete unlinks the glyph from every grapheme's composition
	// before deleting it.
	ForceDelete(ctx context.Context, id int64) error

	// CascadeDelete deletes every grapheme that references this glyph,
	// then the glyph itself.
	CascadeDelete(ctx context.Context, id int64) error

	NameExists(ctx context.Context, name string) (bool, error)
	UsageCount(ctx context.Context, id int64) (int, error)
}

// GraphemeGlyph is one row of a grapheme's ordered glyph composition.
type GraphemeGlyph struct {
	GlyphID   int64  `json:"glyph_id"`
	Position  int    `json:"position"`
	Transform string `json:"transform"`
}

// Grapheme is the unit that composes glyphs and carries phonemes.
type Grapheme struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphemeComplete bundles a Grapheme with its glyph composition and
// phonemes, as returned by getByIdComplete/getAllComplete.
type GraphemeComplete struct {
	Grapheme
	Glyphs   []GraphemeGlyph
	Phonemes []Phoneme
}

type GraphemeRepository interface {
	Create(ctx context.Context, g Grapheme, glyphs []GraphemeGlyph, phonemes []Phoneme) (GraphemeComplete, error)
	GetByID(ctx context.Context, id int64) (Grapheme, error)
	GetByIDComplete(ctx context.Context, id int64) (GraphemeComplete, error)
	GetAll(ctx context.Context) ([]Grapheme, error)
	GetAllComplete(ctx context.Context) ([]GraphemeComplete, error)
	Search(ctx context.Context, query string) ([]Grapheme, error)
	Update(ctx context.Context, id int64, g Grapheme) (Grapheme, error)
	UpdateGlyphs(ctx context.Context, id int64, glyphs []GraphemeGlyph) (GraphemeComplete, error)

	// Delete fails with ErrConstraintViolation if any lexicon entry's
	// spelling junction references this grapheme.
	Delete(ctx context.Context, id int64) error

	GetByPhoneme(ctx context.Context, phoneme string) ([]Grapheme, error)

	// GlyphIDs returns the ordered glyph ids composing a grapheme.
	GlyphIDs(ctx context.Context, id int64) ([]int64, error)
}

// Phoneme is one IPA pronunciation owned by a grapheme.
type Phoneme struct {
	ID                int64  `json:"id"`
	GraphemeID        int64  `json:"grapheme_id"`
	Phoneme           string `json:"phoneme"`
	UseInAutoSpelling bool   `json:"use_in_auto_spelling"`
	Context           string `json:"context"`
}

type PhonemeRepository interface {
	Add(ctx context.Context, p Phoneme) (Phoneme, error)
	GetByID(ctx context.Context, id int64) (Phoneme, error)
	GetByGraphemeID(ctx context.Context, graphemeID int64) ([]Phoneme, error)
	Update(ctx context.Context, id int64, p Phoneme) (Phoneme, error)
	Delete(ctx context.Context, id int64) error
	DeleteAllForGrapheme(ctx context.Context, graphemeID int64) error

	// GetAutoSpelling returns every phoneme with UseInAutoSpelling set,
	// across all graphemes, for C2's phoneme table build.
	GetAutoSpelling(ctx context.Context) ([]Phoneme, error)
}

// AncestryType classifies one ancestry edge.
type AncestryType string

const (
	AncestryDerived  AncestryType = "derived"
	AncestryBorrowed AncestryType = "borrowed"
	AncestryCompound AncestryType = "compound"
	AncestryBlend    AncestryType = "blend"
	AncestryCalque   AncestryType = "calque"
	AncestryOther    AncestryType = "other"
)

// AncestryEdge is one adjacency edge: LexiconID (child) derives from
// AncestorID (parent).
type AncestryEdge struct {
	LexiconID  int64        `json:"lexicon_id"`
	AncestorID int64        `json:"ancestor_id"`
	Position   int          `json:"position"`
	Type       AncestryType `json:"ancestry_type"`
}

// Lexicon is a lexicon entry. GlyphOrder is the codec's encoded form
// (see internal/spelling); it is the source of truth for spelling.
type Lexicon struct {
	ID             int64     `json:"id"`
	Lemma          string    `json:"lemma"`
	Pronunciation  string    `json:"pronunciation"`
	IsNative       bool      `json:"is_native"`
	AutoSpell      bool      `json:"auto_spell"`
	Meaning        string    `json:"meaning"`
	PartOfSpeech   string    `json:"part_of_speech"`
	Notes          string    `json:"notes"`
	GlyphOrder     string    `json:"glyph_order"`
	NeedsAttention bool      `json:"needs_attention"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LexiconUsage pairs a Lexicon entry with its descendant count.
type LexiconUsage struct {
	Lexicon
	UsageCount int
}

type LexiconRepository interface {
	Create(ctx context.Context, l Lexicon) (Lexicon, error)
	GetByID(ctx context.Context, id int64) (Lexicon, error)
	GetAll(ctx context.Context) ([]Lexicon, error)
	GetAllWithUsage(ctx context.Context) ([]LexiconUsage, error)
	Search(ctx context.Context, query string) ([]Lexicon, error)
	GetByNative(ctx context.Context, isNative bool) ([]Lexicon, error)
	Update(ctx context.Context, id int64, l Lexicon) (Lexicon, error)

	// UpdateSpelling sets GlyphOrder and rebuilds the spelling junction
	// for id in a single call.
	UpdateSpelling(ctx context.Context, id int64, glyphOrder string) (Lexicon, error)

	// Delete removes the entry, its junction rows, and its ancestry
	// rows (both sides), then the caller is responsible for triggering
	// a closure rebuild.
	Delete(ctx context.Context, id int64) error

	// SpellingGraphemeIDs returns the junction's current grapheme ids
	// for id, for invariant checks.
	SpellingGraphemeIDs(ctx context.Context, id int64) ([]int64, error)

	// EntriesReferencingGrapheme returns every lexicon entry whose
	// junction references graphemeID, for grapheme-deletion repair.
	EntriesReferencingGrapheme(ctx context.Context, graphemeID int64) ([]Lexicon, error)

	// Ancestry
	GetAncestryEdges(ctx context.Context, lexiconID int64) ([]AncestryEdge, error)
	AllEdges(ctx context.Context) ([]AncestryEdge, error)
	SetAncestry(ctx context.Context, lexiconID int64, edges []AncestryEdge) error
}

// SettingsRepository persists the settings bag as an opaque JSON blob.
type SettingsRepository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, json string) error
}
