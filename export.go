package etymolog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"

	"github.com/etymolog/etymolog/internal/integrity"
	"github.com/etymolog/etymolog/internal/settings"
	"github.com/etymolog/etymolog/internal/spelling"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/serr"
)

// ExportFormat selects the shape of an export/import blob.
type ExportFormat string

const (
	FormatBinary ExportFormat = "binary"
	FormatJSON   ExportFormat = "json"
)

const jsonExportMagic = "ETYMOLOG_EXPORT"
const jsonExportVersion = 1

// graphemeGlyphRow is one grapheme_glyphs table row, reconstructed by
// pairing GraphemeComplete.Glyphs back up with its owning grapheme id
// (dao.GraphemeGlyph itself carries no GraphemeID, since it is nested
// under the grapheme it belongs to everywhere else it's used).
type graphemeGlyphRow struct {
	GraphemeID int64  `json:"grapheme_id"`
	GlyphID    int64  `json:"glyph_id"`
	Position   int    `json:"position"`
	Transform  string `json:"transform"`
}

// lexiconSpellingRow is one lexicon_spelling junction row, reconstructed
// from LexiconRepository.SpellingGraphemeIDs's first-appearance-ordered
// id list.
type lexiconSpellingRow struct {
	LexiconID  int64 `json:"lexicon_id"`
	GraphemeID int64 `json:"grapheme_id"`
	Position   int   `json:"position"`
}

// closureRow is one lexicon_ancestry_closure table row.
type closureRow struct {
	AncestorID   int64 `json:"ancestor_id"`
	DescendantID int64 `json:"descendant_id"`
	Depth        int   `json:"depth"`
}

// snapshot is the full table contents plus the settings bag, the shape
// shared by both the binary (REZI) and JSON export formats.
type snapshot struct {
	ExportID               string
	Glyphs                 []dao.Glyph
	Graphemes              []dao.Grapheme
	GraphemeGlyphs         []graphemeGlyphRow
	Phonemes               []dao.Phoneme
	Lexicon                []dao.Lexicon
	LexiconSpelling        []lexiconSpellingRow
	LexiconAncestry        []dao.AncestryEdge
	LexiconAncestryClosure []closureRow
	Settings               settings.Settings
}

func (e *Engine) buildSnapshot(ctx context.Context) (snapshot, error) {
	glyphs, err := e.store.Glyphs().GetAll(ctx)
	if err != nil {
		return snapshot{}, serr.OperationFailed("reading glyphs for export", err)
	}
	graphemesComplete, err := e.store.Graphemes().GetAllComplete(ctx)
	if err != nil {
		return snapshot{}, serr.OperationFailed("reading graphemes for export", err)
	}

	graphemes := make([]dao.Grapheme, len(graphemesComplete))
	var phonemes []dao.Phoneme
	var graphemeGlyphs []graphemeGlyphRow
	for i, gc := range graphemesComplete {
		graphemes[i] = gc.Grapheme
		phonemes = append(phonemes, gc.Phonemes...)
		for _, gg := range gc.Glyphs {
			graphemeGlyphs = append(graphemeGlyphs, graphemeGlyphRow{
				GraphemeID: gc.ID, GlyphID: gg.GlyphID, Position: gg.Position, Transform: gg.Transform,
			})
		}
	}

	lexicon, err := e.store.Lexicon().GetAll(ctx)
	if err != nil {
		return snapshot{}, serr.OperationFailed("reading lexicon for export", err)
	}
	var lexiconSpelling []lexiconSpellingRow
	for _, l := range lexicon {
		ids, err := e.store.Lexicon().SpellingGraphemeIDs(ctx, l.ID)
		if err != nil {
			return snapshot{}, serr.OperationFailed("reading spelling junction for export", err)
		}
		for pos, gid := range ids {
			lexiconSpelling = append(lexiconSpelling, lexiconSpellingRow{LexiconID: l.ID, GraphemeID: gid, Position: pos})
		}
	}

	ancestry, err := e.store.Lexicon().AllEdges(ctx)
	if err != nil {
		return snapshot{}, serr.OperationFailed("reading ancestry edges for export", err)
	}

	e.mu.RLock()
	closureRows := e.closure.AllRows()
	e.mu.RUnlock()
	closure := make([]closureRow, len(closureRows))
	for i, r := range closureRows {
		closure[i] = closureRow{AncestorID: r.Ancestor, DescendantID: r.Descendant, Depth: r.Depth}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return snapshot{}, serr.OperationFailed("generating export id", err)
	}

	return snapshot{
		ExportID:               id.String(),
		Glyphs:                 glyphs,
		Graphemes:              graphemes,
		GraphemeGlyphs:         graphemeGlyphs,
		Phonemes:               phonemes,
		Lexicon:                lexicon,
		LexiconSpelling:        lexiconSpelling,
		LexiconAncestry:        ancestry,
		LexiconAncestryClosure: closure,
		Settings:               e.settings.Get(),
	}, nil
}

// jsonEnvelope is the self-describing export/import shape named in §6:
// {magic, version, tables, settings}, plus the export id and CRC-32
// checksum computed over the table payload.
type jsonEnvelope struct {
	Magic     string                     `json:"magic"`
	Version   int                        `json:"version"`
	ExportID  string                     `json:"exportId"`
	Checksum  string                     `json:"checksum"`
	Tables    map[string]json.RawMessage `json:"tables"`
	Settings  settings.Settings          `json:"settings"`
}

func marshalTables(s snapshot) (map[string]json.RawMessage, error) {
	tables := map[string]any{
		"glyphs":                   s.Glyphs,
		"graphemes":                s.Graphemes,
		"grapheme_glyphs":          s.GraphemeGlyphs,
		"phonemes":                 s.Phonemes,
		"lexicon":                  s.Lexicon,
		"lexicon_spelling":         s.LexiconSpelling,
		"lexicon_ancestry":         s.LexiconAncestry,
		"lexicon_ancestry_closure": s.LexiconAncestryClosure,
	}
	out := make(map[string]json.RawMessage, len(tables))
	for name, rows := range tables {
		b, err := json.Marshal(rows)
		if err != nil {
			return nil, serr.OperationFailed(fmt.Sprintf("marshaling table %q", name), err)
		}
		out[name] = b
	}
	return out, nil
}

// Export serializes the full store to the requested format. Binary
// export uses REZI (the same whole-struct binary codec the storage
// layer uses for its own blobs); JSON export produces the
// self-describing envelope from §6, with a CRC-32 checksum over the
// table payload for integrity checking on import.
func (e *Engine) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	snap, err := e.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatBinary:
		return rezi.EncBinary(&snap), nil
	case FormatJSON:
		tables, err := marshalTables(snap)
		if err != nil {
			return nil, err
		}
		tableBlob, err := json.Marshal(tables)
		if err != nil {
			return nil, serr.OperationFailed("marshaling export tables", err)
		}
		env := jsonEnvelope{
			Magic:    jsonExportMagic,
			Version:  jsonExportVersion,
			ExportID: snap.ExportID,
			Checksum: fmt.Sprintf("%08x", integrity.CRC32(tableBlob)),
			Tables:   tables,
			Settings: snap.Settings,
		}
		b, err := json.Marshal(env)
		if err != nil {
			return nil, serr.OperationFailed("marshaling export envelope", err)
		}
		return b, nil
	default:
		return nil, serr.Validation(fmt.Sprintf("unrecognized export format %q", format))
	}
}

// Import replaces the full store contents from a blob previously
// produced by Export, then re-runs migrations (trivially true here
// since the schema the blob was produced under is the schema already
// running) and rebuilds the ancestry closure. Binary blobs are trusted
// (they round-trip the REZI encoding exactly); JSON blobs are validated
// against the magic, version, and the presence of every required table
// before anything is touched, and the checksum is verified.
func (e *Engine) Import(ctx context.Context, format ExportFormat, data []byte) error {
	if err := e.requireReady(); err != nil {
		return err
	}

	var snap snapshot
	switch format {
	case FormatBinary:
		n, err := rezi.DecBinary(data, &snap)
		if err != nil {
			return serr.Validation(fmt.Sprintf("malformed binary export blob: %s", err.Error()))
		}
		if n != len(data) {
			return serr.Validation(fmt.Sprintf("binary export blob decoded byte count mismatch; consumed %d/%d bytes", n, len(data)))
		}
	case FormatJSON:
		var env jsonEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return serr.Validation(fmt.Sprintf("malformed JSON export envelope: %s", err.Error()))
		}
		if env.Magic != jsonExportMagic {
			return serr.Validation(fmt.Sprintf("unrecognized export magic %q", env.Magic))
		}
		if env.Version != jsonExportVersion {
			return serr.Validation(fmt.Sprintf("unsupported export version %d", env.Version))
		}
		required := []string{
			"glyphs", "graphemes", "grapheme_glyphs", "phonemes",
			"lexicon", "lexicon_spelling", "lexicon_ancestry", "lexicon_ancestry_closure",
		}
		for _, name := range required {
			raw, ok := env.Tables[name]
			if !ok {
				return serr.Validation(fmt.Sprintf("export envelope is missing table %q", name))
			}
			trimmed := []byte(raw)
			firstNonSpace := byte(0)
			for _, b := range trimmed {
				if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
					firstNonSpace = b
					break
				}
			}
			if firstNonSpace != '[' {
				return serr.Validation(fmt.Sprintf("export envelope table %q is not an array", name))
			}
		}

		tableBlob, err := json.Marshal(env.Tables)
		if err != nil {
			return serr.OperationFailed("re-marshaling import tables for checksum", err)
		}
		if got := fmt.Sprintf("%08x", integrity.CRC32(tableBlob)); env.Checksum != "" && got != env.Checksum {
			return serr.Validation("export checksum does not match table contents")
		}

		if err := json.Unmarshal(env.Tables["glyphs"], &snap.Glyphs); err != nil {
			return serr.Validation("malformed glyphs table")
		}
		if err := json.Unmarshal(env.Tables["graphemes"], &snap.Graphemes); err != nil {
			return serr.Validation("malformed graphemes table")
		}
		if err := json.Unmarshal(env.Tables["grapheme_glyphs"], &snap.GraphemeGlyphs); err != nil {
			return serr.Validation("malformed grapheme_glyphs table")
		}
		if err := json.Unmarshal(env.Tables["phonemes"], &snap.Phonemes); err != nil {
			return serr.Validation("malformed phonemes table")
		}
		if err := json.Unmarshal(env.Tables["lexicon"], &snap.Lexicon); err != nil {
			return serr.Validation("malformed lexicon table")
		}
		if err := json.Unmarshal(env.Tables["lexicon_spelling"], &snap.LexiconSpelling); err != nil {
			return serr.Validation("malformed lexicon_spelling table")
		}
		if err := json.Unmarshal(env.Tables["lexicon_ancestry"], &snap.LexiconAncestry); err != nil {
			return serr.Validation("malformed lexicon_ancestry table")
		}
		if err := json.Unmarshal(env.Tables["lexicon_ancestry_closure"], &snap.LexiconAncestryClosure); err != nil {
			return serr.Validation("malformed lexicon_ancestry_closure table")
		}
		snap.Settings = env.Settings
		snap.ExportID = env.ExportID
	default:
		return serr.Validation(fmt.Sprintf("unrecognized import format %q", format))
	}

	if err := e.restoreSnapshot(ctx, snap); err != nil {
		return err
	}
	e.touchPersisted()
	return nil
}

// restoreSnapshot clears the store and repopulates every table from
// snap, reusing each repository's own Create path (which, for glyphs
// and graphemes, means ids are reassigned rather than preserved
// verbatim; the lexicon/ancestry/junction rows are relinked against the
// new ids via an old-id -> new-id map so cross-table references stay
// consistent).
func (e *Engine) restoreSnapshot(ctx context.Context, snap snapshot) error {
	if err := e.store.Clear(ctx); err != nil {
		return serr.OperationFailed("clearing store before import", err)
	}

	glyphIDMap := make(map[int64]int64, len(snap.Glyphs))
	for _, g := range snap.Glyphs {
		created, err := e.store.Glyphs().Create(ctx, dao.Glyph{Name: g.Name, SVGData: g.SVGData, Category: g.Category, Notes: g.Notes})
		if err != nil {
			return serr.OperationFailed("restoring glyphs", err)
		}
		glyphIDMap[g.ID] = created.ID
	}

	graphemeGlyphsByGrapheme := make(map[int64][]dao.GraphemeGlyph)
	for _, row := range snap.GraphemeGlyphs {
		newGlyphID, ok := glyphIDMap[row.GlyphID]
		if !ok {
			continue
		}
		graphemeGlyphsByGrapheme[row.GraphemeID] = append(graphemeGlyphsByGrapheme[row.GraphemeID],
			dao.GraphemeGlyph{GlyphID: newGlyphID, Position: row.Position, Transform: row.Transform})
	}
	phonemesByGrapheme := make(map[int64][]dao.Phoneme)
	for _, p := range snap.Phonemes {
		phonemesByGrapheme[p.GraphemeID] = append(phonemesByGrapheme[p.GraphemeID], p)
	}

	graphemeIDMap := make(map[int64]int64, len(snap.Graphemes))
	for _, g := range snap.Graphemes {
		glyphs := graphemeGlyphsByGrapheme[g.ID]
		sortGraphemeGlyphsByPosition(glyphs)
		created, err := e.store.Graphemes().Create(ctx, dao.Grapheme{Name: g.Name, Category: g.Category, Notes: g.Notes}, glyphs, phonemesByGrapheme[g.ID])
		if err != nil {
			return serr.OperationFailed("restoring graphemes", err)
		}
		graphemeIDMap[g.ID] = created.ID
	}

	lexiconSpellingByEntry := make(map[int64][]lexiconSpellingRow)
	for _, row := range snap.LexiconSpelling {
		lexiconSpellingByEntry[row.LexiconID] = append(lexiconSpellingByEntry[row.LexiconID], row)
	}

	lexiconIDMap := make(map[int64]int64, len(snap.Lexicon))
	for _, l := range snap.Lexicon {
		order, err := remapGlyphOrder(l.GlyphOrder, graphemeIDMap)
		if err != nil {
			return serr.OperationFailed("remapping lexicon spelling during import", err)
		}
		created, err := e.store.Lexicon().Create(ctx, dao.Lexicon{
			Lemma: l.Lemma, Pronunciation: l.Pronunciation, IsNative: l.IsNative, AutoSpell: l.AutoSpell,
			Meaning: l.Meaning, PartOfSpeech: l.PartOfSpeech, Notes: l.Notes, GlyphOrder: order,
		})
		if err != nil {
			return serr.OperationFailed("restoring lexicon", err)
		}
		if l.NeedsAttention {
			created.NeedsAttention = true
			if _, err := e.store.Lexicon().Update(ctx, created.ID, created); err != nil {
				return serr.OperationFailed("restoring lexicon needs_attention flag", err)
			}
		}
		lexiconIDMap[l.ID] = created.ID
	}

	for oldChildID, newChildID := range lexiconIDMap {
		var edges []dao.AncestryEdge
		for _, e2 := range snap.LexiconAncestry {
			if e2.LexiconID != oldChildID {
				continue
			}
			newAncestorID, ok := lexiconIDMap[e2.AncestorID]
			if !ok {
				continue
			}
			edges = append(edges, dao.AncestryEdge{LexiconID: newChildID, AncestorID: newAncestorID, Position: e2.Position, Type: e2.Type})
		}
		if len(edges) > 0 {
			if err := e.store.Lexicon().SetAncestry(ctx, newChildID, edges); err != nil {
				return serr.OperationFailed("restoring ancestry edges", err)
			}
		}
	}

	if err := e.persistSettings(ctx, snap.Settings); err != nil {
		return err
	}
	e.settings.Update(func(settings.Settings) settings.Settings { return snap.Settings })

	return e.rebuildAncestryClosure(ctx)
}

// remapGlyphOrder re-encodes an exported glyph_order string, rewriting
// each grapheme reference through idMap (the old-id -> new-id
// assignment produced while restoring graphemes). A reference to a
// grapheme id absent from idMap falls back to an IPA placeholder rather
// than failing the whole import, mirroring buildLexiconComplete's
// missing-grapheme handling.
func remapGlyphOrder(raw string, idMap map[int64]int64) (string, error) {
	entries := spelling.Decode(raw)
	for i, en := range entries {
		if en.Kind != spelling.GraphemeRef {
			continue
		}
		newID, ok := idMap[en.GraphemeID]
		if !ok {
			entries[i] = spelling.NewIPAChar(fmt.Sprintf("[?%d]", en.GraphemeID))
			continue
		}
		entries[i] = spelling.NewGraphemeRef(newID)
	}
	return spelling.Encode(entries), nil
}

func sortGraphemeGlyphsByPosition(gs []dao.GraphemeGlyph) {
	for i := 1; i < len(gs); i++ {
		for j := i; j > 0 && gs[j-1].Position > gs[j].Position; j-- {
			gs[j-1], gs[j] = gs[j], gs[j-1]
		}
	}
}
