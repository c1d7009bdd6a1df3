// Package settings holds the workbench-wide configuration bag: gallery
// view defaults, autosave interval, punctuation bindings, and writing
// system layout hints, plus a push-based subscription channel that
// notifies listeners after every successful update.
package settings

import "sync"

// GalleryView selects the default glyph/grapheme gallery presentation.
type GalleryView string

const (
	GalleryCompact  GalleryView = "compact"
	GalleryDetailed GalleryView = "detailed"
	GalleryExpanded GalleryView = "expanded"
)

// Direction is a layout flow direction.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
	TTB Direction = "ttb"
	BTU Direction = "btu"
)

// GlyphStacking selects how glyphs within a grapheme stack visually.
type GlyphStacking string

const (
	StackHorizontal GlyphStacking = "horizontal"
	StackVertical   GlyphStacking = "vertical"
	StackNone       GlyphStacking = "none"
)

// WordWrap selects the unit layout wraps on.
type WordWrap string

const (
	WrapWord   WordWrap = "word"
	WrapGlyph  WordWrap = "glyph"
	WrapNone   WordWrap = "none"
)

// BaselineAlignment selects vertical glyph alignment.
type BaselineAlignment string

const (
	BaselineTop    BaselineAlignment = "top"
	BaselineCenter BaselineAlignment = "center"
	BaselineBottom BaselineAlignment = "bottom"
)

// Mark identifies one punctuation role resolvable via PunctuationConfig.
type Mark string

const (
	MarkWordSeparator   Mark = "wordSeparator"
	MarkSentence        Mark = "sentence"
	MarkComma           Mark = "comma"
	MarkQuestion        Mark = "question"
	MarkExclamation     Mark = "exclamation"
	MarkColon           Mark = "colon"
	MarkSemicolon       Mark = "semicolon"
	MarkEllipsis        Mark = "ellipsis"
	MarkQuotationOpen   Mark = "quotationOpen"
	MarkQuotationClose  Mark = "quotationClose"
)

// defaultIPA is the fallback IPA character emitted for a mark when no
// grapheme is bound and the mark is not hidden.
var defaultIPA = map[Mark]string{
	MarkWordSeparator:  " ",
	MarkSentence:       ".",
	MarkComma:          ",",
	MarkQuestion:       "?",
	MarkExclamation:    "!",
	MarkColon:          ":",
	MarkSemicolon:      ";",
	MarkEllipsis:       "…",
	MarkQuotationOpen:  "“",
	MarkQuotationClose: "”",
}

// DefaultIPA returns the default IPA character for a punctuation mark.
func DefaultIPA(m Mark) string {
	return defaultIPA[m]
}

// MarkBinding is one mark's resolution configuration.
type MarkBinding struct {
	GraphemeID *int64
	UseNoGlyph bool
}

// WritingSystem holds presentation-layer hints that are opaque to the
// core engine except where the phrase translator resolves separators.
type WritingSystem struct {
	GlyphDirection    Direction
	WordOrder         Direction
	LineProgression   Direction
	GlyphStacking     GlyphStacking
	WordWrap          WordWrap
	BaselineAlignment BaselineAlignment
}

// Settings is the full settings bag.
type Settings struct {
	SimpleScriptSystem bool
	DefaultGalleryView GalleryView
	AutoSaveInterval   int // milliseconds; 0 disables
	AutoManageGlyphs   bool
	Punctuation        map[Mark]MarkBinding
	WritingSystem      WritingSystem
}

// Default returns the recognized option defaults.
func Default() Settings {
	return Settings{
		SimpleScriptSystem: false,
		DefaultGalleryView: GalleryCompact,
		AutoSaveInterval:   30000,
		AutoManageGlyphs:   false,
		Punctuation:        map[Mark]MarkBinding{},
		WritingSystem: WritingSystem{
			GlyphDirection:    LTR,
			WordOrder:         LTR,
			LineProgression:   TTB,
			GlyphStacking:     StackHorizontal,
			WordWrap:          WrapWord,
			BaselineAlignment: BaselineBottom,
		},
	}
}

// Bag holds the current Settings plus its subscribers. It is safe for
// concurrent use, though the engine's single-writer model means writes
// are not expected to race.
type Bag struct {
	mu          sync.Mutex
	current     Settings
	subscribers map[int]chan Settings
	nextSubID   int
}

// NewBag returns a Bag seeded with Default().
func NewBag() *Bag {
	return &Bag{current: Default(), subscribers: make(map[int]chan Settings)}
}

// Get returns the current settings.
func (b *Bag) Get() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Update applies a partial update function to the current settings and
// notifies every subscriber with the new value. The dispatch to
// subscribers happens on a buffered, non-blocking send: a slow listener
// drops the notification rather than blocking Update, so there is no
// re-entrancy into the settings layer from within a listener and no way
// for a stalled listener to stall a caller of Update.
func (b *Bag) Update(apply func(Settings) Settings) Settings {
	b.mu.Lock()
	b.current = apply(b.current)
	updated := b.current
	listeners := make([]chan Settings, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		listeners = append(listeners, ch)
	}
	b.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- updated:
		default:
		}
	}

	return updated
}

// Reset restores Default() and notifies subscribers, same as Update.
func (b *Bag) Reset() Settings {
	return b.Update(func(Settings) Settings { return Default() })
}

// Subscribe registers a new listener and returns a receive channel plus
// an unsubscribe function. The channel is buffered (capacity 1): while
// one notification is still unconsumed, later updates are not delivered
// to that subscriber (see Update).
func (b *Bag) Subscribe() (<-chan Settings, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSubID
	b.nextSubID++
	ch := make(chan Settings, 1)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}

	return ch, unsubscribe
}

// Resolution is the outcome of Resolve for one punctuation mark: either
// "hidden" (no output), a bound grapheme id, or the default IPA
// character, per the punctuation config contract: useNoGlyph wins when
// true; otherwise a bound, extant grapheme id wins; otherwise the
// default IPA character is used. Whether a grapheme exists is answered
// by a callback the caller supplies (the engine, which knows what
// graphemes currently exist) rather than tracked by this package.
type Resolution struct {
	Hidden     bool
	GraphemeID int64 // valid only when !Hidden && HasGrapheme
	HasGrapheme bool
	IPA        string // valid only when !Hidden && !HasGrapheme
}

// Resolve resolves mark m given the bag's current punctuation config.
// graphemeExists reports whether a candidate grapheme id still exists;
// callers pass a closure backed by their grapheme repository.
func (b *Bag) Resolve(m Mark, graphemeExists func(id int64) bool) Resolution {
	s := b.Get()
	binding, ok := s.Punctuation[m]
	if !ok {
		return Resolution{IPA: DefaultIPA(m)}
	}
	if binding.UseNoGlyph {
		return Resolution{Hidden: true}
	}
	if binding.GraphemeID != nil && graphemeExists(*binding.GraphemeID) {
		return Resolution{HasGrapheme: true, GraphemeID: *binding.GraphemeID}
	}
	return Resolution{IPA: DefaultIPA(m)}
}
