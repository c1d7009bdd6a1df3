package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Default(t *testing.T) {
	assert := assert.New(t)

	d := Default()
	assert.Equal(GalleryCompact, d.DefaultGalleryView)
	assert.False(d.SimpleScriptSystem)
	assert.Equal(LTR, d.WritingSystem.GlyphDirection)
}

func Test_Bag_UpdateAndGet(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	updated := b.Update(func(s Settings) Settings {
		s.SimpleScriptSystem = true
		return s
	})

	assert.True(updated.SimpleScriptSystem)
	assert.True(b.Get().SimpleScriptSystem)
}

func Test_Bag_Subscribe_ReceivesUpdate(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Update(func(s Settings) Settings {
		s.AutoSaveInterval = 5000
		return s
	})

	select {
	case got := <-ch:
		assert.Equal(5000, got.AutoSaveInterval)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for settings update")
	}
}

func Test_Bag_Unsubscribe_ClosesChannel(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(ok)
}

func Test_Bag_Reset_RestoresDefaults(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	b.Update(func(s Settings) Settings {
		s.SimpleScriptSystem = true
		return s
	})

	reset := b.Reset()
	assert.False(reset.SimpleScriptSystem)
}

func Test_Resolve_NoBinding_UsesDefaultIPA(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	res := b.Resolve(MarkComma, func(int64) bool { return false })
	assert.False(res.Hidden)
	assert.False(res.HasGrapheme)
	assert.Equal(",", res.IPA)
}

func Test_Resolve_UseNoGlyph_Hidden(t *testing.T) {
	assert := assert.New(t)

	b := NewBag()
	b.Update(func(s Settings) Settings {
		s.Punctuation[MarkComma] = MarkBinding{UseNoGlyph: true}
		return s
	})

	res := b.Resolve(MarkComma, func(int64) bool { return true })
	assert.True(res.Hidden)
}

func Test_Resolve_BoundGraphemeExists(t *testing.T) {
	assert := assert.New(t)

	gid := int64(42)
	b := NewBag()
	b.Update(func(s Settings) Settings {
		s.Punctuation[MarkComma] = MarkBinding{GraphemeID: &gid}
		return s
	})

	res := b.Resolve(MarkComma, func(id int64) bool { return id == 42 })
	assert.True(res.HasGrapheme)
	assert.Equal(int64(42), res.GraphemeID)
}

func Test_Resolve_BoundGraphemeMissing_FallsBackToIPA(t *testing.T) {
	assert := assert.New(t)

	gid := int64(42)
	b := NewBag()
	b.Update(func(s Settings) Settings {
		s.Punctuation[MarkComma] = MarkBinding{GraphemeID: &gid}
		return s
	})

	res := b.Resolve(MarkComma, func(int64) bool { return false })
	assert.False(res.HasGrapheme)
	assert.Equal(",", res.IPA)
}
