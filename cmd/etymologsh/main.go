/*
Etymologsh is an interactive shell for experimenting with a conlang
workbench directly from the command line, without running the HTTP
server. It opens an in-memory engine (or a sqlite-backed one, with
--db) and accepts simple commands for creating glyphs/graphemes/lexicon
entries and translating phrases through them.

Usage:

	etymologsh [flags]

The flags are:

	-v, --version
		Give the current version of Etymolog and then exit.

	--db DRIVER[:PARAMS]
		Use the given DB connection string, same format as etymologd.
		Defaults to inmem.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"

	etymolog "github.com/etymolog/etymolog"
	"github.com/etymolog/etymolog/internal/version"
	"github.com/etymolog/etymolog/server/dao"
	"github.com/etymolog/etymolog/server/dao/inmem"
	"github.com/etymolog/etymolog/server/dao/sqlite"
)

const consoleOutputWidth = 80

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of Etymolog and then exit.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("etymologsh (Etymolog v%s)\n", version.Current)
		return
	}

	store, err := openStore(*flagDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open database: %s\n", err.Error())
		os.Exit(1)
	}

	engine := etymolog.NewEngine(store)
	if err := <-engine.Init(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize engine: %s\n", err.Error())
		os.Exit(1)
	}
	defer engine.Close()

	sh := &shell{engine: engine}
	sh.run()
}

func openStore(connStr string) (dao.Store, error) {
	if connStr == "" {
		return inmem.NewDatastore(), nil
	}
	parts := strings.SplitN(connStr, ":", 2)
	switch strings.ToLower(parts[0]) {
	case "inmem":
		return inmem.NewDatastore(), nil
	case "sqlite":
		if len(parts) != 2 {
			return nil, fmt.Errorf("sqlite driver requires a data directory, e.g. sqlite:path/to/db_dir")
		}
		if err := os.MkdirAll(parts[1], 0770); err != nil {
			return nil, fmt.Errorf("could not build data directory: %w", err)
		}
		return sqlite.NewDatastore(parts[1])
	default:
		return nil, fmt.Errorf("unsupported DB engine: %q", parts[0])
	}
}

// shell wraps an interactive readline session over an Engine.
type shell struct {
	engine *etymolog.Engine
}

func (sh *shell) run() {
	rl, err := readline.NewEx(&readline.Config{Prompt: "etymolog> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start interactive input: %s\n", err.Error())
		os.Exit(1)
	}
	defer rl.Close()

	sh.println("Etymolog workbench shell v" + version.Current + ". Type 'help' for commands, 'quit' to exit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sh.dispatch(line) {
			return
		}
	}
}

// dispatch runs one command line and reports whether the shell should
// exit.
func (sh *shell) dispatch(line string) bool {
	fields := strings.SplitN(line, " ", 2)
	cmd := fields[0]
	var rest string
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		sh.help()
	case "status":
		sh.status()
	case "translate":
		sh.translate(rest)
	case "lexicon":
		sh.listLexicon()
	case "add-lexicon":
		sh.addLexicon(rest)
	case "add-glyph":
		sh.addGlyph(rest)
	case "add-grapheme":
		sh.addGrapheme(rest)
	default:
		sh.println(fmt.Sprintf("unrecognized command %q; type 'help' for a list", cmd))
	}
	return false
}

func (sh *shell) println(s string) {
	fmt.Println(rosed.Edit(s).Wrap(consoleOutputWidth).String())
}

func (sh *shell) help() {
	sh.println(strings.Join([]string{
		"Commands:",
		"  status                           show engine/database status",
		"  translate TEXT                   translate TEXT through the current lexicon",
		"  lexicon                          list every lexicon entry",
		"  add-lexicon LEMMA|PRONUNCIATION  add a native, auto-spelled lexicon entry",
		"  add-glyph NAME|SVG               add a glyph (SVG may be a placeholder string)",
		"  add-grapheme NAME                add a grapheme with no composition yet",
		"  quit                             exit the shell",
	}, "\n"))
}

func (sh *shell) status() {
	st, err := sh.engine.GetStatus(context.Background())
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	sh.println(fmt.Sprintf("initialized=%v glyphs=%d graphemes=%d lexicon=%d",
		st.Initialized, st.GlyphCount, st.GraphemeCount, st.LexiconCount))
}

func (sh *shell) translate(text string) {
	if text == "" {
		sh.println("usage: translate TEXT")
		return
	}
	res, err := sh.engine.Translate(context.Background(), text)
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	msg := fmt.Sprintf("normalized: %s\nspelling entries: %d", res.Normalized, len(res.Spelling))
	if res.HasVirtualGlyphs {
		msg += "\n(contains fallback IPA placeholders; not every word has full glyph coverage)"
	}
	sh.println(msg)
}

func (sh *shell) listLexicon() {
	entries, err := sh.engine.GetAllLexiconEntries(context.Background())
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	if len(entries) == 0 {
		sh.println("(no lexicon entries)")
		return
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d: %s /%s/ - %s\n", e.ID, e.Lemma, e.Pronunciation, e.Meaning)
	}
	fmt.Print(b.String())
}

func (sh *shell) addLexicon(arg string) {
	parts := strings.SplitN(arg, "|", 2)
	if len(parts) != 2 {
		sh.println("usage: add-lexicon LEMMA|PRONUNCIATION")
		return
	}
	entry, err := sh.engine.CreateLexiconEntry(context.Background(), etymolog.LexiconInput{
		Lemma: strings.TrimSpace(parts[0]), Pronunciation: strings.TrimSpace(parts[1]),
		IsNative: true, AutoSpell: true,
	})
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	sh.println(fmt.Sprintf("created lexicon entry %d", entry.ID))
}

func (sh *shell) addGlyph(arg string) {
	parts := strings.SplitN(arg, "|", 2)
	if len(parts) != 2 {
		sh.println("usage: add-glyph NAME|SVG")
		return
	}
	g, err := sh.engine.CreateGlyph(context.Background(), etymolog.GlyphInput{
		Name: strings.TrimSpace(parts[0]), SVGData: strings.TrimSpace(parts[1]),
	})
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	sh.println(fmt.Sprintf("created glyph %d", g.ID))
}

func (sh *shell) addGrapheme(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		sh.println("usage: add-grapheme NAME")
		return
	}
	g, err := sh.engine.CreateGrapheme(context.Background(), etymolog.GraphemeInput{Name: name}, nil, nil)
	if err != nil {
		sh.println("error: " + err.Error())
		return
	}
	sh.println(fmt.Sprintf("created grapheme %d", g.ID))
}
