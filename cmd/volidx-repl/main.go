// volidx-repl is an interactive shell for exploring the four volatileindex
// variants against a small generated dataset.
//
// Usage:
//
//	volidx-repl
//
// Commands:
//
//	build <variant>   Rebuild the active index (relaxed|strict|partly|slowgroup)
//	lookup <key>      Look up key in the active index
//	stats             Show element/key counts for the active index
//	failures          List key-build failures (partly and slowgroup only)
//	help              Show this help
//	exit / quit / q   Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/volatileindex"
)

// entry is the demo element type indexed by a string key. Keys beginning
// with "!" deliberately fail key derivation so failures/* commands have
// something to show.
type entry struct {
	id  int
	key string
}

var errBadKey = errors.New("key starts with '!', derivation refused")

func keyOf(e entry) (string, error) {
	if strings.HasPrefix(e.key, "!") {
		return "", fmt.Errorf("entry %d: %w", e.id, errBadKey)
	}

	return e.key, nil
}

func demoSource() []entry {
	keys := []string{"alpha", "beta", "alpha", "!broken", "gamma", "beta", "!broken2", "delta", "alpha"}

	source := make([]entry, len(keys))
	for i, k := range keys {
		source[i] = entry{id: i, key: k}
	}

	return source
}

// activeIndex is the uniform surface the REPL drives, satisfied by a thin
// adapter around whichever concrete variant is currently built.
type activeIndex interface {
	name() string
	lookup(key string) ([]entry, error)
	len() int
	keyCount() int
	failures() []string
}

type relaxedAdapter struct{ idx *volatileindex.RelaxedIndex[entry, string] }

func (a relaxedAdapter) name() string { return "relaxed" }
func (a relaxedAdapter) lookup(key string) ([]entry, error) {
	l := a.idx.Lookup(func() (string, error) { return key, nil })

	return drain(l)
}
func (a relaxedAdapter) len() int         { return a.idx.Len() }
func (a relaxedAdapter) keyCount() int    { return a.idx.KeyCount() }
func (a relaxedAdapter) failures() []string { return nil }

type strictAdapter struct{ idx *volatileindex.StrictIndex[entry, string] }

func (a strictAdapter) name() string { return "strict" }
func (a strictAdapter) lookup(key string) ([]entry, error) {
	l := a.idx.Lookup(func() (string, error) { return key, nil }, false, false)

	return drain(l)
}
func (a strictAdapter) len() int      { return a.idx.Len() }
func (a strictAdapter) keyCount() int { return a.idx.KeyCount() }
func (a strictAdapter) failures() []string {
	return nil
}

type partlyAdapter struct{ idx *volatileindex.PartlyRelaxedIndex[entry, string] }

func (a partlyAdapter) name() string { return "partly" }
func (a partlyAdapter) lookup(key string) ([]entry, error) {
	l := a.idx.Lookup(func() (string, error) { return key, nil }, false, nil)

	return drain(l)
}
func (a partlyAdapter) len() int      { return a.idx.Len() }
func (a partlyAdapter) keyCount() int { return a.idx.KeyCount() }
func (a partlyAdapter) failures() []string {
	var out []string
	for _, f := range a.idx.Failures() {
		out = append(out, f.Error())
	}

	return out
}

type slowGroupAdapter struct{ idx *volatileindex.SlowGroupIndex[entry, string] }

func (a slowGroupAdapter) name() string { return "slowgroup" }
func (a slowGroupAdapter) lookup(key string) ([]entry, error) {
	l := a.idx.Lookup(func() (string, error) { return key, nil })

	var out []entry

	for w := range l.Seq {
		v, err := w.Value()
		if err != nil {
			return out, err
		}

		out = append(out, v)
	}

	return out, l.Err()
}
func (a slowGroupAdapter) len() int      { return a.idx.Len() }
func (a slowGroupAdapter) keyCount() int { return a.idx.KeyCount() }
func (a slowGroupAdapter) failures() []string {
	var out []string
	for _, f := range a.idx.Failures() {
		out = append(out, f.Error())
	}

	return out
}

func drain(l volatileindex.Lookup[entry]) ([]entry, error) {
	var out []entry
	for e := range l.Seq {
		out = append(out, e)
	}

	return out, l.Err()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	source := demoSource()

	idx, err := buildVariant("relaxed", source)
	if err != nil {
		return err
	}

	r := &repl{source: source, active: idx}

	return r.Run()
}

func buildVariant(name string, source []entry) (activeIndex, error) {
	switch name {
	case "relaxed":
		idx, err := volatileindex.BuildRelaxed(source, keyOf)
		if err != nil {
			return nil, err
		}

		return relaxedAdapter{idx}, nil

	case "strict":
		idx, err := volatileindex.BuildStrict(source, keyOf, false)
		if err != nil {
			return nil, err
		}

		return strictAdapter{idx}, nil

	case "partly":
		idx, err := volatileindex.BuildPartlyRelaxed(source, keyOf)
		if err != nil {
			return nil, err
		}

		return partlyAdapter{idx}, nil

	case "slowgroup":
		idx, err := volatileindex.BuildSlowGroup(source, keyOf, nil)
		if err != nil {
			return nil, err
		}

		return slowGroupAdapter{idx}, nil

	default:
		return nil, fmt.Errorf("unknown variant %q (want relaxed, strict, partly, or slowgroup)", name)
	}
}

// repl is the interactive command loop.
type repl struct {
	source []entry
	active activeIndex
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".volidx_history")
}

func (r *repl) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("volidx-repl - active variant: %s (%d elements)\n", r.active.name(), len(r.source))
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("volidx> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "build":
			r.cmdBuild(args)

		case "lookup":
			r.cmdLookup(args)

		case "stats":
			r.cmdStats()

		case "failures":
			r.cmdFailures()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"build", "lookup", "stats", "failures", "help", "exit", "quit", "q"}

	var out []string

	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}

	return out
}

func (r *repl) printHelp() {
	fmt.Println(`Commands:
  build <variant>   Rebuild the active index (relaxed|strict|partly|slowgroup)
  lookup <key>      Look up key in the active index
  stats             Show element/key counts for the active index
  failures          List key-build failures (partly and slowgroup only)
  help              Show this help
  exit / quit / q   Exit`)
}

func (r *repl) cmdBuild(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: build <relaxed|strict|partly|slowgroup>")

		return
	}

	idx, err := buildVariant(args[0], r.source)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	r.active = idx
	fmt.Printf("active variant: %s\n", idx.name())
}

func (r *repl) cmdLookup(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: lookup <key>")

		return
	}

	elems, err := r.active.lookup(args[0])
	for _, e := range elems {
		fmt.Printf("  id=%d key=%s\n", e.id, e.key)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}

	fmt.Printf("(%d match(es))\n", len(elems))
}

func (r *repl) cmdStats() {
	fmt.Printf("variant:   %s\n", r.active.name())
	fmt.Printf("elements:  %d\n", r.active.len())
	fmt.Printf("keys:      %d\n", r.active.keyCount())
}

func (r *repl) cmdFailures() {
	fails := r.active.failures()
	if len(fails) == 0 {
		fmt.Println("(no failures listed by this variant)")

		return
	}

	for i, f := range fails {
		fmt.Printf("  %d: %s\n", i, f)
	}
}
