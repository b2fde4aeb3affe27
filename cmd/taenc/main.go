// Command taenc loads a base automaton, a plan, and constraint descriptors
// from a JSON document, applies the requested rewrites, and renders the
// finalized network as an UPPAAL-style XML document.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/encodelab/taenc/internal/cache"
	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/diagnostics"
	"github.com/encodelab/taenc/internal/encoder"
	"github.com/encodelab/taenc/internal/loadenc"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
	"github.com/encodelab/taenc/internal/timeline"
	"github.com/encodelab/taenc/internal/xmlenc"
)

func main() {
	var inPath, outPath, cacheDir string
	var printIDs bool
	var noColor bool

	flag.StringVar(&inPath, "in", "", "input plan/constraint JSON document")
	flag.StringVar(&outPath, "out", "", "output XML path (default: stdout)")
	flag.StringVar(&cacheDir, "cache-dir", "", "reuse a finalized encoding from (and persist it to) a Badger-backed cache at this path")
	flag.BoolVar(&printIDs, "print-ids", false, "print the finalized location-id table instead of rendering XML")
	flag.BoolVar(&noColor, "no-color", false, "disable colored diagnostic output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s encode -in plan.json [-out network.xml] [-print-ids] [-cache-dir dir]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Encodes a plan and constraint descriptors into a timed-automaton network.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	if len(os.Args) < 2 || os.Args[1] != "encode" {
		flag.Usage()
		os.Exit(1)
	}
	flag.CommandLine.Parse(os.Args[2:])

	if noColor {
		color.NoColor = true
	}

	if inPath == "" {
		log.Fatal("encode: -in is required")
	}

	f, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("encode: failed to open %s: %v", inPath, err)
	}
	defer f.Close()

	base, pl, infos, err := loadenc.Load(f)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}

	var backend *cache.PersistentBackend
	if cacheDir != "" {
		backend, err = cache.OpenPersistentBackend(cacheDir)
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		defer backend.Close()
	}

	sys, hit := loadOrEncode(backend, base, pl, infos)
	if !hit {
		fmt.Fprintln(os.Stderr, "cache: miss, encoded fresh")
	} else {
		fmt.Fprintln(os.Stderr, "cache: hit, reused finalized encoding")
	}

	if printIDs {
		printLocationTable(sys)
		return
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("encode: failed to create %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := xmlenc.Render(out, sys); err != nil {
		log.Fatalf("encode: failed to render network: %v", err)
	}
}

// loadOrEncode serves a finalized network out of backend if present,
// otherwise runs the encoder and, when backend is non-nil, persists the
// result for the next invocation. hit reports whether the cache served the
// result.
func loadOrEncode(backend *cache.PersistentBackend, base ta.Automaton, pl plan.Plan, infos []constraint.ICInfo) (sys ta.AutomataSystem, hit bool) {
	if backend != nil {
		if cached, ok := backend.Get(pl, infos); ok {
			return *cached, true
		}
	}

	enc := encoder.New(base, pl)
	for _, info := range infos {
		if err := applyConstraint(enc, info); err != nil {
			log.Fatalf("encode: %v", err)
		}
	}
	printDiagnostics(enc.Diagnostics())

	sys = enc.Finalize()
	if backend != nil {
		if err := backend.Set(pl, infos, &sys); err != nil {
			log.Fatalf("encode: %v", err)
		}
	}
	return sys, false
}

func applyConstraint(enc *encoder.Encoder, info constraint.ICInfo) error {
	switch v := info.(type) {
	case constraint.Unary:
		for _, paID := range v.Activations {
			if err := applyUnary(enc, paID, v); err != nil {
				return err
			}
		}
	case constraint.Binary:
		if v.Type == constraint.Since {
			return enc.EncodeSince(v)
		}
		return enc.EncodeUntil(v)
	case constraint.Chain:
		if len(v.ActivationsStart) == 0 || len(v.ActivationsEnd) == 0 {
			return fmt.Errorf("until-chain %q needs at least one start and end activation", v.Name())
		}
		return enc.EncodeUntilChain(v, v.ActivationsStart[0], v.ActivationsEnd[0])
	}
	return nil
}

func applyUnary(enc *encoder.Encoder, paID string, u constraint.Unary) error {
	switch u.Type {
	case constraint.Future:
		return enc.EncodeFuture(paID, u)
	case constraint.Past:
		return enc.EncodePast(paID, u)
	case constraint.NoOp:
		return enc.EncodeNoOp(paID, u.Spec.Targets)
	default:
		return enc.EncodeInvariant(paID, u.Spec.Targets)
	}
}

func printDiagnostics(ds []diagnostics.Diagnostic) {
	for _, d := range ds {
		label := color.YellowString("warn")
		if d.Kind == diagnostics.EmptyWindow {
			label = color.YellowString("empty-window")
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", label, d.String())
	}
}

func printLocationTable(sys ta.AutomataSystem) {
	tableString := &strings.Builder{}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"location id", "timeline prefix"})
	for _, inst := range sys.Instances {
		for _, l := range inst.Automaton.Locations {
			if l.ID == timeline.QueryID {
				table.Append([]string{l.ID, ""})
				continue
			}
			prefix, _ := timeline.SplitBase(l.ID)
			table.Append([]string{l.ID, prefix})
		}
	}
	table.Render()
	fmt.Print(tableString.String())
}
