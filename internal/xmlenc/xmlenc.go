// Package xmlenc renders a finalized AutomataSystem as an UPPAAL-style
// network-of-timed-automata XML document for the downstream model checker.
// This is the only package that writes XML documents; the guard and
// invariant strings it receives already carry XML entities from cca's
// rendering and are written as given.
package xmlenc

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/encodelab/taenc/internal/ta"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string { return escaper.Replace(s) }

// Render writes sys as a single <nta> document to w. The single "direct"
// instance produced by Finalize becomes the lone <template>; the guards and
// invariants already carry cca's XML-escaped operators, so only plain
// identifiers (location ids, clock/bool-var names, channel names) are
// escaped here.
func Render(w io.Writer, sys ta.AutomataSystem) error {
	if _, err := fmt.Fprintln(w, `<?xml version="1.0" encoding="utf-8"?>`); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "<nta>"); err != nil {
		return err
	}

	if err := renderGlobals(w, sys.Globals); err != nil {
		return err
	}

	for _, inst := range sys.Instances {
		if err := renderTemplate(w, inst); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "  <system>"); err != nil {
		return err
	}
	for _, inst := range sys.Instances {
		if _, err := fmt.Fprintf(w, "    system %s;\n", escape(inst.Name)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "  </system>"); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "</nta>")
	return err
}

func renderGlobals(w io.Writer, g ta.Globals) error {
	if _, err := fmt.Fprintln(w, "  <declaration>"); err != nil {
		return err
	}
	for _, c := range g.Clocks {
		if _, err := fmt.Fprintf(w, "    clock %s;\n", escape(c)); err != nil {
			return err
		}
	}
	for _, b := range g.BoolVars {
		if _, err := fmt.Fprintf(w, "    bool %s;\n", escape(b)); err != nil {
			return err
		}
	}
	for _, ch := range g.Channels {
		kind := "chan"
		if ch.Type == ta.Broadcast {
			kind = "broadcast chan"
		}
		if _, err := fmt.Fprintf(w, "    %s %s;\n", kind, escape(ch.Name)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "  </declaration>")
	return err
}

func renderTemplate(w io.Writer, inst ta.Instance) error {
	if _, err := fmt.Fprintf(w, "  <template name=%q>\n", escape(inst.Name)); err != nil {
		return err
	}

	for _, l := range inst.Automaton.Locations {
		attrs := fmt.Sprintf("id=%q", escape(l.ID))
		if l.Urgent {
			attrs += ` urgent="true"`
		}
		if l.Initial {
			attrs += ` init="true"`
		}
		if l.Invariant == "" {
			if _, err := fmt.Fprintf(w, "    <location %s/>\n", attrs); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "    <location %s>\n      <label kind=\"invariant\">%s</label>\n    </location>\n",
			attrs, l.Invariant); err != nil {
			return err
		}
	}

	for _, t := range inst.Automaton.Transitions {
		if err := renderTransition(w, t); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "  </template>")
	return err
}

func renderTransition(w io.Writer, t ta.Transition) error {
	if _, err := fmt.Fprintf(w, "    <transition>\n      <source ref=%q/>\n      <target ref=%q/>\n",
		escape(t.Src), escape(t.Dst)); err != nil {
		return err
	}
	if t.Guard != "" {
		if _, err := fmt.Fprintf(w, "      <label kind=\"guard\">%s</label>\n", t.Guard); err != nil {
			return err
		}
	}
	if t.Sync != "" {
		dir := "!"
		if t.Passive {
			dir = "?"
		}
		if _, err := fmt.Fprintf(w, "      <label kind=\"synchronisation\">%s%s</label>\n", escape(t.Sync), dir); err != nil {
			return err
		}
	}
	if assign := renderUpdate(t.Update); assign != "" {
		if _, err := fmt.Fprintf(w, "      <label kind=\"assignment\">%s</label>\n", assign); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "    </transition>")
	return err
}

func renderUpdate(u ta.Update) string {
	var parts []string
	for _, c := range u.ResetClocks {
		parts = append(parts, fmt.Sprintf("%s = 0", escape(c)))
	}
	names := make([]string, 0, len(u.BoolAssigns))
	for name := range u.BoolAssigns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s = %t", escape(name), u.BoolAssigns[name]))
	}
	return strings.Join(parts, ", ")
}
