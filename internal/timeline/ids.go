// Package timeline implements the timeline store: a per-plan-action map to
// timeline entries, each bundling an automaton copy plus its outgoing
// cross-timeline transitions, plus the distinguished terminal QUERY
// timeline.
package timeline

import "strings"

// Separators from the stable identifier grammar (spec §6). The serializer
// and trace parser depend on these bit-for-bit.
const (
	// TLSep separates a plan-action id from the chain of operator-name
	// prefixes applied by rewriters (reused for the plan-action id's own
	// op/index separator, per the worked grammar examples).
	TLSep = "::"
	// ConstraintSep separates the full timeline prefix from the
	// base-automaton location id it was derived from.
	ConstraintSep = ";;"
	// BaseSep splits a fully-qualified location id into the
	// (timeline_prefix, base_location_id) pair; it is the same separator
	// as ConstraintSep; only the last occurrence is meaningful.
	BaseSep = ConstraintSep
)

// QueryID is the single terminal location whose reachability the
// downstream model checker tests.
const QueryID = "QUERY"

// GetPrefix returns the substring of id up to the first occurrence of sep.
func GetPrefix(id, sep string) string {
	if i := strings.Index(id, sep); i >= 0 {
		return id[:i]
	}
	return id
}

// GetSuffix returns the substring of id after the last occurrence of sep.
func GetSuffix(id, sep string) string {
	if i := strings.LastIndex(id, sep); i >= 0 {
		return id[i+len(sep):]
	}
	return id
}

// LocationID builds a timeline-local location id: paID TLSep
// opPrefix(TLSep-joined)* ConstraintSep baseLocID. An empty opPrefixes
// yields "paID ConstraintSep baseLocID" (the base, unrewritten copy).
func LocationID(paID string, opPrefixes []string, baseLocID string) string {
	var b strings.Builder
	b.WriteString(paID)
	for _, p := range opPrefixes {
		b.WriteString(TLSep)
		b.WriteString(p)
	}
	b.WriteString(ConstraintSep)
	b.WriteString(baseLocID)
	return b.String()
}

// SplitBase splits a fully-qualified location id into its (timeline_prefix,
// base_location_id) pair using BaseSep.
func SplitBase(id string) (timelinePrefix, baseLocID string) {
	i := strings.LastIndex(id, BaseSep)
	if i < 0 {
		return id, ""
	}
	return id[:i], id[i+len(BaseSep):]
}
