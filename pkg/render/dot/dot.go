// Package dot serializes the class model into Graphviz DOT text.
//
// The writer walks the entity list in code-path order, groups entities into
// folder subgraphs, emits one record-shaped node per entity (title,
// visibility-grouped attributes and operators), satellite nodes for nested
// structs and enums, and finally one edge per resolved association. The
// resulting text can be rendered with [github.com/solgraph/solgraph/pkg/render.Graphviz].
package dot

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/solgraph/solgraph/pkg/model"
)

// Options configures diagram serialization. Each toggle is independent.
type Options struct {
	HideAttributes bool
	HideOperators  bool
	HideStructs    bool
	HideEnums      bool
	HideLibraries  bool
	HideInterfaces bool

	// ClusterFolders draws folder groups as labeled boxes instead of
	// invisible groupings.
	ClusterFolders bool
}

// Write serializes the entities into a single DOT digraph.
//
// Entities are sorted by code path first, so output is deterministic for a
// given input list and satisfies the renderer's folder-contiguity
// requirement. The naming counter is created here, scoped to this render.
func Write(entities []*model.Entity, opts Options) string {
	sorted := make([]*model.Entity, len(entities))
	copy(sorted, entities)
	model.SortByCodePath(sorted)

	c := NewCounter()
	var buf bytes.Buffer

	buf.WriteString("digraph UmlClassDiagram {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=record, style=filled, fillcolor=gray95];\n")

	writeSubgraphs(&buf, sorted, opts, c)
	writeAssociations(&buf, sorted, opts)

	buf.WriteString("}\n")
	return buf.String()
}

// writeSubgraphs partitions the sorted entities into consecutive runs that
// share a folder and emits one subgraph block per run.
func writeSubgraphs(buf *bytes.Buffer, sorted []*model.Entity, opts Options, c *Counter) {
	for i := 0; i < len(sorted); {
		folder := sorted[i].Folder()
		j := i
		for j < len(sorted) && sorted[j].Folder() == folder {
			j++
		}

		if opts.ClusterFolders {
			fmt.Fprintf(buf, "  subgraph cluster_%d {\n", c.Next())
			fmt.Fprintf(buf, "    label=%q;\n", folder)
			buf.WriteString("    color=gray60;\n")
		} else {
			fmt.Fprintf(buf, "  subgraph graph_%d {\n", c.Next())
			fmt.Fprintf(buf, "    label=%q;\n", "")
		}

		for _, e := range sorted[i:j] {
			if hidden(e, opts) {
				continue
			}
			writeEntity(buf, e, opts, c)
		}

		buf.WriteString("  }\n")
		i = j
	}
}

// hidden reports whether the entity's stereotype is suppressed by options.
func hidden(e *model.Entity, opts Options) bool {
	switch e.Stereotype {
	case model.StereotypeLibrary:
		return opts.HideLibraries
	case model.StereotypeInterface:
		return opts.HideInterfaces
	}
	return false
}

// writeEntity emits the record node for one entity plus its struct and enum
// satellites.
func writeEntity(buf *bytes.Buffer, e *model.Entity, opts Options, c *Counter) {
	sections := []string{titleLine(e)}

	if !opts.HideAttributes {
		if s := attributeSection(e.Attributes); s != "" {
			sections = append(sections, s)
		}
	}
	if !opts.HideOperators {
		if s := operatorSection(e.Operators); s != "" {
			sections = append(sections, s)
		}
	}

	fmt.Fprintf(buf, "    %q [label=\"{%s}\"];\n", e.ID, strings.Join(sections, "|"))

	if !opts.HideStructs {
		for _, name := range e.StructNames() {
			writeStructSatellite(buf, e, name, c)
		}
	}
	if !opts.HideEnums {
		for _, name := range e.EnumNames() {
			writeEnumSatellite(buf, e, name, c)
		}
	}
}

// titleLine builds the first record section: stereotype decoration plus name.
func titleLine(e *model.Entity) string {
	if s := e.Stereotype.String(); s != "" {
		return escape("<<"+s+">>") + `\n` + escape(e.Name)
	}
	return escape(e.Name)
}

// visibilityTiers is the fixed rendering order of visibility groups.
// Members with no or unknown visibility fall into the Public tier.
var visibilityTiers = []model.Visibility{
	model.VisibilityPrivate,
	model.VisibilityInternal,
	model.VisibilityExternal,
	model.VisibilityPublic,
}

// tierFor normalizes a member visibility to its rendering tier.
func tierFor(v model.Visibility) model.Visibility {
	switch v {
	case model.VisibilityPrivate, model.VisibilityInternal, model.VisibilityExternal:
		return v
	default:
		return model.VisibilityPublic
	}
}

// attributeSection renders the attribute record section, grouped by
// visibility tier. Empty tiers produce no heading.
func attributeSection(attrs []model.Attribute) string {
	var b strings.Builder
	for _, tier := range visibilityTiers {
		var lines []string
		for _, a := range attrs {
			if tierFor(a.Visibility) != tier {
				continue
			}
			lines = append(lines, "  "+escape(a.Name+": "+a.Type))
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(tier.String() + `:\l`)
		for _, l := range lines {
			b.WriteString(l + `\l`)
		}
	}
	return b.String()
}

// operatorSection renders the operator record section. Within each
// visibility tier, operators are ordered by descending stereotype ordinal so
// payable/abstract/modifier/fallback/event operators surface before plain
// ones; equal stereotypes keep their declaration order.
func operatorSection(ops []model.Operator) string {
	var b strings.Builder
	for _, tier := range visibilityTiers {
		var tiered []model.Operator
		for _, op := range ops {
			if tierFor(op.Visibility) == tier {
				tiered = append(tiered, op)
			}
		}
		if len(tiered) == 0 {
			continue
		}
		slices.SortStableFunc(tiered, func(a, b model.Operator) int {
			return int(b.Stereotype) - int(a.Stereotype)
		})

		b.WriteString(tier.String() + `:\l`)
		for _, op := range tiered {
			b.WriteString("  " + operatorLine(op) + `\l`)
		}
	}
	return b.String()
}

// operatorLine renders one operator: optional stereotype decoration, name,
// parameter list, and return list.
func operatorLine(op model.Operator) string {
	var b strings.Builder
	if s := op.Stereotype.String(); s != "" {
		b.WriteString(escape("<<" + s + ">> "))
	}
	b.WriteString(escape(op.Name))
	b.WriteString(escape(formatParams(op.Params, false)))
	if len(op.Returns) > 0 {
		b.WriteString(escape(": " + formatParams(op.Returns, true)))
	}
	return b.String()
}

// formatParams renders a parameter list. In return position a single
// unnamed parameter renders as the bare type; every other list is
// parenthesized and comma-joined, using "name: type" per parameter and the
// bare type when the name is absent.
func formatParams(params []model.Parameter, returnPosition bool) string {
	if returnPosition && len(params) == 1 && params[0].Name == "" {
		return params[0].Type
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Name == "" {
			parts = append(parts, p.Type)
		} else {
			parts = append(parts, p.Name+": "+p.Type)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// writeStructSatellite emits the satellite node and composition edge for one
// nested struct.
func writeStructSatellite(buf *bytes.Buffer, e *model.Entity, name string, c *Counter) {
	var b strings.Builder
	b.WriteString(escape("<<struct>> " + name))
	for _, f := range e.Structs[name] {
		b.WriteString(`|` + escape(f.Name+": "+f.Type) + `\l`)
	}
	id := fmt.Sprintf("s%d", c.Next())
	fmt.Fprintf(buf, "    %q [label=\"{%s}\"];\n", id, b.String())
	fmt.Fprintf(buf, "    %q -> %q [arrowhead=diamond, weight=3];\n", id, e.ID)
}

// writeEnumSatellite emits the satellite node and composition edge for one
// nested enum.
func writeEnumSatellite(buf *bytes.Buffer, e *model.Entity, name string, c *Counter) {
	var b strings.Builder
	b.WriteString(escape("<<enum>> " + name))
	for _, v := range e.Enums[name] {
		b.WriteString(`|` + escape(v) + `\l`)
	}
	id := fmt.Sprintf("s%d", c.Next())
	fmt.Fprintf(buf, "    %q [label=\"{%s}\"];\n", id, b.String())
	fmt.Fprintf(buf, "    %q -> %q [arrowhead=diamond, weight=3];\n", id, e.ID)
}

// writeAssociations appends one edge per resolved association. Edges whose
// source or target node was suppressed by a hide option are skipped.
func writeAssociations(buf *bytes.Buffer, sorted []*model.Entity, opts Options) {
	for _, ra := range model.Resolve(sorted) {
		if hidden(ra.Source, opts) || hidden(ra.Target, opts) {
			continue
		}
		if attrs := edgeAttrs(ra); attrs != "" {
			fmt.Fprintf(buf, "  %q -> %q [%s];\n", ra.Source.ID, ra.Target.ID, attrs)
		} else {
			fmt.Fprintf(buf, "  %q -> %q;\n", ra.Source.ID, ra.Target.ID)
		}
	}
}

// edgeAttrs styles one association edge. Realization edges use an empty
// arrowhead and a higher weight than plain references so inheritance
// hierarchies pull into alignment; memory references and realizations of
// interfaces are dashed.
func edgeAttrs(ra model.ResolvedAssociation) string {
	var attrs []string

	if ra.Association.Realization {
		attrs = append(attrs, "arrowhead=empty")
		if ra.Target.Stereotype == model.StereotypeNone {
			attrs = append(attrs, "weight=4")
		} else {
			attrs = append(attrs, "weight=3")
		}
		if ra.Target.Stereotype == model.StereotypeInterface {
			attrs = append(attrs, "style=dashed")
		}
		return strings.Join(attrs, ", ")
	}

	if ra.Association.RefType == model.RefMemory {
		attrs = append(attrs, "style=dashed")
	}
	return strings.Join(attrs, ", ")
}

// recordEscaper escapes the characters that delimit Graphviz record labels.
var recordEscaper = strings.NewReplacer(
	`\`, `\\`,
	`{`, `\{`,
	`}`, `\}`,
	`<`, `\<`,
	`>`, `\>`,
	`|`, `\|`,
	`"`, `\"`,
)

// escape makes s safe for use inside a record-shaped node label.
func escape(s string) string {
	return recordEscaper.Replace(s)
}
