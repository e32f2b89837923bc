package model

import (
	"path"
	"strconv"
	"strings"

	"github.com/solgraph/solgraph/pkg/solc"
)

// Builder converts parsed source units into class-model entities.
// One Builder is used per render so entity IDs stay unique across all files
// of that render and renders stay independent of each other.
type Builder struct {
	next int
}

// NewBuilder creates a builder with a fresh ID sequence.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build converts all contract declarations of one source unit into entities.
// codePath is the path of the file the unit was parsed from; it becomes the
// entities' CodePath and the base for resolving relative imports.
func (b *Builder) Build(unit *solc.SourceUnit, codePath string) []*Entity {
	imports := resolveImports(unit.Imports, codePath)

	entities := make([]*Entity, 0, len(unit.Contracts))
	for _, c := range unit.Contracts {
		entities = append(entities, b.buildContract(c, codePath, imports))
	}
	return entities
}

func (b *Builder) buildContract(c *solc.ContractDefinition, codePath string, imports []string) *Entity {
	b.next++
	e := &Entity{
		ID:            strconv.Itoa(b.next),
		Name:          c.Name,
		CodePath:      codePath,
		Stereotype:    stereotypeFor(c),
		ImportedPaths: imports,
	}

	// Inheritance first so realization wins over a same-named reference.
	for _, base := range c.Bases {
		e.AddAssociation(base, Association{
			TargetName:  base,
			Realization: true,
		})
	}

	for _, v := range c.Variables {
		e.Attributes = append(e.Attributes, Attribute{
			Name:       v.Name,
			Type:       v.TypeName,
			Visibility: variableVisibility(v.Visibility),
		})
		addTypeAssociations(e, v.TypeName, RefStorage)
	}

	for _, f := range c.Functions {
		e.Operators = append(e.Operators, Operator{
			Name:       functionName(f),
			Params:     parameters(f.Params),
			Returns:    parameters(f.Returns),
			Visibility: functionVisibility(f.Visibility),
			Stereotype: functionStereotype(f),
		})
		for _, p := range f.Params {
			addTypeAssociations(e, p.TypeName, RefMemory)
		}
		for _, p := range f.Returns {
			addTypeAssociations(e, p.TypeName, RefMemory)
		}
	}

	for _, ev := range c.Events {
		e.Operators = append(e.Operators, Operator{
			Name:       ev.Name,
			Params:     parameters(ev.Params),
			Stereotype: OperatorEvent,
		})
		for _, p := range ev.Params {
			addTypeAssociations(e, p.TypeName, RefMemory)
		}
	}

	for _, m := range c.Modifiers {
		e.Operators = append(e.Operators, Operator{
			Name:       m.Name,
			Params:     parameters(m.Params),
			Stereotype: OperatorModifier,
		})
	}

	for _, s := range c.Structs {
		fields := make([]Field, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, Field{Name: f.Name, Type: f.TypeName})
			addTypeAssociations(e, f.TypeName, RefMemory)
		}
		e.AddStruct(s.Name, fields)
	}

	for _, en := range c.Enums {
		e.AddEnum(en.Name, en.Values)
	}

	return e
}

// stereotypeFor maps the declaration form to a diagram stereotype.
// A contract is abstract when declared so or when any function lacks a body.
func stereotypeFor(c *solc.ContractDefinition) Stereotype {
	switch c.Kind {
	case solc.KindInterface:
		return StereotypeInterface
	case solc.KindLibrary:
		return StereotypeLibrary
	}
	if c.Abstract {
		return StereotypeAbstract
	}
	for _, f := range c.Functions {
		if !f.HasBody {
			return StereotypeAbstract
		}
	}
	return StereotypeNone
}

// variableVisibility maps a state-variable visibility keyword.
// State variables without a keyword are internal in Solidity.
func variableVisibility(keyword string) Visibility {
	switch keyword {
	case "private":
		return VisibilityPrivate
	case "internal", "":
		return VisibilityInternal
	case "external":
		return VisibilityExternal
	case "public":
		return VisibilityPublic
	default:
		return VisibilityNone
	}
}

// functionVisibility maps a function visibility keyword.
// Functions without a keyword are public (pre-0.5 sources).
func functionVisibility(keyword string) Visibility {
	switch keyword {
	case "private":
		return VisibilityPrivate
	case "internal":
		return VisibilityInternal
	case "external":
		return VisibilityExternal
	case "public", "":
		return VisibilityPublic
	default:
		return VisibilityNone
	}
}

func functionName(f *solc.Function) string {
	switch {
	case f.IsConstructor:
		return "constructor"
	case f.IsReceive:
		return "receive"
	case f.IsFallback:
		return "fallback"
	default:
		return f.Name
	}
}

func functionStereotype(f *solc.Function) OperatorStereotype {
	switch {
	case f.IsFallback || f.IsReceive:
		return OperatorFallback
	case f.Payable:
		return OperatorPayable
	case !f.HasBody:
		return OperatorAbstract
	default:
		return OperatorNone
	}
}

func parameters(params []solc.Param) []Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, Parameter{Name: p.Name, Type: p.TypeName})
	}
	return out
}

// addTypeAssociations registers one association per user-defined type named
// in the type expression. Qualified names (Lib.Struct) associate to the
// qualifying type.
func addTypeAssociations(e *Entity, typeName string, ref RefType) {
	for _, target := range userTypes(typeName) {
		e.AddAssociation(target, Association{
			TargetName: target,
			RefType:    ref,
		})
	}
}

// resolveImports resolves relative import paths against the importing file's
// directory. Non-relative imports (package-style paths) are kept as written.
func resolveImports(imports []string, codePath string) []string {
	if len(imports) == 0 {
		return nil
	}
	dir := path.Dir(strings.ReplaceAll(codePath, "\\", "/"))
	out := make([]string, 0, len(imports))
	for _, imp := range imports {
		if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
			out = append(out, path.Join(dir, imp))
		} else {
			out = append(out, imp)
		}
	}
	return out
}

// userTypes extracts user-defined type names from a type expression such as
// "mapping(address => Vote[])" or "Lib.Data". Elementary types and type
// keywords are skipped; for qualified names only the qualifier counts.
func userTypes(typeName string) []string {
	var (
		types []string
		ident strings.Builder
	)
	flush := func() {
		if ident.Len() == 0 {
			return
		}
		name := ident.String()
		ident.Reset()
		// Only the qualifier of a dotted name refers to a declared type.
		if idx := strings.IndexByte(name, '.'); idx > 0 {
			name = name[:idx]
		}
		if !isElementaryType(name) && !isTypeKeyword(name) {
			types = append(types, name)
		}
	}

	for _, r := range typeName {
		if r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(ident.Len() > 0 && r >= '0' && r <= '9') {
			ident.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return types
}

// isElementaryType reports whether name is a built-in Solidity value type.
func isElementaryType(name string) bool {
	switch name {
	case "address", "bool", "string", "byte", "bytes", "int", "uint", "fixed", "ufixed":
		return true
	}
	for _, prefix := range []string{"uint", "int", "bytes", "fixed", "ufixed"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && isDigits(rest) {
			return true
		}
	}
	return false
}

// isTypeKeyword reports whether name is a keyword that can appear inside a
// type expression but never names a user type.
func isTypeKeyword(name string) bool {
	switch name {
	case "mapping", "memory", "storage", "calldata", "payable", "returns", "function",
		"external", "internal", "public", "private", "pure", "view", "constant", "indexed":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
