// Package model holds the in-memory class model for diagram generation.
//
// An Entity describes one declared contract, interface, or library from
// parsed source: its attributes, operators, nested structs and enums, and
// the associations it declares toward other types. Entities are produced
// once per render (by the builder in this package) and never mutated by the
// renderer except for sort ordering.
package model

import (
	"slices"
	"strings"
)

// =============================================================================
// Enumerations
// =============================================================================

// Visibility classifies attributes and operators for diagram grouping.
type Visibility int

const (
	VisibilityNone Visibility = iota
	VisibilityPrivate
	VisibilityInternal
	VisibilityExternal
	VisibilityPublic
)

// String returns the diagram heading for the visibility tier.
func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "Private"
	case VisibilityInternal:
		return "Internal"
	case VisibilityExternal:
		return "External"
	case VisibilityPublic:
		return "Public"
	default:
		return "None"
	}
}

// Stereotype tags an entity with its declaration form.
type Stereotype int

const (
	StereotypeNone Stereotype = iota
	StereotypeAbstract
	StereotypeInterface
	StereotypeLibrary
)

// String returns the UML stereotype text, empty for plain contracts.
func (s Stereotype) String() string {
	switch s {
	case StereotypeAbstract:
		return "abstract"
	case StereotypeInterface:
		return "interface"
	case StereotypeLibrary:
		return "library"
	default:
		return ""
	}
}

// OperatorStereotype tags an operator with its declaration flavor.
// The ordinal value is meaningful: operators within a visibility tier are
// rendered in descending ordinal order, so payable and abstract operators
// surface before plain ones.
type OperatorStereotype int

const (
	OperatorNone OperatorStereotype = iota
	OperatorEvent
	OperatorFallback
	OperatorModifier
	OperatorAbstract
	OperatorPayable
)

// String returns the UML stereotype text, empty for plain operators.
func (s OperatorStereotype) String() string {
	switch s {
	case OperatorEvent:
		return "event"
	case OperatorFallback:
		return "fallback"
	case OperatorModifier:
		return "modifier"
	case OperatorAbstract:
		return "abstract"
	case OperatorPayable:
		return "payable"
	default:
		return ""
	}
}

// RefType describes how an association target is referenced.
type RefType int

const (
	// RefStorage marks a reference held in contract storage.
	RefStorage RefType = iota
	// RefMemory marks a transient reference (parameters, memory variables).
	RefMemory
)

// =============================================================================
// Model Types
// =============================================================================

// Parameter is one operator parameter or return value.
// Name is empty for unnamed parameters.
type Parameter struct {
	Name string
	Type string
}

// Attribute is one state variable of an entity.
type Attribute struct {
	Name       string
	Type       string
	Visibility Visibility
}

// Operator is one function, event, or modifier of an entity.
type Operator struct {
	Name       string
	Params     []Parameter
	Returns    []Parameter
	Visibility Visibility
	Stereotype OperatorStereotype
}

// Field is one member of a nested struct.
type Field struct {
	Name string
	Type string
}

// Association is a declared reference from one entity to another type,
// by name only; resolution to an actual entity happens later (see Resolve).
type Association struct {
	TargetName  string
	RefType     RefType
	Realization bool // true for "implements/inherits" relationships
}

// Entity is one declared contract/interface/library type.
type Entity struct {
	// ID uniquely identifies the entity's graph node within one render.
	ID string

	// Name is the declared type name.
	Name string

	// CodePath is the originating file path. It groups entities into
	// folder clusters and gates association resolution.
	CodePath string

	Stereotype Stereotype
	Attributes []Attribute
	Operators  []Operator

	// Structs and Enums map declaration name to members. Iteration order
	// is tracked separately (StructNames/EnumNames) so output stays
	// deterministic.
	Structs map[string][]Field
	Enums   map[string][]string

	// Associations maps association key (the target name) to the declared
	// association. The first declaration for a key wins.
	Associations map[string]Association

	// ImportedPaths is the set of code paths this entity's file imports.
	ImportedPaths []string

	structOrder []string
	enumOrder   []string
	assocOrder  []string
}

// AddStruct registers a nested struct, preserving declaration order.
func (e *Entity) AddStruct(name string, fields []Field) {
	if e.Structs == nil {
		e.Structs = make(map[string][]Field)
	}
	if _, ok := e.Structs[name]; !ok {
		e.structOrder = append(e.structOrder, name)
	}
	e.Structs[name] = fields
}

// AddEnum registers a nested enum, preserving declaration order.
func (e *Entity) AddEnum(name string, values []string) {
	if e.Enums == nil {
		e.Enums = make(map[string][]string)
	}
	if _, ok := e.Enums[name]; !ok {
		e.enumOrder = append(e.enumOrder, name)
	}
	e.Enums[name] = values
}

// AddAssociation registers an association under the given key.
// The first association registered for a key wins; later declarations that
// reference the same target are ignored.
func (e *Entity) AddAssociation(key string, a Association) {
	if e.Associations == nil {
		e.Associations = make(map[string]Association)
	}
	if _, ok := e.Associations[key]; ok {
		return
	}
	e.assocOrder = append(e.assocOrder, key)
	e.Associations[key] = a
}

// StructNames returns nested struct names in declaration order.
func (e *Entity) StructNames() []string { return e.structOrder }

// EnumNames returns nested enum names in declaration order.
func (e *Entity) EnumNames() []string { return e.enumOrder }

// AssociationKeys returns association keys in declaration order.
func (e *Entity) AssociationKeys() []string { return e.assocOrder }

// Imports reports whether the entity's file imports the given code path.
func (e *Entity) Imports(path string) bool {
	return slices.Contains(e.ImportedPaths, path)
}

// Folder returns the directory portion of the entity's code path, with
// forward slashes, or "." for files without a directory.
func (e *Entity) Folder() string {
	p := strings.ReplaceAll(e.CodePath, "\\", "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return "."
	}
	if idx == 0 {
		return "/"
	}
	return p[:idx]
}

// SortByCodePath orders entities by code path (lexicographic) so output is
// deterministic and folder runs are contiguous. The sort is stable: entities
// within the same file keep their declaration order.
func SortByCodePath(entities []*Entity) {
	slices.SortStableFunc(entities, func(a, b *Entity) int {
		return strings.Compare(a.CodePath, b.CodePath)
	})
}
