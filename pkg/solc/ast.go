// Package solc defines the parsed node structure for Solidity source files.
//
// These types are the contract between the source parser and the class-model
// builder: a parser produces a SourceUnit per file, and the model builder
// consumes it without ever looking at raw source text again. The structure is
// declaration-level only; statement and expression grammar is deliberately
// not modeled because diagram generation never needs it.
package solc

// ContractKind distinguishes the three top-level declaration forms.
type ContractKind int

const (
	// KindContract is a plain or abstract contract declaration.
	KindContract ContractKind = iota
	// KindInterface is an interface declaration.
	KindInterface
	// KindLibrary is a library declaration.
	KindLibrary
)

// String returns the Solidity keyword for the kind.
func (k ContractKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindLibrary:
		return "library"
	default:
		return "contract"
	}
}

// SourceUnit is one parsed Solidity file.
type SourceUnit struct {
	// Pragmas holds the raw pragma directives (e.g. "solidity ^0.8.0").
	Pragmas []string

	// Imports holds the import path string of each import directive,
	// exactly as written in the source.
	Imports []string

	// Contracts holds the top-level contract, interface, and library
	// declarations in source order.
	Contracts []*ContractDefinition
}

// ContractDefinition is one contract, interface, or library declaration.
type ContractDefinition struct {
	Name     string
	Kind     ContractKind
	Abstract bool // declared with the "abstract" keyword

	// Bases lists the names from the "is" inheritance clause, in order.
	Bases []string

	Variables []*StateVariable
	Functions []*Function
	Events    []*Event
	Modifiers []*Modifier
	Structs   []*Struct
	Enums     []*Enum
}

// StateVariable is a contract-level variable declaration.
// Visibility holds the raw keyword ("public", "private", "internal") or is
// empty when the declaration carries none.
type StateVariable struct {
	Name       string
	TypeName   string
	Visibility string
	Constant   bool
}

// Param is one function/event/modifier parameter or return value.
// Name is empty for unnamed parameters. Location holds the data-location
// keyword ("memory", "storage", "calldata") when present.
type Param struct {
	Name     string
	TypeName string
	Location string
}

// Function is a function, constructor, fallback, or receive declaration.
type Function struct {
	Name        string // empty for fallback/receive; "constructor" for constructors
	Params      []Param
	Returns     []Param
	Visibility  string // raw keyword, empty if none
	Payable     bool
	IsConstructor bool
	IsFallback  bool // fallback() or unnamed legacy fallback
	IsReceive   bool
	HasBody     bool // false for unimplemented (abstract/interface) functions
}

// Event is an event declaration.
type Event struct {
	Name   string
	Params []Param
}

// Modifier is a modifier declaration.
type Modifier struct {
	Name   string
	Params []Param
}

// Struct is a struct declaration nested in a contract.
type Struct struct {
	Name   string
	Fields []Param
}

// Enum is an enum declaration nested in a contract.
type Enum struct {
	Name   string
	Values []string
}
