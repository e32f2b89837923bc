package model

import (
	"reflect"
	"testing"

	"github.com/solgraph/solgraph/pkg/solc"
)

func TestBuildContract(t *testing.T) {
	unit := &solc.SourceUnit{
		Imports: []string{"./Owned.sol", "@openzeppelin/contracts/token/ERC20/IERC20.sol"},
		Contracts: []*solc.ContractDefinition{
			{
				Name:  "Vault",
				Kind:  solc.KindContract,
				Bases: []string{"Owned"},
				Variables: []*solc.StateVariable{
					{Name: "token", TypeName: "IERC20", Visibility: "public"},
					{Name: "shares", TypeName: "mapping(address => uint256)"},
				},
				Functions: []*solc.Function{
					{Name: "deposit", Visibility: "external", Payable: true, HasBody: true,
						Params: []solc.Param{{Name: "amount", TypeName: "uint256"}}},
					{IsConstructor: true, HasBody: true,
						Params: []solc.Param{{Name: "t", TypeName: "IERC20"}}},
					{IsReceive: true, Visibility: "external", Payable: true, HasBody: true},
				},
				Events: []*solc.Event{
					{Name: "Deposited", Params: []solc.Param{{Name: "who", TypeName: "address"}}},
				},
				Modifiers: []*solc.Modifier{
					{Name: "onlyOwner"},
				},
			},
		},
	}

	entities := NewBuilder().Build(unit, "contracts/Vault.sol")
	if len(entities) != 1 {
		t.Fatalf("built %d entities, want 1", len(entities))
	}
	e := entities[0]

	if e.Name != "Vault" || e.CodePath != "contracts/Vault.sol" {
		t.Errorf("entity = %s at %s", e.Name, e.CodePath)
	}
	if e.Stereotype != StereotypeNone {
		t.Errorf("Stereotype = %v, want none", e.Stereotype)
	}

	// Relative imports resolve against the file's directory.
	wantImports := []string{"contracts/Owned.sol", "@openzeppelin/contracts/token/ERC20/IERC20.sol"}
	if !reflect.DeepEqual(e.ImportedPaths, wantImports) {
		t.Errorf("ImportedPaths = %v, want %v", e.ImportedPaths, wantImports)
	}

	// Unkeyworded state variables are internal.
	if e.Attributes[1].Visibility != VisibilityInternal {
		t.Errorf("shares visibility = %v, want internal", e.Attributes[1].Visibility)
	}

	// Base, then variable type: realization wins the key.
	if a := e.Associations["Owned"]; !a.Realization {
		t.Error("base class association is not a realization")
	}
	if a, ok := e.Associations["IERC20"]; !ok || a.RefType != RefStorage {
		t.Errorf("IERC20 association = %+v, want storage reference", a)
	}

	ops := map[string]Operator{}
	for _, op := range e.Operators {
		ops[op.Name] = op
	}
	if op := ops["deposit"]; op.Stereotype != OperatorPayable || op.Visibility != VisibilityExternal {
		t.Errorf("deposit = %+v", op)
	}
	if op := ops["constructor"]; op.Name != "constructor" {
		t.Errorf("constructor operator missing: %+v", e.Operators)
	}
	if op := ops["receive"]; op.Stereotype != OperatorFallback {
		t.Errorf("receive stereotype = %v, want fallback", op.Stereotype)
	}
	if op := ops["Deposited"]; op.Stereotype != OperatorEvent {
		t.Errorf("event stereotype = %v", op.Stereotype)
	}
	if op := ops["onlyOwner"]; op.Stereotype != OperatorModifier {
		t.Errorf("modifier stereotype = %v", op.Stereotype)
	}
}

func TestStereotypeForBodylessFunction(t *testing.T) {
	c := &solc.ContractDefinition{
		Name: "Base",
		Kind: solc.KindContract,
		Functions: []*solc.Function{
			{Name: "hook", Visibility: "internal"},
		},
	}
	e := NewBuilder().Build(&solc.SourceUnit{Contracts: []*solc.ContractDefinition{c}}, "Base.sol")[0]
	if e.Stereotype != StereotypeAbstract {
		t.Errorf("Stereotype = %v, want abstract", e.Stereotype)
	}
	if e.Operators[0].Stereotype != OperatorAbstract {
		t.Errorf("operator stereotype = %v, want abstract", e.Operators[0].Stereotype)
	}
}

func TestBuilderIDsUniqueAcrossUnits(t *testing.T) {
	b := NewBuilder()
	unit := func(name string) *solc.SourceUnit {
		return &solc.SourceUnit{Contracts: []*solc.ContractDefinition{{Name: name, Kind: solc.KindContract}}}
	}
	first := b.Build(unit("A"), "a.sol")[0]
	second := b.Build(unit("B"), "b.sol")[0]
	if first.ID == second.ID {
		t.Fatalf("duplicate entity ID %q", first.ID)
	}
}

func TestUserTypes(t *testing.T) {
	tests := []struct {
		typeName string
		want     []string
	}{
		{"uint256", nil},
		{"address payable", nil},
		{"IERC20", []string{"IERC20"}},
		{"mapping(address => Vote[])", []string{"Vote"}},
		{"Lib.Data", []string{"Lib"}},
		{"mapping(bytes32 => mapping(address => Claim))", []string{"Claim"}},
		{"uint256[10]", nil},
	}
	for _, tt := range tests {
		if got := userTypes(tt.typeName); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("userTypes(%q) = %v, want %v", tt.typeName, got, tt.want)
		}
	}
}

func TestFunctionVisibilityDefaults(t *testing.T) {
	if v := functionVisibility(""); v != VisibilityPublic {
		t.Errorf("functionVisibility(\"\") = %v, want public", v)
	}
	if v := variableVisibility(""); v != VisibilityInternal {
		t.Errorf("variableVisibility(\"\") = %v, want internal", v)
	}
}
