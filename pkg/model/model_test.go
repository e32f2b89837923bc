package model

import (
	"reflect"
	"testing"
)

func TestAddAssociationFirstWins(t *testing.T) {
	e := &Entity{Name: "Vault"}

	e.AddAssociation("Token", Association{TargetName: "Token", Realization: true})
	e.AddAssociation("Token", Association{TargetName: "Token", RefType: RefMemory})
	e.AddAssociation("Oracle", Association{TargetName: "Oracle", RefType: RefStorage})

	if got := e.AssociationKeys(); !reflect.DeepEqual(got, []string{"Token", "Oracle"}) {
		t.Fatalf("AssociationKeys() = %v", got)
	}
	if !e.Associations["Token"].Realization {
		t.Error("second registration overwrote the first association")
	}
}

func TestAddStructAndEnumOrder(t *testing.T) {
	e := &Entity{Name: "Ballot"}

	e.AddStruct("Voter", []Field{{Name: "weight", Type: "uint256"}})
	e.AddStruct("Proposal", []Field{{Name: "name", Type: "bytes32"}})
	e.AddEnum("Phase", []string{"Open", "Closed"})

	if got := e.StructNames(); !reflect.DeepEqual(got, []string{"Voter", "Proposal"}) {
		t.Fatalf("StructNames() = %v", got)
	}
	if got := e.EnumNames(); !reflect.DeepEqual(got, []string{"Phase"}) {
		t.Fatalf("EnumNames() = %v", got)
	}

	// Re-registering replaces members without duplicating the name.
	e.AddStruct("Voter", []Field{{Name: "voted", Type: "bool"}})
	if got := e.StructNames(); len(got) != 2 {
		t.Fatalf("StructNames() after replace = %v", got)
	}
	if e.Structs["Voter"][0].Name != "voted" {
		t.Error("AddStruct did not replace fields")
	}
}

func TestFolder(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"contracts/token/ERC20.sol", "contracts/token"},
		{"Ballot.sol", "."},
		{"/abs.sol", "/"},
		{`contracts\win\A.sol`, "contracts/win"},
	}
	for _, tt := range tests {
		e := &Entity{CodePath: tt.path}
		if got := e.Folder(); got != tt.want {
			t.Errorf("Folder(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSortByCodePathStable(t *testing.T) {
	a := &Entity{ID: "1", Name: "A", CodePath: "b.sol"}
	b := &Entity{ID: "2", Name: "B", CodePath: "a.sol"}
	c := &Entity{ID: "3", Name: "C", CodePath: "b.sol"}

	list := []*Entity{a, b, c}
	SortByCodePath(list)

	want := []string{"B", "A", "C"}
	for i, e := range list {
		if e.Name != want[i] {
			t.Fatalf("order = [%s %s %s], want %v", list[0].Name, list[1].Name, list[2].Name, want)
		}
	}
}

func TestResolveImportGate(t *testing.T) {
	token := &Entity{ID: "1", Name: "Token", CodePath: "lib/Token.sol"}
	stranger := &Entity{ID: "2", Name: "Token", CodePath: "vendor/Token.sol"}

	vault := &Entity{ID: "3", Name: "Vault", CodePath: "Vault.sol", ImportedPaths: []string{"lib/Token.sol"}}
	vault.AddAssociation("Token", Association{TargetName: "Token", RefType: RefStorage})

	resolved := Resolve([]*Entity{token, stranger, vault})
	if len(resolved) != 1 {
		t.Fatalf("resolved %d associations, want 1", len(resolved))
	}
	if resolved[0].Target != token {
		t.Errorf("resolved to %s (%s), want the imported file's entity", resolved[0].Target.Name, resolved[0].Target.CodePath)
	}
}

func TestResolveSameFile(t *testing.T) {
	owned := &Entity{ID: "1", Name: "Owned", CodePath: "Ballot.sol"}
	ballot := &Entity{ID: "2", Name: "Ballot", CodePath: "Ballot.sol"}
	ballot.AddAssociation("Owned", Association{TargetName: "Owned", Realization: true})

	resolved := Resolve([]*Entity{owned, ballot})
	if len(resolved) != 1 || resolved[0].Target != owned {
		t.Fatalf("same-file association did not resolve: %+v", resolved)
	}
}

func TestResolveDropsUnknownTargets(t *testing.T) {
	e := &Entity{ID: "1", Name: "Vault", CodePath: "Vault.sol"}
	e.AddAssociation("IOracle", Association{TargetName: "IOracle", RefType: RefMemory})

	if resolved := Resolve([]*Entity{e}); len(resolved) != 0 {
		t.Fatalf("unmatched association was not dropped: %+v", resolved)
	}
}

func TestResolveNotGatedWithoutImport(t *testing.T) {
	token := &Entity{ID: "1", Name: "Token", CodePath: "lib/Token.sol"}
	vault := &Entity{ID: "2", Name: "Vault", CodePath: "Vault.sol"}
	vault.AddAssociation("Token", Association{TargetName: "Token"})

	if resolved := Resolve([]*Entity{token, vault}); len(resolved) != 0 {
		t.Fatalf("association resolved across files without an import: %+v", resolved)
	}
}
