package parser

import (
	"testing"
)

const votingSource = `
// SPDX-License-Identifier: MIT
pragma solidity ^0.8.19;

import "./token/Token.sol";
import {Ownable as Owned} from "../access/Ownable.sol";

/* Governance ballot. */
contract Ballot is Owned, IVotable {
    enum Phase { Setup, Open, Closed }

    struct Voter {
        uint256 weight;
        bool voted;
        address delegate;
    }

    mapping(address => Voter) public voters;
    Token internal token;
    uint256 private constant QUORUM = 100;
    Phase public phase;

    event VoteCast(address indexed voter, uint256 weight);

    modifier onlyDuring(Phase p) {
        require(phase == p, "wrong phase");
        _;
    }

    constructor(Token token_) {
        token = token_;
    }

    function vote(uint256 proposal) external onlyDuring(Phase.Open) returns (bool) {
        emit VoteCast(msg.sender, 1);
        return true;
    }

    function tally() internal view returns (uint256 yes, uint256 no) {
        return (0, 0);
    }

    receive() external payable {}
}

interface IVotable {
    function vote(uint256 proposal) external returns (bool);
}

library Math {
    function min(uint256 a, uint256 b) internal pure returns (uint256) {
        return a < b ? a : b;
    }
}
`

func TestParseSourceUnit(t *testing.T) {
	unit, err := New().Parse("gov/Ballot.sol", votingSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(unit.Pragmas) != 1 {
		t.Errorf("len(Pragmas) = %d, want 1", len(unit.Pragmas))
	}
	wantImports := []string{"./token/Token.sol", "../access/Ownable.sol"}
	if len(unit.Imports) != len(wantImports) {
		t.Fatalf("Imports = %v, want %v", unit.Imports, wantImports)
	}
	for i, want := range wantImports {
		if unit.Imports[i] != want {
			t.Errorf("Imports[%d] = %q, want %q", i, unit.Imports[i], want)
		}
	}
	if len(unit.Contracts) != 3 {
		t.Fatalf("len(Contracts) = %d, want 3", len(unit.Contracts))
	}
}

func TestParseContractShape(t *testing.T) {
	unit, err := New().Parse("gov/Ballot.sol", votingSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ballot := unit.Contracts[0]

	if ballot.Name != "Ballot" {
		t.Errorf("Name = %q, want Ballot", ballot.Name)
	}
	if got := len(ballot.Bases); got != 2 || ballot.Bases[0] != "Owned" || ballot.Bases[1] != "IVotable" {
		t.Errorf("Bases = %v, want [Owned IVotable]", ballot.Bases)
	}

	if len(ballot.Variables) != 4 {
		t.Fatalf("len(Variables) = %d, want 4", len(ballot.Variables))
	}
	voters := ballot.Variables[0]
	if voters.TypeName != "mapping(address => Voter)" {
		t.Errorf("voters type = %q", voters.TypeName)
	}
	if voters.Visibility != "public" {
		t.Errorf("voters visibility = %q, want public", voters.Visibility)
	}
	quorum := ballot.Variables[2]
	if !quorum.Constant || quorum.Visibility != "private" {
		t.Errorf("QUORUM constant = %v visibility = %q", quorum.Constant, quorum.Visibility)
	}

	if len(ballot.Events) != 1 || ballot.Events[0].Name != "VoteCast" {
		t.Fatalf("Events = %+v", ballot.Events)
	}
	if len(ballot.Events[0].Params) != 2 {
		t.Errorf("len(VoteCast params) = %d, want 2", len(ballot.Events[0].Params))
	}

	if len(ballot.Modifiers) != 1 || ballot.Modifiers[0].Name != "onlyDuring" {
		t.Fatalf("Modifiers = %+v", ballot.Modifiers)
	}

	if len(ballot.Structs) != 1 || len(ballot.Structs[0].Fields) != 3 {
		t.Fatalf("Structs = %+v", ballot.Structs)
	}
	if len(ballot.Enums) != 1 || len(ballot.Enums[0].Values) != 3 {
		t.Fatalf("Enums = %+v", ballot.Enums)
	}
}

func TestParseFunctions(t *testing.T) {
	unit, err := New().Parse("gov/Ballot.sol", votingSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ballot := unit.Contracts[0]

	if len(ballot.Functions) != 4 {
		t.Fatalf("len(Functions) = %d, want 4", len(ballot.Functions))
	}

	ctor := ballot.Functions[0]
	if !ctor.IsConstructor || !ctor.HasBody {
		t.Errorf("constructor = %+v", ctor)
	}
	if len(ctor.Params) != 1 || ctor.Params[0].TypeName != "Token" {
		t.Errorf("constructor params = %+v", ctor.Params)
	}

	vote := ballot.Functions[1]
	if vote.Name != "vote" || vote.Visibility != "external" {
		t.Errorf("vote = %+v", vote)
	}
	if len(vote.Returns) != 1 || vote.Returns[0].TypeName != "bool" || vote.Returns[0].Name != "" {
		t.Errorf("vote returns = %+v", vote.Returns)
	}

	tally := ballot.Functions[2]
	if len(tally.Returns) != 2 || tally.Returns[0].Name != "yes" {
		t.Errorf("tally returns = %+v", tally.Returns)
	}

	recv := ballot.Functions[3]
	if !recv.IsReceive || !recv.Payable {
		t.Errorf("receive = %+v", recv)
	}
}

func TestParseInterfaceAndLibrary(t *testing.T) {
	unit, err := New().Parse("gov/Ballot.sol", votingSource)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	iface := unit.Contracts[1]
	if iface.Kind.String() != "interface" {
		t.Errorf("IVotable kind = %v", iface.Kind)
	}
	if len(iface.Functions) != 1 || iface.Functions[0].HasBody {
		t.Errorf("interface functions = %+v", iface.Functions)
	}

	lib := unit.Contracts[2]
	if lib.Kind.String() != "library" {
		t.Errorf("Math kind = %v", lib.Kind)
	}
}

func TestParseLegacyFallback(t *testing.T) {
	src := `
pragma solidity ^0.4.24;
contract Legacy {
    function() public payable {}
}
`
	unit, err := New().Parse("Legacy.sol", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	fns := unit.Contracts[0].Functions
	if len(fns) != 1 || !fns[0].IsFallback || !fns[0].Payable {
		t.Errorf("functions = %+v", fns)
	}
}

func TestParseAbstractContract(t *testing.T) {
	src := `
abstract contract Base {
    function ping() public virtual returns (uint256);
}
`
	unit, err := New().Parse("Base.sol", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	base := unit.Contracts[0]
	if !base.Abstract {
		t.Error("Abstract = false, want true")
	}
	if base.Functions[0].HasBody {
		t.Error("virtual declaration parsed as having a body")
	}
}

func TestParseSkipsUnknownDeclarations(t *testing.T) {
	src := `
pragma solidity ^0.8.19;
error NotAllowed(address who);
type Price is uint128;
using Math for uint256;

function freeHelper(uint256 x) pure returns (uint256) { return x; }

contract Tiny {
    using Math for uint256;
    error Nope();
    uint256 public n;
}
`
	unit, err := New().Parse("Tiny.sol", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(unit.Contracts) != 1 {
		t.Fatalf("len(Contracts) = %d, want 1", len(unit.Contracts))
	}
	tiny := unit.Contracts[0]
	if len(tiny.Variables) != 1 || tiny.Variables[0].Name != "n" {
		t.Errorf("Variables = %+v", tiny.Variables)
	}
}

func TestParseArrayAndPayableTypes(t *testing.T) {
	src := `
contract Wallet {
    address payable[] internal owners;
    uint256[10] private slots;
    mapping(address => uint256[]) public history;
}
`
	unit, err := New().Parse("Wallet.sol", src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	vars := unit.Contracts[0].Variables
	want := []string{"address payable[]", "uint256[10]", "mapping(address => uint256[])"}
	if len(vars) != len(want) {
		t.Fatalf("len(Variables) = %d, want %d", len(vars), len(want))
	}
	for i, w := range want {
		if vars[i].TypeName != w {
			t.Errorf("Variables[%d].TypeName = %q, want %q", i, vars[i].TypeName, w)
		}
	}
}
