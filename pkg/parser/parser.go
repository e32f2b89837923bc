// Package parser extracts declaration-level structure from Solidity source.
//
// This is not a full Solidity front end. The tokenizer and parser understand
// just enough of the grammar to recover what a class diagram needs: pragmas,
// imports, and contract declarations with their state variables, function
// signatures, events, modifiers, structs, and enums. Function bodies,
// expressions, and statements are skipped with brace matching, which keeps
// the parser tolerant of language versions it has never seen.
package parser

import (
	"fmt"
	"strings"

	"github.com/solgraph/solgraph/pkg/errors"
	"github.com/solgraph/solgraph/pkg/solc"
)

// Parser parses Solidity source text into source units.
// The zero value is ready to use; a single Parser may be reused across files.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses one file's source text. path is used in error messages only.
func (p *Parser) Parse(path, src string) (*solc.SourceUnit, error) {
	s := &scanner{toks: lex(src), path: path}
	unit := &solc.SourceUnit{}

	for !s.atEOF() {
		tok := s.peek()
		switch {
		case tok.kind == tokIdent && tok.text == "pragma":
			unit.Pragmas = append(unit.Pragmas, s.collectUntilSemi())

		case tok.kind == tokIdent && tok.text == "import":
			if imp := s.parseImport(); imp != "" {
				unit.Imports = append(unit.Imports, imp)
			}

		case tok.kind == tokIdent && tok.text == "abstract":
			s.next()
			if s.peek().text != "contract" {
				continue
			}
			c, err := s.parseContract(true)
			if err != nil {
				return nil, err
			}
			unit.Contracts = append(unit.Contracts, c)

		case tok.kind == tokIdent && (tok.text == "contract" || tok.text == "interface" || tok.text == "library"):
			c, err := s.parseContract(false)
			if err != nil {
				return nil, err
			}
			unit.Contracts = append(unit.Contracts, c)

		default:
			// File-level declarations (free functions, errors, user value
			// types, using directives) carry nothing the diagram shows.
			s.skipDeclaration()
		}
	}

	return unit, nil
}

// =============================================================================
// Scanner
// =============================================================================

type scanner struct {
	toks []token
	pos  int
	path string
}

func (s *scanner) peek() token {
	return s.toks[s.pos]
}

func (s *scanner) next() token {
	tok := s.toks[s.pos]
	if tok.kind != tokEOF {
		s.pos++
	}
	return tok
}

func (s *scanner) atEOF() bool {
	return s.peek().kind == tokEOF
}

// accept consumes the next token if its text matches.
func (s *scanner) accept(text string) bool {
	if s.peek().text == text && s.peek().kind != tokEOF {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) errorf(format string, args ...any) error {
	return errors.New(errors.ErrCodeParse, "%s:%d: %s",
		s.path, s.peek().line, fmt.Sprintf(format, args...))
}

// expectIdent consumes and returns an identifier token's text.
func (s *scanner) expectIdent() (string, error) {
	if s.peek().kind != tokIdent {
		return "", s.errorf("expected identifier, found %q", s.peek().text)
	}
	return s.next().text, nil
}

// collectUntilSemi consumes tokens through the next semicolon and returns
// their space-joined text (without the semicolon).
func (s *scanner) collectUntilSemi() string {
	var parts []string
	for !s.atEOF() {
		tok := s.next()
		if tok.text == ";" {
			break
		}
		parts = append(parts, tok.text)
	}
	return strings.Join(parts, " ")
}

// skipDeclaration consumes one unrecognized declaration: everything through
// the next top-level semicolon or balanced brace block.
func (s *scanner) skipDeclaration() {
	for !s.atEOF() {
		tok := s.next()
		if tok.text == ";" {
			return
		}
		if tok.text == "{" {
			s.skipBalanced("{", "}")
			return
		}
	}
}

// skipBalanced consumes tokens until the close matching an already-consumed
// open delimiter.
func (s *scanner) skipBalanced(open, close string) {
	depth := 1
	for !s.atEOF() && depth > 0 {
		switch s.next().text {
		case open:
			depth++
		case close:
			depth--
		}
	}
}

// =============================================================================
// Directives
// =============================================================================

// parseImport handles every import form and returns the quoted path:
//
//	import "./A.sol";
//	import "./A.sol" as A;
//	import * as A from "./A.sol";
//	import {A as B, C} from "./A.sol";
func (s *scanner) parseImport() string {
	s.next() // "import"
	var path string
	for !s.atEOF() {
		tok := s.next()
		if tok.text == ";" {
			break
		}
		if tok.kind == tokString && path == "" {
			path = tok.text
		}
	}
	return path
}

// =============================================================================
// Contracts
// =============================================================================

func (s *scanner) parseContract(abstract bool) (*solc.ContractDefinition, error) {
	kindTok := s.next() // contract | interface | library
	name, err := s.expectIdent()
	if err != nil {
		return nil, err
	}

	c := &solc.ContractDefinition{
		Name:     name,
		Kind:     contractKind(kindTok.text),
		Abstract: abstract,
	}

	if s.accept("is") {
		c.Bases = s.parseBaseList()
	}

	if !s.accept("{") {
		return nil, s.errorf("expected contract body for %s", name)
	}

	for !s.atEOF() && !s.accept("}") {
		if err := s.parseMember(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func contractKind(keyword string) solc.ContractKind {
	switch keyword {
	case "interface":
		return solc.KindInterface
	case "library":
		return solc.KindLibrary
	default:
		return solc.KindContract
	}
}

// parseBaseList reads the inheritance list: dotted names separated by commas,
// each optionally followed by constructor arguments.
func (s *scanner) parseBaseList() []string {
	var bases []string
	for !s.atEOF() && s.peek().text != "{" {
		if s.peek().kind != tokIdent {
			s.next()
			continue
		}
		name := s.parseIdentPath()
		if s.accept("(") {
			s.skipBalanced("(", ")")
		}
		bases = append(bases, name)
		if !s.accept(",") {
			break
		}
	}
	return bases
}

// parseIdentPath reads a dotted identifier path such as "Lib.Data".
func (s *scanner) parseIdentPath() string {
	name := s.next().text
	for s.peek().text == "." {
		s.next()
		if s.peek().kind != tokIdent {
			break
		}
		name += "." + s.next().text
	}
	return name
}

// parseMember dispatches one contract-body declaration.
func (s *scanner) parseMember(c *solc.ContractDefinition) error {
	tok := s.peek()
	if tok.kind != tokIdent {
		s.skipDeclaration()
		return nil
	}

	switch tok.text {
	case "function", "constructor", "fallback", "receive":
		f, err := s.parseFunction(c.Kind)
		if err != nil {
			return err
		}
		c.Functions = append(c.Functions, f)
		return nil

	case "event":
		return s.parseEvent(c)

	case "modifier":
		return s.parseModifier(c)

	case "struct":
		return s.parseStruct(c)

	case "enum":
		return s.parseEnum(c)

	case "using", "error", "type":
		s.skipDeclaration()
		return nil

	default:
		return s.parseStateVariable(c)
	}
}

// =============================================================================
// Functions
// =============================================================================

func (s *scanner) parseFunction(kind solc.ContractKind) (*solc.Function, error) {
	f := &solc.Function{}

	switch s.next().text {
	case "constructor":
		f.IsConstructor = true
	case "fallback":
		f.IsFallback = true
	case "receive":
		f.IsReceive = true
	default: // "function"
		if s.peek().kind == tokIdent {
			f.Name = s.next().text
		} else {
			// Pre-0.6 unnamed function is the fallback.
			f.IsFallback = true
		}
	}

	params, err := s.parseParamList()
	if err != nil {
		return nil, err
	}
	f.Params = params

	for !s.atEOF() {
		tok := s.peek()
		switch {
		case tok.text == ";":
			s.next()
			return f, nil
		case tok.text == "{":
			s.next()
			s.skipBalanced("{", "}")
			f.HasBody = true
			return f, nil
		case tok.text == "returns":
			s.next()
			returns, err := s.parseParamList()
			if err != nil {
				return nil, err
			}
			f.Returns = returns
		case isVisibilityKeyword(tok.text):
			f.Visibility = s.next().text
		case tok.text == "payable":
			s.next()
			f.Payable = true
		case tok.kind == tokIdent:
			// Mutability, virtual/override, or a modifier invocation.
			s.next()
			if s.accept("(") {
				s.skipBalanced("(", ")")
			}
		default:
			s.next()
		}
	}
	return nil, s.errorf("unterminated function %s", f.Name)
}

func isVisibilityKeyword(text string) bool {
	switch text {
	case "public", "private", "internal", "external":
		return true
	}
	return false
}

// parseParamList reads "(" [param ("," param)*] ")". Each param is a type
// followed by optional location or indexed keywords and an optional name.
func (s *scanner) parseParamList() ([]solc.Param, error) {
	if !s.accept("(") {
		return nil, s.errorf("expected parameter list, found %q", s.peek().text)
	}

	var params []solc.Param
	for !s.atEOF() && !s.accept(")") {
		p := solc.Param{}
		typeName, err := s.parseType()
		if err != nil {
			return nil, err
		}
		p.TypeName = typeName

		for s.peek().kind == tokIdent {
			switch text := s.peek().text; text {
			case "memory", "storage", "calldata":
				s.next()
				p.Location = text
			case "indexed":
				s.next()
			default:
				p.Name = s.next().text
			}
			if p.Name != "" {
				break
			}
		}

		params = append(params, p)
		if !s.accept(",") {
			if !s.accept(")") {
				return nil, s.errorf("expected ',' or ')' in parameter list, found %q", s.peek().text)
			}
			break
		}
	}
	return params, nil
}

// =============================================================================
// Other members
// =============================================================================

func (s *scanner) parseEvent(c *solc.ContractDefinition) error {
	s.next() // "event"
	name, err := s.expectIdent()
	if err != nil {
		return err
	}
	params, err := s.parseParamList()
	if err != nil {
		return err
	}
	s.accept("anonymous")
	s.accept(";")
	c.Events = append(c.Events, &solc.Event{Name: name, Params: params})
	return nil
}

func (s *scanner) parseModifier(c *solc.ContractDefinition) error {
	s.next() // "modifier"
	name, err := s.expectIdent()
	if err != nil {
		return err
	}

	var params []solc.Param
	if s.peek().text == "(" {
		params, err = s.parseParamList()
		if err != nil {
			return err
		}
	}

	for !s.atEOF() {
		tok := s.next()
		if tok.text == ";" {
			break
		}
		if tok.text == "{" {
			s.skipBalanced("{", "}")
			break
		}
	}
	c.Modifiers = append(c.Modifiers, &solc.Modifier{Name: name, Params: params})
	return nil
}

func (s *scanner) parseStruct(c *solc.ContractDefinition) error {
	s.next() // "struct"
	name, err := s.expectIdent()
	if err != nil {
		return err
	}
	if !s.accept("{") {
		return s.errorf("expected struct body for %s", name)
	}

	st := &solc.Struct{Name: name}
	for !s.atEOF() && !s.accept("}") {
		typeName, err := s.parseType()
		if err != nil {
			return err
		}
		fieldName, err := s.expectIdent()
		if err != nil {
			return err
		}
		if !s.accept(";") {
			return s.errorf("expected ';' after struct field %s", fieldName)
		}
		st.Fields = append(st.Fields, solc.Param{Name: fieldName, TypeName: typeName})
	}
	c.Structs = append(c.Structs, st)
	return nil
}

func (s *scanner) parseEnum(c *solc.ContractDefinition) error {
	s.next() // "enum"
	name, err := s.expectIdent()
	if err != nil {
		return err
	}
	if !s.accept("{") {
		return s.errorf("expected enum body for %s", name)
	}

	en := &solc.Enum{Name: name}
	for !s.atEOF() && !s.accept("}") {
		value, err := s.expectIdent()
		if err != nil {
			return err
		}
		en.Values = append(en.Values, value)
		s.accept(",")
	}
	c.Enums = append(c.Enums, en)
	return nil
}

// parseStateVariable reads "type [keywords] name [= expr];". Visibility and
// constant keywords are kept; immutable/override and the initializer are
// consumed and dropped.
func (s *scanner) parseStateVariable(c *solc.ContractDefinition) error {
	typeName, err := s.parseType()
	if err != nil {
		return err
	}

	v := &solc.StateVariable{TypeName: typeName}
	for s.peek().kind == tokIdent && v.Name == "" {
		switch text := s.next().text; text {
		case "public", "private", "internal":
			v.Visibility = text
		case "constant":
			v.Constant = true
		case "immutable":
		case "override":
			if s.accept("(") {
				s.skipBalanced("(", ")")
			}
		default:
			v.Name = text
		}
	}
	if v.Name == "" {
		return s.errorf("expected state variable name after type %s", typeName)
	}

	// Initializer and terminator.
	depth := 0
	for !s.atEOF() {
		switch text := s.next().text; text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ";":
			if depth == 0 {
				c.Variables = append(c.Variables, v)
				return nil
			}
		}
	}
	return s.errorf("unterminated state variable %s", v.Name)
}

// =============================================================================
// Types
// =============================================================================

// parseType reads one type expression and returns its canonical text:
// elementary types, dotted user types, mappings, function types, and any
// number of array suffixes.
func (s *scanner) parseType() (string, error) {
	var base string

	switch tok := s.peek(); {
	case tok.text == "mapping":
		s.next()
		if !s.accept("(") {
			return "", s.errorf("expected '(' after mapping")
		}
		key, err := s.parseType()
		if err != nil {
			return "", err
		}
		// Named mapping parameters (0.8.18+).
		if s.peek().kind == tokIdent && s.peek().text != "=>" {
			s.next()
		}
		if !s.accept("=>") {
			return "", s.errorf("expected '=>' in mapping type")
		}
		value, err := s.parseType()
		if err != nil {
			return "", err
		}
		if s.peek().kind == tokIdent {
			s.next()
		}
		if !s.accept(")") {
			return "", s.errorf("expected ')' after mapping type")
		}
		base = "mapping(" + key + " => " + value + ")"

	case tok.text == "function":
		// Function types carry no diagram information beyond their kind.
		s.next()
		if s.accept("(") {
			s.skipBalanced("(", ")")
		}
		for s.peek().kind == tokIdent && s.peek().text != "memory" && s.peek().text != "storage" && s.peek().text != "calldata" {
			text := s.next().text
			if text == "returns" && s.accept("(") {
				s.skipBalanced("(", ")")
			}
		}
		base = "function"

	case tok.kind == tokIdent:
		base = s.parseIdentPath()
		if base == "address" && s.accept("payable") {
			base = "address payable"
		}

	default:
		return "", s.errorf("expected type, found %q", tok.text)
	}

	for s.accept("[") {
		var size strings.Builder
		depth := 1
		for !s.atEOF() && depth > 0 {
			tok := s.next()
			switch tok.text {
			case "[":
				depth++
			case "]":
				depth--
				if depth == 0 {
					continue
				}
			}
			if depth > 0 {
				size.WriteString(tok.text)
			}
		}
		base += "[" + size.String() + "]"
	}

	return base, nil
}
