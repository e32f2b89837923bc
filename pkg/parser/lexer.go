package parser

import (
	"strings"
)

// =============================================================================
// Tokens
// =============================================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lex splits source text into tokens, dropping comments and whitespace.
// String tokens carry the unquoted value. The only multi-character
// punctuation token produced is "=>"; every other symbol is one rune.
func lex(src string) []token {
	var (
		toks []token
		line = 1
		i    = 0
	)

	for i < len(src) {
		c := src[i]

		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i += 2

		case c == '"' || c == '\'':
			quote := c
			i++
			var b strings.Builder
			for i < len(src) && src[i] != quote {
				if src[i] == '\\' && i+1 < len(src) {
					i++
				}
				b.WriteByte(src[i])
				i++
			}
			i++ // closing quote
			toks = append(toks, token{tokString, b.String(), line})

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], line})

		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i], line})

		case c == '=' && i+1 < len(src) && src[i+1] == '>':
			toks = append(toks, token{tokPunct, "=>", line})
			i += 2

		default:
			toks = append(toks, token{tokPunct, string(c), line})
			i++
		}
	}

	toks = append(toks, token{tokEOF, "", line})
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
