package sqlscript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokString
	tokQuotedIdent
	tokDollarString
	tokComment
	tokPunct
)

// token is a lexical unit of a PostgreSQL script. Offsets are byte offsets
// into the source; depth is the parenthesis depth the token starts at.
type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	line  int
	depth int
}

// upper returns the upper-cased text of a word token and "" otherwise.
func (t token) upper() string {
	if t.kind != tokWord {
		return ""
	}
	return strings.ToUpper(t.text)
}

func (t token) is(punct byte) bool {
	return t.kind == tokPunct && len(t.text) == 1 && t.text[0] == punct
}

type lexer struct {
	src   string
	pos   int
	line  int
	depth int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

// tokenize returns every token of src, comments included. Unterminated
// quotes and comments run to the end of the input.
func tokenize(src string) []token {
	l := newLexer(src)
	var toks []token
	for {
		tok, ok := l.next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) advance(n int) {
	end := l.pos + n
	if end > len(l.src) {
		end = len(l.src)
	}
	l.line += strings.Count(l.src[l.pos:end], "\n")
	l.pos = end
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.advance(size)
	}
}

func (l *lexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{}, false
	}

	start, line, depth := l.pos, l.line, l.depth
	c := l.src[l.pos]
	kind := tokPunct

	switch {
	case c == '-' && l.peek(1) == '-':
		kind = tokComment
		l.lineComment()
	case c == '/' && l.peek(1) == '*':
		kind = tokComment
		l.blockComment()
	case c == '\'':
		kind = tokString
		l.quoted('\'', false)
	case c == '"':
		kind = tokQuotedIdent
		l.quoted('"', false)
	case c == '$' && l.dollarTag() != "":
		kind = tokDollarString
		l.dollarQuoted(l.dollarTag())
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		kind = tokNumber
		l.number()
	case isWordStart(l.src[l.pos:]):
		kind = tokWord
		l.word()
		// E'...' strings accept backslash escapes.
		if word := l.src[start:l.pos]; (word == "E" || word == "e") && l.peek(0) == '\'' {
			kind = tokString
			l.quoted('\'', true)
		}
	default:
		switch c {
		case '(':
			l.depth++
		case ')':
			if l.depth > 0 {
				l.depth--
			}
		}
		l.advance(1)
	}

	return token{
		kind:  kind,
		text:  l.src[start:l.pos],
		start: start,
		end:   l.pos,
		line:  line,
		depth: depth,
	}, true
}

func (l *lexer) lineComment() {
	if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		l.advance(i)
		return
	}
	l.advance(len(l.src) - l.pos)
}

// blockComment consumes a /* */ comment; PostgreSQL allows nesting.
func (l *lexer) blockComment() {
	nesting := 0
	for l.pos < len(l.src) {
		switch {
		case l.peek(0) == '/' && l.peek(1) == '*':
			nesting++
			l.advance(2)
		case l.peek(0) == '*' && l.peek(1) == '/':
			nesting--
			l.advance(2)
			if nesting == 0 {
				return
			}
		default:
			l.advance(1)
		}
	}
}

// quoted consumes a literal delimited by quote. A doubled quote is an
// escaped quote; with backslashes set, \x escapes the next byte too.
func (l *lexer) quoted(quote byte, backslashes bool) {
	l.advance(1)
	for l.pos < len(l.src) {
		c := l.peek(0)
		switch {
		case backslashes && c == '\\':
			l.advance(2)
		case c == quote && l.peek(1) == quote:
			l.advance(2)
		case c == quote:
			l.advance(1)
			return
		default:
			l.advance(1)
		}
	}
}

// dollarTag returns the opening delimiter ($$ or $tag$) at the current
// position, or "" when the $ is not a dollar quote (e.g. a $1 parameter).
func (l *lexer) dollarTag() string {
	rest := l.src[l.pos:]
	if len(rest) < 2 || rest[0] != '$' {
		return ""
	}
	if rest[1] == '$' {
		return "$$"
	}
	if !isWordStart(rest[1:]) {
		return ""
	}
	for i := 1; i < len(rest); {
		r, size := utf8.DecodeRuneInString(rest[i:])
		if r == '$' {
			return rest[:i+1]
		}
		if !isTagRune(r) {
			return ""
		}
		i += size
	}
	return ""
}

func (l *lexer) dollarQuoted(tag string) {
	l.advance(len(tag))
	if i := strings.Index(l.src[l.pos:], tag); i >= 0 {
		l.advance(i + len(tag))
		return
	}
	l.advance(len(l.src) - l.pos)
}

func (l *lexer) number() {
	for l.pos < len(l.src) {
		c := l.peek(0)
		if !isDigit(c) && c != '.' && c != '_' {
			return
		}
		l.advance(1)
	}
}

func (l *lexer) word() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isTagRune(r) && r != '$' {
			return
		}
		l.advance(size)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
