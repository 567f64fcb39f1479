// Package sqlscript splits PostgreSQL scripts into statements and answers
// the questions the seed loader and the grader ask about them.
package sqlscript

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TxKind classifies transaction control statements.
type TxKind int

const (
	TxNone TxKind = iota
	TxBegin
	TxCommit
	TxRollback
)

// Statement is one statement of a script, without its terminating semicolon.
type Statement struct {
	Text string
	// Line is the 1-based line the statement starts on.
	Line int

	tokens []token
}

// Split breaks a script into statements. Semicolons inside quotes, dollar
// quoted bodies, comments and parentheses do not terminate a statement.
// Statements made only of comments are dropped.
func Split(script string) []Statement {
	var (
		stmts   []Statement
		current []token
	)

	flush := func(end int) {
		first := -1
		for i, tok := range current {
			if tok.kind != tokComment {
				first = i
				break
			}
		}
		if first >= 0 {
			start := current[first].start
			stmts = append(stmts, newStatement(strings.TrimSpace(script[start:end]), current[first].line))
		}
		current = current[:0]
	}

	l := newLexer(script)
	for {
		tok, ok := l.next()
		if !ok {
			break
		}
		if tok.is(';') && tok.depth == 0 {
			flush(tok.start)
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		flush(len(script))
	}

	return stmts
}

// Parse builds a single statement from text, which should not contain
// more than one statement.
func Parse(text string) Statement {
	return newStatement(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";")), 1)
}

func newStatement(text string, line int) Statement {
	var toks []token
	for _, tok := range tokenize(text) {
		if tok.kind != tokComment {
			toks = append(toks, tok)
		}
	}
	return Statement{Text: text, Line: line, tokens: toks}
}

// words returns the first n upper-cased words of the statement, skipping
// leading parentheses.
func (s Statement) words(n int) []string {
	var out []string
	for _, tok := range s.tokens {
		if len(out) == n {
			break
		}
		if tok.is('(') && len(out) == 0 {
			continue
		}
		if tok.kind != tokWord {
			break
		}
		out = append(out, tok.upper())
	}
	return out
}

// Keyword returns the leading keyword in upper case, or "".
func (s Statement) Keyword() string {
	if w := s.words(1); len(w) == 1 {
		return w[0]
	}
	return ""
}

// TxControl reports which transaction control command the statement is.
// SAVEPOINT, RELEASE and ROLLBACK TO are ordinary statements.
func (s Statement) TxControl() TxKind {
	w := s.words(2)
	if len(w) == 0 {
		return TxNone
	}
	second := ""
	if len(w) > 1 {
		second = w[1]
	}

	switch w[0] {
	case "BEGIN":
		return TxBegin
	case "START":
		if second == "TRANSACTION" {
			return TxBegin
		}
	case "COMMIT", "END":
		if second != "PREPARED" {
			return TxCommit
		}
	case "ROLLBACK", "ABORT":
		if second != "TO" && second != "PREPARED" {
			return TxRollback
		}
	}
	return TxNone
}

// IsTransactionControl reports whether the statement begins, commits or
// rolls back a transaction.
func (s Statement) IsTransactionControl() bool {
	return s.TxControl() != TxNone
}

// ReadOnly reports whether the statement only reads data. SELECT INTO,
// row locking clauses and data-modifying CTEs are not read-only.
func (s Statement) ReadOnly() bool {
	switch s.Keyword() {
	case "SHOW", "TABLE", "VALUES":
		return true
	case "EXPLAIN":
		return !s.hasWord("ANALYZE", -1) && !s.hasWord("ANALYSE", -1)
	case "SELECT", "WITH":
		if s.Keyword() == "SELECT" && s.hasWord("INTO", 0) {
			return false
		}
		for _, w := range []string{"INSERT", "UPDATE", "DELETE", "MERGE", "SHARE"} {
			if s.hasWord(w, -1) {
				return false
			}
		}
		return true
	}
	return false
}

// Ordered reports whether the statement has an ORDER BY outside any
// parentheses, which is what fixes the order of its result rows.
func (s Statement) Ordered() bool {
	for i := 0; i+1 < len(s.tokens); i++ {
		if s.tokens[i].depth == 0 && s.tokens[i].upper() == "ORDER" && s.tokens[i+1].upper() == "BY" {
			return true
		}
	}
	return false
}

// NoTransaction reports whether PostgreSQL refuses to run the statement
// inside a transaction block.
func (s Statement) NoTransaction() bool {
	w := s.words(3)
	if len(w) == 0 {
		return false
	}
	second := ""
	if len(w) > 1 {
		second = w[1]
	}

	switch w[0] {
	case "VACUUM":
		return true
	case "ALTER":
		return second == "SYSTEM"
	case "COMMIT", "ROLLBACK":
		return second == "PREPARED"
	case "CREATE", "DROP":
		if second == "DATABASE" || second == "TABLESPACE" {
			return true
		}
		return s.hasWord("INDEX", 0) && s.hasWord("CONCURRENTLY", 0)
	case "REINDEX":
		return s.hasWord("CONCURRENTLY", 0) || second == "SYSTEM" || second == "DATABASE"
	}
	return false
}

// Calls returns the first of names invoked as a function anywhere in the
// statement, dollar-quoted bodies included, or "" when none is.
func (s Statement) Calls(names ...string) string {
	return calls(s.tokens, names)
}

func calls(toks []token, names []string) string {
	var prev token
	for _, tok := range toks {
		switch tok.kind {
		case tokComment:
			continue
		case tokDollarString:
			if name := calls(tokenize(dollarBody(tok.text)), names); name != "" {
				return name
			}
		}
		if tok.is('(') && prev.kind == tokWord {
			for _, name := range names {
				if strings.EqualFold(prev.text, name) {
					return name
				}
			}
		}
		prev = tok
	}
	return ""
}

// dollarBody strips the $tag$ delimiters from a dollar-quoted string.
func dollarBody(text string) string {
	end := strings.IndexByte(text[1:], '$')
	if end < 0 {
		return ""
	}
	tag := text[:end+2]
	return strings.TrimSuffix(strings.TrimPrefix(text, tag), tag)
}

// hasWord reports whether word appears as a keyword at the given
// parenthesis depth; depth -1 matches any depth.
func (s Statement) hasWord(word string, depth int) bool {
	for _, tok := range s.tokens {
		if (depth < 0 || tok.depth == depth) && tok.upper() == word {
			return true
		}
	}
	return false
}

// Checksum returns the hex SHA-256 digest of a script.
func Checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}
