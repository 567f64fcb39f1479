package sqlscript

import "strings"

// InsertedRows counts the VALUES tuples each INSERT statement adds, keyed by
// target table. INSERT ... SELECT statements contribute nothing because their
// row count is only known to the database.
func InsertedRows(stmts []Statement) map[string]int {
	counts := make(map[string]int)
	for _, st := range stmts {
		if st.Keyword() != "INSERT" {
			continue
		}
		table, rest := st.target("INTO")
		if table == "" {
			continue
		}
		if n := countTuples(rest); n > 0 {
			counts[table] += n
		}
	}
	return counts
}

// CreatedTables lists the tables created by the script in creation order.
func CreatedTables(stmts []Statement) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, st := range stmts {
		w := st.words(3)
		if len(w) < 2 || w[0] != "CREATE" {
			continue
		}
		if w[1] != "TABLE" && (len(w) < 3 || w[2] != "TABLE") {
			continue
		}
		table, _ := st.target("TABLE")
		if table == "" || seen[table] {
			continue
		}
		seen[table] = true
		tables = append(tables, table)
	}
	return tables
}

// target returns the relation named after the first keyword marker, and the
// tokens that follow it. IF NOT EXISTS and a public schema qualifier are
// skipped; names are folded the way PostgreSQL folds them.
func (s Statement) target(marker string) (string, []token) {
	toks := s.tokens
	i := 0
	for i < len(toks) && toks[i].upper() != marker {
		i++
	}
	i++
	for i+1 < len(toks) && toks[i].upper() == "IF" {
		i += 3
	}
	if i >= len(toks) {
		return "", nil
	}

	var parts []string
	for i < len(toks) {
		parts = append(parts, identifier(toks[i]))
		if i+1 < len(toks) && toks[i+1].is('.') {
			i += 2
			continue
		}
		i++
		break
	}
	if len(parts) == 2 && parts[0] == "public" {
		parts = parts[1:]
	}
	return strings.Join(parts, "."), toks[i:]
}

func identifier(tok token) string {
	if tok.kind == tokQuotedIdent {
		return strings.ReplaceAll(strings.Trim(tok.text, `"`), `""`, `"`)
	}
	return strings.ToLower(tok.text)
}

// countTuples counts the parenthesised tuples of a top-level VALUES list.
func countTuples(toks []token) int {
	i := 0
	for i < len(toks) && !(toks[i].depth == 0 && toks[i].upper() == "VALUES") {
		// An explicit column list sits at depth 0 before VALUES.
		if toks[i].depth == 0 && toks[i].upper() == "SELECT" {
			return 0
		}
		i++
	}
	n := 0
	for i++; i < len(toks); i++ {
		tok := toks[i]
		if tok.depth != 0 {
			continue
		}
		if tok.kind == tokWord {
			break
		}
		if tok.is('(') {
			n++
		}
	}
	return n
}
