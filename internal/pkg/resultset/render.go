package resultset

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Render writes rs in psql's aligned format: centered headers, numeric
// columns right-aligned, a dashed separator and a row count footer. A result
// without columns is written as its command tag.
func Render(w io.Writer, rs *ResultSet) error {
	return render(w, rs, -1)
}

// RenderSample is Render limited to the first n rows, followed by a "..."
// line when rows were omitted. Column widths and the footer still cover
// every row.
func RenderSample(w io.Writer, rs *ResultSet, n int) error {
	return render(w, rs, n)
}

// String renders rs to a string.
func (rs *ResultSet) String() string {
	var b strings.Builder
	_ = Render(&b, rs)
	return strings.TrimRight(b.String(), "\n")
}

func render(w io.Writer, rs *ResultSet, limit int) error {
	bw := bufio.NewWriter(w)

	if !rs.HasRows() {
		fmt.Fprintln(bw, rs.Tag)
		return bw.Flush()
	}

	widths := make([]int, len(rs.Columns))
	for i, col := range rs.Columns {
		widths[i] = DisplayWidth(col.Name)
	}
	for _, row := range rs.Rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], DisplayWidth(row[i].Text()))
			}
		}
	}

	header := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		pad := widths[i] - DisplayWidth(col.Name)
		left := pad / 2
		header[i] = strings.Repeat(" ", left) + col.Name + strings.Repeat(" ", pad-left)
	}
	writeLine(bw, header)

	dashes := make([]string, len(widths))
	for i, n := range widths {
		dashes[i] = strings.Repeat("-", n+2)
	}
	fmt.Fprintln(bw, strings.Join(dashes, "+"))

	shown := rs.Rows
	if limit >= 0 && limit < len(shown) {
		shown = shown[:limit]
	}
	for _, row := range shown {
		cells := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			text := ""
			if i < len(row) {
				text = row[i].Text()
			}
			pad := strings.Repeat(" ", widths[i]-DisplayWidth(text))
			if col.Numeric {
				cells[i] = pad + text
			} else {
				cells[i] = text + pad
			}
		}
		writeLine(bw, cells)
	}
	if len(shown) < len(rs.Rows) {
		fmt.Fprintln(bw, "...")
	}

	fmt.Fprintln(bw, Footer(len(rs.Rows)))
	return bw.Flush()
}

func writeLine(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.TrimRight(" "+strings.Join(cells, " | "), " "))
}

// Footer returns psql's row count line.
func Footer(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
