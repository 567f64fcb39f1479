package curriculum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// IndexFile is the curriculum index inside the guide directory.
const IndexFile = "README.md"

// IndexEntry is one row of the README's curriculum table.
type IndexEntry struct {
	Part       int    `json:"part"`
	Title      string `json:"title"`
	Challenges int    `json:"challenges"`
	File       string `json:"file"`
}

// Index is the parsed curriculum table and its stated total.
type Index struct {
	Entries []IndexEntry `json:"entries"`
	// Total is the "**Total: N challenges**" figure, or -1 when absent.
	Total int `json:"total"`
}

var (
	indexHeader = regexp.MustCompile(`^\|\s*Part\s*\|\s*Title\s*\|\s*Challenges\s*\|\s*File\s*\|$`)
	markdownRef = regexp.MustCompile(`^\[[^\]]*\]\(([^)]+)\)$`)
	totalLine   = regexp.MustCompile(`^\*\*Total:\s*(\d+) challenges\*\*$`)
)

// ParseIndex reads the curriculum table that starts with the
// "| Part | Title | Challenges | File |" header.
func ParseIndex(data []byte) (*Index, error) {
	idx := &Index{Total: -1}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	start := -1
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if indexHeader.MatchString(line) {
			start = i
		}
		if m := totalLine.FindStringSubmatch(line); m != nil {
			idx.Total, _ = strconv.Atoi(m[1])
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %s has no curriculum table", apperrors.ErrMalformedCurriculum, IndexFile)
	}

	// Skip the header and the |---| row.
	for i := start + 2; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "|") {
			break
		}
		entry, err := parseIndexRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", apperrors.ErrMalformedCurriculum, IndexFile, i+1, err)
		}
		idx.Entries = append(idx.Entries, entry)
	}
	if len(idx.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s lists no parts", apperrors.ErrMalformedCurriculum, IndexFile)
	}
	return idx, nil
}

func parseIndexRow(line string) (IndexEntry, error) {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	if len(cells) != 4 {
		return IndexEntry{}, fmt.Errorf("expected 4 cells, got %d", len(cells))
	}
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}

	part, err := strconv.Atoi(cells[0])
	if err != nil {
		return IndexEntry{}, fmt.Errorf("part %q is not a number", cells[0])
	}
	count, err := strconv.Atoi(cells[2])
	if err != nil {
		return IndexEntry{}, fmt.Errorf("challenge count %q is not a number", cells[2])
	}

	file := cells[3]
	if m := markdownRef.FindStringSubmatch(file); m != nil {
		file = m[1]
	}

	return IndexEntry{Part: part, Title: cells[1], Challenges: count, File: file}, nil
}

// Sum returns the total of the per-part challenge counts.
func (idx *Index) Sum() int {
	n := 0
	for _, e := range idx.Entries {
		n += e.Challenges
	}
	return n
}
