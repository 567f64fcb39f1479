package curriculum

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// Catalog is the loaded guide. It is immutable after Load and safe for
// concurrent use.
type Catalog struct {
	index *Index
	parts []*Part
	byID  map[string]*Challenge
}

// Filter narrows Challenges. Zero values match everything.
type Filter struct {
	Part       int
	Difficulty Difficulty
	// Query matches ID, title or problem text, case-insensitively.
	Query string
	Mode  GradeMode
}

// Load reads the index and every part file it lists from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	raw, err := fs.ReadFile(fsys, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IndexFile, err)
	}
	idx, err := ParseIndex(raw)
	if err != nil {
		return nil, err
	}

	c := &Catalog{index: idx, byID: make(map[string]*Challenge)}
	var errs []error
	for _, entry := range idx.Entries {
		data, err := fs.ReadFile(fsys, entry.File)
		if err != nil {
			errs = append(errs, fmt.Errorf("read part %d: %w", entry.Part, err))
			continue
		}
		part, err := Parse(entry.File, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.parts = append(c.parts, part)
		for _, ch := range part.Challenges {
			if _, dup := c.byID[ch.ID]; !dup {
				c.byID[ch.ID] = ch
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	sort.SliceStable(c.parts, func(i, j int) bool { return c.parts[i].Number < c.parts[j].Number })
	return c, nil
}

// Index returns the parsed README table.
func (c *Catalog) Index() *Index {
	return c.index
}

// Parts returns the parts in order.
func (c *Catalog) Parts() []*Part {
	return c.parts
}

// Part returns part n.
func (c *Catalog) Part(n int) (*Part, error) {
	for _, p := range c.parts {
		if p.Number == n {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", apperrors.ErrPartNotFound, n)
}

// Challenge looks a challenge up by its "<part>.<number>" ID.
func (c *Catalog) Challenge(id string) (*Challenge, error) {
	part, number, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	ch, ok := c.byID[ChallengeID(part, number)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChallengeNotFound, id)
	}
	return ch, nil
}

// Challenges returns the matching challenges in curriculum order.
func (c *Catalog) Challenges(f Filter) []*Challenge {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []*Challenge
	for _, p := range c.parts {
		if f.Part != 0 && p.Number != f.Part {
			continue
		}
		for _, ch := range p.Challenges {
			if f.Difficulty != "" && !strings.EqualFold(string(ch.Difficulty), string(f.Difficulty)) {
				continue
			}
			if f.Mode != "" && ch.Mode != f.Mode {
				continue
			}
			if query != "" && !matches(ch, query) {
				continue
			}
			out = append(out, ch)
		}
	}
	return out
}

func matches(ch *Challenge, query string) bool {
	return ch.ID == query ||
		strings.Contains(strings.ToLower(ch.Title), query) ||
		strings.Contains(strings.ToLower(ch.Problem), query)
}

// Count returns the number of parsed challenges.
func (c *Catalog) Count() int {
	n := 0
	for _, p := range c.parts {
		n += len(p.Challenges)
	}
	return n
}
