package curriculum

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// Part is one challenge document.
type Part struct {
	Number     int          `json:"number"`
	Title      string       `json:"title"`
	Intro      string       `json:"intro"`
	File       string       `json:"file"`
	Challenges []*Challenge `json:"challenges"`
}

var (
	partHeading      = regexp.MustCompile(`^# Part (\d+): (.+)$`)
	challengeHeading = regexp.MustCompile(`^## Challenge (\d+): (.+)$`)
	gradeDirective   = regexp.MustCompile(`^<!--\s*grade:\s*([a-z]+)\s*-->$`)
	fieldLine        = regexp.MustCompile(`^\*\*(Difficulty|Problem|Expected Output|Solution|Explanation):\*\*\s*(.*)$`)
)

type section int

const (
	secNone section = iota
	secIntro
	secProblem
	secExpected
	secSolution
	secExplanation
)

// parser is a line-oriented state machine over one part document. It is
// lenient: missing sections stay empty and Lint reports them.
type parser struct {
	file    string
	part    *Part
	cur     *Challenge
	sec     section
	text    []string
	fence   []string
	inFence bool
}

// Parse reads a part document. It fails only when the "# Part N: Title"
// heading is missing or a fenced block is left open.
func Parse(file string, data []byte) (*Part, error) {
	p := &parser{file: file}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := p.line(strings.TrimRight(sc.Text(), " \t\r"), lineNo); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if p.part == nil {
		return nil, fmt.Errorf("%w: %s has no part heading", apperrors.ErrMalformedCurriculum, file)
	}
	if p.inFence {
		return nil, fmt.Errorf("%w: %s ends inside a fenced block", apperrors.ErrMalformedCurriculum, file)
	}
	p.flush()
	return p.part, nil
}

func (p *parser) line(line string, lineNo int) error {
	if p.inFence {
		if strings.HasPrefix(line, "```") {
			p.closeFence()
			return nil
		}
		p.fence = append(p.fence, line)
		return nil
	}

	if strings.HasPrefix(line, "```") {
		p.inFence = true
		p.fence = p.fence[:0]
		return nil
	}

	if m := partHeading.FindStringSubmatch(line); m != nil {
		if p.part != nil {
			return fmt.Errorf("%w: %s:%d: second part heading", apperrors.ErrMalformedCurriculum, p.file, lineNo)
		}
		n, _ := strconv.Atoi(m[1])
		p.part = &Part{Number: n, Title: strings.TrimSpace(m[2]), File: p.file}
		p.sec = secIntro
		return nil
	}
	if p.part == nil {
		return nil
	}

	if m := challengeHeading.FindStringSubmatch(line); m != nil {
		p.flush()
		n, _ := strconv.Atoi(m[1])
		p.cur = &Challenge{
			ID:     ChallengeID(p.part.Number, n),
			Part:   p.part.Number,
			Number: n,
			Title:  strings.TrimSpace(m[2]),
			Mode:   ModeExact,
			Line:   lineNo,
		}
		p.part.Challenges = append(p.part.Challenges, p.cur)
		p.sec = secNone
		return nil
	}

	if line == "---" {
		p.flush()
		p.sec = secNone
		return nil
	}

	if p.cur == nil {
		if p.sec == secIntro {
			p.text = append(p.text, line)
		}
		return nil
	}

	if m := fieldLine.FindStringSubmatch(line); m != nil {
		p.flush()
		rest := strings.TrimSpace(m[2])
		switch m[1] {
		case "Difficulty":
			p.cur.Difficulty = Difficulty(rest)
			p.sec = secNone
		case "Problem":
			p.sec = secProblem
		case "Expected Output":
			p.sec = secExpected
		case "Solution":
			p.sec = secSolution
		case "Explanation":
			p.sec = secExplanation
		}
		if rest != "" && p.sec != secNone {
			p.text = append(p.text, rest)
		}
		return nil
	}

	if p.sec == secExpected {
		if m := gradeDirective.FindStringSubmatch(line); m != nil {
			p.cur.Mode = GradeMode(m[1])
			return nil
		}
	}

	p.text = append(p.text, line)
	return nil
}

func (p *parser) closeFence() {
	p.inFence = false
	body := strings.Join(p.fence, "\n")
	if p.cur == nil {
		return
	}
	switch p.sec {
	case secExpected:
		if p.cur.ExpectedOutput == "" {
			p.cur.ExpectedOutput = body
		}
	case secSolution:
		if p.cur.Solution == "" {
			p.cur.Solution = body
		}
	}
}

// flush stores the prose collected for the current section.
func (p *parser) flush() {
	text := strings.TrimSpace(strings.Join(p.text, "\n"))
	p.text = p.text[:0]
	if text == "" {
		return
	}

	if p.cur == nil {
		if p.sec == secIntro && p.part.Intro == "" {
			p.part.Intro = text
		}
		return
	}
	switch p.sec {
	case secProblem:
		p.cur.Problem = text
	case secExplanation:
		p.cur.Explanation = text
	}
}
