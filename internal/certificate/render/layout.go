package render

import (
	"math"
	"strings"
	"unicode"

	"certdesk/internal/certificate/profile"
)

// Measurer returns the advance width of text at the body font size.
type Measurer func(text string, bold bool) float64

// Placement is one fragment positioned on the page (bottom-left origin).
type Placement struct {
	X    float64
	Text string
	Bold bool
}

// Line is one laid out line of the body paragraph.
type Line struct {
	Baseline float64
	Items    []Placement
}

// Paragraph is the result of laying out the body. Dropped counts lines that
// did not fit the frame height.
type Paragraph struct {
	Lines   []Line
	Dropped int
}

type fragment struct {
	text  string
	bold  bool
	width float64
}

type word struct {
	fragments []fragment
	width     float64
}

// Layout fills lines greedily within the frame's inner width. Every line
// but the last is justified to the full inner width; the last is left
// aligned. Whitespace, including newlines, collapses to single gaps.
func Layout(runs []Run, body profile.Body, measure Measurer) Paragraph {
	words := splitWords(runs, measure)
	if len(words) == 0 {
		return Paragraph{}
	}

	innerW, innerH := body.Frame.Inner()
	space := measure(" ", false)

	var lines [][]word
	var current []word
	width := 0.0
	for _, w := range words {
		if len(current) > 0 && width+space+w.width > innerW {
			lines = append(lines, current)
			current, width = nil, 0
		}
		if len(current) > 0 {
			width += space
		}
		current = append(current, w)
		width += w.width
	}
	lines = append(lines, current)

	maxLines := len(lines)
	if body.Leading > 0 {
		maxLines = int(math.Floor(innerH/body.Leading + 1e-9))
	}
	if maxLines < 0 {
		maxLines = 0
	}

	left := body.Frame.X + body.Frame.Padding
	top := body.Frame.Y + body.Frame.Height - body.Frame.Padding
	baseline := top - body.Size

	var p Paragraph
	for i, ws := range lines {
		if i >= maxLines {
			p.Dropped = len(lines) - maxLines
			break
		}
		gap := space
		if last := i == len(lines)-1; !last && len(ws) > 1 {
			natural := 0.0
			for _, w := range ws {
				natural += w.width
			}
			if stretched := (innerW - natural) / float64(len(ws)-1); stretched > space {
				gap = stretched
			}
		}

		line := Line{Baseline: baseline}
		x := left
		for j, w := range ws {
			if j > 0 {
				x += gap
			}
			for _, f := range w.fragments {
				line.Items = append(line.Items, Placement{X: x, Text: f.text, Bold: f.bold})
				x += f.width
			}
		}
		p.Lines = append(p.Lines, line)
		baseline -= body.Leading
	}
	return p
}

// splitWords tokenizes runs on whitespace. A word may span runs, in which
// case it is made of several fragments in different faces.
func splitWords(runs []Run, measure Measurer) []word {
	var words []word
	var current word
	var frag strings.Builder
	fragBold := false

	flushFragment := func() {
		if frag.Len() == 0 {
			return
		}
		text := frag.String()
		w := measure(text, fragBold)
		current.fragments = append(current.fragments, fragment{text: text, bold: fragBold, width: w})
		current.width += w
		frag.Reset()
	}
	flushWord := func() {
		flushFragment()
		if len(current.fragments) > 0 {
			words = append(words, current)
		}
		current = word{}
	}

	for _, run := range runs {
		if run.Bold != fragBold {
			flushFragment()
			fragBold = run.Bold
		}
		for _, r := range run.Text {
			if unicode.IsSpace(r) {
				flushWord()
				continue
			}
			frag.WriteRune(r)
		}
	}
	flushWord()
	return words
}
