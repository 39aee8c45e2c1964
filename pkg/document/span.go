package document

import "github.com/mirrordoc/mirrordoc/pkg/syntax"

// Span is a half-open byte interval [Start, End) in the source text, with
// 1-based line/column coordinates for both ends. Spans are derived from the
// last successful parse; they go stale after any edit that has not been
// re-synchronized yet.
type Span struct {
	Start     int `yaml:"start"`
	End       int `yaml:"end"`
	StartLine int `yaml:"startLine"`
	StartCol  int `yaml:"startCol"`
	EndLine   int `yaml:"endLine"`
	EndCol    int `yaml:"endCol"`
}

func spanFromSyntax(s syntax.Span) *Span {
	return &Span{
		Start:     s.Start.Offset,
		End:       s.End.Offset,
		StartLine: s.Start.Line,
		StartCol:  s.Start.Column,
		EndLine:   s.End.Line,
		EndCol:    s.End.Column,
	}
}

func (s *Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies fully inside s.
func (s *Span) Contains(o *Span) bool {
	if s == nil || o == nil {
		return false
	}
	return s.Start <= o.Start && o.End <= s.End
}

func (s *Span) clone() *Span {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
