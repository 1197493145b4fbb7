package segment

import "strings"

// Split divides document into ordered segments according to cfg.
//
// The primary strategy is chosen by cfg.Algorithm. When it yields fewer than
// cfg.MinSegments segments the whole document is split again with a smaller target,
// first at sentence boundaries and then at word boundaries; the first result that
// reaches the lower bound wins, otherwise the result with the most segments is kept.
// Results above cfg.MaxSegments are merged down according to cfg.MergePolicy.
//
// Split is a pure function and is safe for concurrent use.
func Split(document string, cfg Config) ([]Segment, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	doc := strings.TrimSpace(document)
	if doc == "" {
		return nil, ErrEmptyDocument
	}
	s := &splitter{doc: doc, cfg: cfg}
	spans, target := s.run()
	return s.build(spans, target), nil
}

type splitter struct {
	doc string
	cfg Config
}

// candidate is one strategy of the fallback cascade with the target it runs at.
type candidate struct {
	target int
	split  func(target int) []span
}

func (s *splitter) whole() span {
	return span{start: 0, end: len(s.doc)}
}

func (s *splitter) length(sp span) int {
	return s.cfg.Measure(s.doc[sp.start:sp.end])
}

func (s *splitter) run() ([]span, int) {
	total := s.length(s.whole())
	if total <= s.cfg.SegmentLength && s.cfg.MinSegments <= 1 {
		return []span{s.whole()}, s.cfg.SegmentLength
	}
	var best []span
	bestTarget := s.cfg.SegmentLength
	for _, c := range s.candidates(total) {
		spans := s.capCount(c.split(c.target))
		if len(spans) >= s.cfg.MinSegments {
			return spans, c.target
		}
		if len(spans) > len(best) {
			best, bestTarget = spans, c.target
		}
	}
	if len(best) == 0 {
		return []span{s.whole()}, s.cfg.SegmentLength
	}
	return best, bestTarget
}

func (s *splitter) candidates(total int) []candidate {
	var out []candidate
	switch s.cfg.Algorithm {
	case AlgorithmSentence:
		out = append(out, candidate{target: s.cfg.SegmentLength, split: s.bySentence(false)})
	case AlgorithmLength:
		out = append(out, candidate{target: s.cfg.SegmentLength, split: s.byLength})
	default:
		out = append(out, candidate{target: s.cfg.SegmentLength, split: s.byParagraph})
	}
	if s.cfg.MinSegments <= 1 {
		return out
	}
	smaller := min((total+s.cfg.MinSegments-1)/s.cfg.MinSegments, s.cfg.SegmentLength)
	if s.cfg.Algorithm != AlgorithmLength {
		out = append(out, candidate{target: smaller, split: s.bySentence(true)})
	}
	// Pieces shorter than a minimal paragraph are not worth a message of their own.
	floor := max(s.cfg.MinParagraphLength, 1)
	out = append(out, candidate{target: max(smaller, floor), split: s.byLength})
	return out
}

// byParagraph packs whole paragraphs. Paragraphs longer than target, or all paragraphs
// when integrity is off, are broken into sentences first.
func (s *splitter) byParagraph(target int) []span {
	keep := s.cfg.KeepParagraphIntegrity
	var units []unit
	for _, p := range paragraphs(s.doc, s.whole()) {
		if keep && s.length(p) <= target {
			units = append(units, unit{span: p})
			continue
		}
		for i, sp := range s.fit(sentences(s.doc, p, s.cfg.SentenceSeparators), target) {
			units = append(units, unit{span: sp, breakBefore: keep && i == 0})
		}
	}
	minFill := 0
	if keep {
		minFill = s.cfg.MinParagraphLength
	}
	return s.pack(units, target, minFill)
}

// bySentence packs sentences. With withinParagraphs a paragraph break also ends a sentence.
// Only sentences longer than SegmentLength are cut, so a smaller fallback target never
// breaks a sentence that would fit a regular segment.
func (s *splitter) bySentence(withinParagraphs bool) func(target int) []span {
	return func(target int) []span {
		var sents []span
		if withinParagraphs {
			for _, p := range paragraphs(s.doc, s.whole()) {
				sents = append(sents, sentences(s.doc, p, s.cfg.SentenceSeparators)...)
			}
		} else {
			sents = sentences(s.doc, s.whole(), s.cfg.SentenceSeparators)
		}
		fitted := s.fit(sents, s.cfg.SegmentLength)
		units := make([]unit, len(fitted))
		for i, sp := range fitted {
			units[i] = unit{span: sp}
		}
		return s.pack(units, target, 0)
	}
}

func (s *splitter) byLength(target int) []span {
	return s.pieces(s.whole(), target)
}

// fit replaces every span longer than target with word-boundary pieces.
func (s *splitter) fit(spans []span, target int) []span {
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		if s.length(sp) <= target {
			out = append(out, sp)
			continue
		}
		out = append(out, s.pieces(sp, target)...)
	}
	return out
}

// pieces cuts within into runs of at most target length, cutting only between atoms.
func (s *splitter) pieces(within span, target int) []span {
	text := s.doc[within.start:within.end]
	var out []span
	start, pos, cur := 0, 0, 0
	for _, size := range atoms(text, target, s.cfg.Measure, s.cfg.LengthUnit) {
		tok := text[pos : pos+size]
		space := isSpaceOnly([]byte(tok))
		n := s.cfg.Measure(tok)
		if cur > 0 && cur+n > target && !space {
			out = appendTrimmed(out, s.doc, within.start+start, within.start+pos)
			start, cur = pos, 0
		}
		pos += size
		if cur == 0 && space {
			start = pos
			continue
		}
		cur += n
	}
	return appendTrimmed(out, s.doc, within.start+start, within.end)
}

// pack greedily groups consecutive units. The open group is closed when the next unit
// would push it past target and it already holds minFill, or when the unit demands a break.
// Only unit text counts toward target; the whitespace between units does not, so two
// paragraphs of target/2 share a segment. A trailing group shorter than minFill joins the
// one before it.
func (s *splitter) pack(units []unit, target, minFill int) []span {
	var out []span
	var cur span
	curLen, open := 0, false
	for _, u := range units {
		if !open {
			cur, curLen, open = u.span, s.length(u.span), true
			continue
		}
		next := curLen + s.length(u.span)
		if u.breakBefore || (next > target && curLen >= minFill) {
			out = append(out, cur)
			cur, curLen = u.span, s.length(u.span)
			continue
		}
		cur.end, curLen = u.end, next
	}
	if open {
		out = append(out, cur)
	}
	if minFill > 0 && len(out) > 1 && s.length(out[len(out)-1]) < minFill {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		out[len(out)-1].end = last.end
	}
	return out
}

// capCount merges segments until there are at most MaxSegments.
func (s *splitter) capCount(spans []span) []span {
	limit := s.cfg.MaxSegments
	if len(spans) <= limit {
		return spans
	}
	out := append([]span(nil), spans...)
	if s.cfg.MergePolicy == MergeTail {
		out[limit-1].end = out[len(out)-1].end
		return out[:limit]
	}
	for len(out) > limit {
		best, bestLen := 0, -1
		for i := 0; i+1 < len(out); i++ {
			n := s.length(span{start: out[i].start, end: out[i+1].end})
			if bestLen < 0 || n < bestLen {
				best, bestLen = i, n
			}
		}
		out[best].end = out[best+1].end
		out = append(out[:best+1], out[best+2:]...)
	}
	return out
}

func (s *splitter) build(spans []span, target int) []Segment {
	out := make([]Segment, len(spans))
	for i, sp := range spans {
		sep := ""
		if i+1 < len(spans) {
			sep = s.doc[sp.end:spans[i+1].start]
		}
		out[i] = Segment{
			Index:        i + 1,
			Total:        len(spans),
			Content:      s.doc[sp.start:sp.end],
			Separator:    sep,
			TargetLength: target,
			Start:        sp.start,
			End:          sp.end,
		}
	}
	return out
}
