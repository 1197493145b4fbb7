package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/graphemes"
	"github.com/clipperhouse/uax29/words"
)

// span is a half-open byte range [start, end) of the document.
type span struct {
	start int
	end   int
}

func (s span) empty() bool {
	return s.end <= s.start
}

// unit is a piece the packer may not cut. breakBefore forces the open segment to close.
type unit struct {
	span
	breakBefore bool
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// closers stay attached to the sentence they close.
const closers = "\"')]}”’」』）》〉】"

func trimSpan(doc string, sp span) span {
	text := doc[sp.start:sp.end]
	left := len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	right := len(strings.TrimRightFunc(text, unicode.IsSpace))
	if right <= left {
		return span{start: sp.start, end: sp.start}
	}
	return span{start: sp.start + left, end: sp.start + right}
}

func appendTrimmed(out []span, doc string, start, end int) []span {
	sp := trimSpan(doc, span{start: start, end: end})
	if sp.empty() {
		return out
	}
	return append(out, sp)
}

func isSpaceOnly(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if !unicode.IsSpace(r) {
			return false
		}
		b = b[size:]
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// paragraphs returns the blank-line separated paragraphs inside within.
func paragraphs(doc string, within span) []span {
	text := doc[within.start:within.end]
	var out []span
	prev := 0
	for _, m := range paragraphBreak.FindAllStringIndex(text, -1) {
		out = appendTrimmed(out, doc, within.start+prev, within.start+m[0])
		prev = m[1]
	}
	return appendTrimmed(out, doc, within.start+prev, within.end)
}

// matchSeparator returns the byte length of the longest separator at the start of text.
func matchSeparator(text string, separators []string) (int, bool) {
	n, ascii := 0, false
	for _, sep := range separators {
		if len(sep) > n && strings.HasPrefix(text, sep) {
			n, ascii = len(sep), isASCII(sep)
		}
	}
	return n, ascii
}

// sentences returns the sentences inside within. A run of separators ends a sentence;
// an ASCII separator only does so when followed by whitespace or the end of the span.
func sentences(doc string, within span, separators []string) []span {
	text := doc[within.start:within.end]
	var out []span
	start, i := 0, 0
	for i < len(text) {
		n, ascii := matchSeparator(text[i:], separators)
		if n == 0 {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		end := i + n
		for {
			m, a := matchSeparator(text[end:], separators)
			if m == 0 {
				break
			}
			end += m
			ascii = a
		}
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if !strings.ContainsRune(closers, r) {
				break
			}
			end += size
		}
		i = end
		if ascii && end < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[end:]); !unicode.IsSpace(r) {
				continue
			}
		}
		out = appendTrimmed(out, doc, within.start+start, within.start+end)
		start = end
	}
	return appendTrimmed(out, doc, within.start+start, within.end)
}

// atoms returns the byte sizes of the smallest pieces a length cut may fall between:
// UAX #29 words, with words longer than target broken into characters.
func atoms(text string, target int, measure func(string) int, unit LengthUnit) []int {
	var out []int
	consumed := 0
	seg := words.NewSegmenter([]byte(text))
	for seg.Next() {
		tok := seg.Bytes()
		consumed += len(tok)
		if measure(string(tok)) <= target {
			out = append(out, len(tok))
			continue
		}
		if unit == UnitGrapheme {
			for _, g := range graphemes.SegmentAll(tok) {
				out = append(out, len(g))
			}
			continue
		}
		for len(tok) > 0 {
			_, size := utf8.DecodeRune(tok)
			out = append(out, size)
			tok = tok[size:]
		}
	}
	for rest := text[consumed:]; len(rest) > 0; {
		_, size := utf8.DecodeRuneInString(rest)
		out = append(out, size)
		rest = rest[size:]
	}
	return out
}
