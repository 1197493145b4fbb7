package segment

import (
	"reflect"
	"testing"
)

func spanTexts(doc string, spans []span) []string {
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = doc[sp.start:sp.end]
	}
	return out
}

func TestParagraphs(t *testing.T) {
	doc := "a\n\nb\n \n\n  c\nstill c\n\n\t\nd"
	got := spanTexts(doc, paragraphs(doc, span{0, len(doc)}))
	want := []string{"a", "b", "c\nstill c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paragraphs() = %q, want %q", got, want)
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"ascii", "Hello world. This is 3.14 pi! Bye", []string{"Hello world.", "This is 3.14 pi!", "Bye"}},
		{"cjk", "你好。再见！真的吗？好", []string{"你好。", "再见！", "真的吗？", "好"}},
		{"separator runs", "Really?! Yes... ok.", []string{"Really?!", "Yes...", "ok."}},
		{"closing quotes", "他说：“好。”然后走了。", []string{"他说：“好。”", "然后走了。"}},
		{"domain name", "Visit example.com today.", []string{"Visit example.com today."}},
		{"no separator", "just words", []string{"just words"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spanTexts(tt.doc, sentences(tt.doc, span{0, len(tt.doc)}, DefaultSentenceSeparators))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sentences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSentences_CustomSeparators(t *testing.T) {
	doc := "one; two; three"
	got := spanTexts(doc, sentences(doc, span{0, len(doc)}, []string{";"}))
	want := []string{"one;", "two;", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sentences() = %q, want %q", got, want)
	}
}

func TestAtoms_CoverText(t *testing.T) {
	cfg := DefaultConfig()
	text := "hello wonderful 世界 supercalifragilistic"
	sizes := atoms(text, 8, cfg.Measure, UnitRune)
	total := 0
	for _, n := range sizes {
		total += n
	}
	if total != len(text) {
		t.Errorf("atoms cover %d bytes, want %d", total, len(text))
	}
}

func TestConfig_Measure(t *testing.T) {
	family := "👨‍👩‍👧"
	runes := DefaultConfig()
	if got := runes.Measure(family); got != 5 {
		t.Errorf("rune Measure = %d, want 5", got)
	}
	graph := DefaultConfig()
	graph.LengthUnit = UnitGrapheme
	if got := graph.Measure(family); got != 1 {
		t.Errorf("grapheme Measure = %d, want 1", got)
	}
	if got := graph.Measure("汉字"); got != 2 {
		t.Errorf("grapheme Measure(汉字) = %d, want 2", got)
	}
}

func TestProgress(t *testing.T) {
	p := ProgressPrefix(2, 5) + "body (1/2) stays"
	if p != "(2/5) body (1/2) stays" {
		t.Errorf("ProgressPrefix = %q", p)
	}
	if got := StripProgress(p); got != "body (1/2) stays" {
		t.Errorf("StripProgress = %q", got)
	}
	if got := StripProgress("no marker"); got != "no marker" {
		t.Errorf("StripProgress = %q", got)
	}
}
