package lrc

import "testing"

func TestParseEnhancedSyllables(t *testing.T) {
	data := ParseEnhanced("[00:01.00]<00:01.00>He<00:01.50>llo")

	if len(data.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(data.Lines))
	}
	line := data.Lines[0]
	if line.StartTimeMs != 1000 || line.Text != "Hello" {
		t.Fatalf("line = %+v", line)
	}
	if len(line.Syllables) != 2 {
		t.Fatalf("len(Syllables) = %d, want 2", len(line.Syllables))
	}
	if line.Syllables[0] != (line.Syllables[0]) {
		t.Fatalf("unreachable")
	}
	if got := line.Syllables[0]; got.StartTimeMs != 0 || got.DurationMs != 500 || got.Text != "He" {
		t.Errorf("Syllables[0] = %+v", got)
	}
	if got := line.Syllables[1]; got.StartTimeMs != 500 || got.DurationMs != 0 || got.Text != "llo" {
		t.Errorf("Syllables[1] = %+v", got)
	}
}

func TestParseEnhancedNoMarkersUnchanged(t *testing.T) {
	data := ParseEnhanced("[00:01.00]Plain line")

	if len(data.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(data.Lines))
	}
	if data.Lines[0].Text != "Plain line" || data.Lines[0].Syllables != nil {
		t.Errorf("line = %+v", data.Lines[0])
	}
}

func TestParseEnhancedSyllablesStartAtZero(t *testing.T) {
	data := ParseEnhanced("[00:10.00]<00:10.00>One<00:10.80>Two<00:11.10>Three")

	line := data.Lines[0]
	if len(line.Syllables) != 3 {
		t.Fatalf("len(Syllables) = %d, want 3", len(line.Syllables))
	}
	if line.Syllables[0].StartTimeMs != 0 {
		t.Errorf("first syllable should start at relative offset 0, got %d", line.Syllables[0].StartTimeMs)
	}
	for i := 1; i < len(line.Syllables); i++ {
		if line.Syllables[i].StartTimeMs < line.Syllables[i-1].StartTimeMs {
			t.Fatalf("syllable start times not non-decreasing: %+v", line.Syllables)
		}
	}
}
