package search

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "basket", "basket", 1},
		{"both empty", "", "", 1},
		{"one empty", "basket", "", 0},
		{"one edit of six", "basket", "baskit", 1 - 1.0/6.0},
		{"transposed letters", "potery", "pottery", 1 - 1.0/7.0},
		{"completely different", "pottery", "airplane", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"basket", "baskit"},
		{"pottery", "potery"},
		{"", "weaving"},
		{"habi", "jewelry"},
	}

	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"a", "zzzzzzzzzz"},
		{"basket", "b"},
		{"pottery", "pottery"},
	}

	for _, p := range pairs {
		sim := Similarity(p[0], p[1])
		if sim < 0 || sim > 1 {
			t.Errorf("Similarity(%q, %q) = %f, outside [0, 1]", p[0], p[1], sim)
		}
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name      string
		a         string
		b         string
		threshold float64
		want      bool
	}{
		{"identical", "basket", "basket", 0.7, true},
		{"one edit", "basket", "baskit", 0.7, true},
		{"containment overrides threshold", "bas", "basketry", 0.99, true},
		{"reverse containment", "handwoven basket", "basket", 0.99, true},
		{"unrelated", "pottery", "airplane", 0.7, false},
		{"below threshold", "basket", "brisket", 0.9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similar(tt.a, tt.b, tt.threshold)
			if got != tt.want {
				t.Errorf("Similar(%q, %q, %f) = %v, want %v", tt.a, tt.b, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestSimilar_EmptyStringsNoContainment(t *testing.T) {
	// An empty string is a substring of everything; the containment
	// shortcut must not fire for it.
	if Similar("", "basket", 0.7) {
		t.Error("empty string should not match via containment")
	}
}

func TestLevenshtein_Unicode(t *testing.T) {
	// Distances count runes, not bytes.
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"bayong", "bayóng", 1},
		{"piña", "pina", 1},
		{"banig", "banig", 0},
	}

	for _, tt := range tests {
		got := levenshtein([]rune(tt.a), []rune(tt.b))
		if got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
