package method

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Method{Similarity, Weighted, Custom}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Method{"", "bogus", "SIMILARITY", "rrf", "weighted "}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestConstants(t *testing.T) {
	if Similarity != "similarity" {
		t.Errorf("Similarity = %q", Similarity)
	}
	if Weighted != "weighted" {
		t.Errorf("Weighted = %q", Weighted)
	}
	if Custom != "custom" {
		t.Errorf("Custom = %q", Custom)
	}
}
