package consensus

import "testing"

func TestDual(t *testing.T) {
	t.Run("agreement wins regardless of rule", func(t *testing.T) {
		s := Dual("1234", "1234", `regex:\d{4}`)
		if s.Confidence != 1.0 || s.Level != LevelHigh || s.NeedsHuman {
			t.Errorf("expected high/1.0/no-review, got %+v", s)
		}
	})

	t.Run("mismatch with valid primary is medium", func(t *testing.T) {
		s := Dual("0000", "1111", `regex:\d{4}`)
		if s.Confidence != 0.5 || s.Level != LevelMedium || !s.NeedsHuman {
			t.Errorf("expected medium/0.5/review, got %+v", s)
		}
	})

	t.Run("mismatch with invalid primary is low", func(t *testing.T) {
		s := Dual("OOOO", "1111", `regex:\d{4}`)
		if s.Confidence != 0.0 || s.Level != LevelLow || !s.NeedsHuman {
			t.Errorf("expected low/0.0/review, got %+v", s)
		}
	})

	t.Run("agreement on empty strings", func(t *testing.T) {
		s := Dual("", "", "")
		if s.Confidence != 1.0 || s.NeedsHuman {
			t.Errorf("expected agreement on empty readings, got %+v", s)
		}
	})
}

func TestSingle(t *testing.T) {
	t.Run("confident and valid is high", func(t *testing.T) {
		s := Single("1234567", 0.95, `regex:\d{7}`)
		if s.Confidence != 0.95 || s.Level != LevelHigh || s.NeedsHuman {
			t.Errorf("expected high/0.95/no-review, got %+v", s)
		}
	})

	t.Run("rule failure overrides raw confidence", func(t *testing.T) {
		s := Single("12345O7", 0.99, `regex:\d{7}`)
		if s.Level != LevelLow || !s.NeedsHuman {
			t.Errorf("expected low/review despite 0.99 confidence, got %+v", s)
		}
		if s.Confidence != 0.99 {
			t.Errorf("raw confidence must be preserved, got %v", s.Confidence)
		}
	})

	t.Run("low confidence forces review", func(t *testing.T) {
		s := Single("1234567", 0.5, `regex:\d{7}`)
		if s.Level != LevelLow || !s.NeedsHuman {
			t.Errorf("expected low/review for 0.5 confidence, got %+v", s)
		}
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		s := Single("ok", 0.9, "")
		if s.NeedsHuman {
			t.Errorf("confidence exactly at threshold must pass, got %+v", s)
		}
	})
}
