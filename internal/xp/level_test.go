package xp

import "testing"

func TestLevel(t *testing.T) {
	cases := []struct {
		totalXP int
		level   int
	}{
		{0, 1},
		{1, 1},
		{999, 1},
		{1000, 2},
		{1050, 2},
		{2999, 3},
		{10000, 11},
	}

	for _, c := range cases {
		if got := Level(c.totalXP); got != c.level {
			t.Errorf("Level(%d) = %d, want %d", c.totalXP, got, c.level)
		}
	}
}

func TestIntoLevelAndToNext(t *testing.T) {
	if got := IntoLevel(0); got != 0 {
		t.Errorf("IntoLevel(0) = %d, want 0", got)
	}
	if got := IntoLevel(1050); got != 50 {
		t.Errorf("IntoLevel(1050) = %d, want 50", got)
	}
	if got := ToNextLevel(950); got != 50 {
		t.Errorf("ToNextLevel(950) = %d, want 50", got)
	}
	if got := ToNextLevel(1000); got != 1000 {
		t.Errorf("ToNextLevel(1000) = %d, want 1000", got)
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(0); got != 0 {
		t.Errorf("ProgressPercent(0) = %f, want 0", got)
	}
	if got := ProgressPercent(500); got != 50 {
		t.Errorf("ProgressPercent(500) = %f, want 50", got)
	}
	if got := ProgressPercent(1250); got != 25 {
		t.Errorf("ProgressPercent(1250) = %f, want 25", got)
	}
}

func TestLeveledUp(t *testing.T) {
	// 950 + 100 crosses the level 1 -> 2 boundary
	if !LeveledUp(950, 1050) {
		t.Error("expected level-up from 950 to 1050")
	}
	if LeveledUp(100, 900) {
		t.Error("did not expect level-up from 100 to 900")
	}
	if LeveledUp(1000, 1000) {
		t.Error("did not expect level-up with no XP change")
	}
}
