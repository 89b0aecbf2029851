package market

import "testing"

func TestDailyEffectsDeterministic(t *testing.T) {
	a := GenerateDailyEffects(12345)
	b := GenerateDailyEffects(12345)
	for day := 1; day <= EffectCycleDays; day++ {
		ea, eb := a.ForDay(day), b.ForDay(day)
		if len(ea) != len(eb) {
			t.Fatalf("day %d: tag count differs", day)
		}
		for tag, eff := range ea {
			if eb[tag] != eff {
				t.Fatalf("day %d tag %s: %f vs %f", day, tag, eff, eb[tag])
			}
		}
	}
}

func TestDailyEffectsCyclicReuse(t *testing.T) {
	d := GenerateDailyEffects(42)
	for day := 1; day <= EffectCycleDays; day++ {
		base := d.ForDay(day)
		wrapped := d.ForDay(day + EffectCycleDays)
		if len(base) != len(wrapped) {
			t.Fatalf("day %d: wrapped entry differs in size", day)
		}
		for tag, eff := range base {
			if wrapped[tag] != eff {
				t.Fatalf("day %d: cyclic reuse broken for tag %s", day, tag)
			}
		}
	}
}

func TestDailyEffectsShape(t *testing.T) {
	d := GenerateDailyEffects(9)
	for day := 1; day <= EffectCycleDays; day++ {
		entry := d.ForDay(day)
		if len(entry) < minEffectTags || len(entry) > maxEffectTags {
			t.Fatalf("day %d: %d tags out of [%d, %d]", day, len(entry), minEffectTags, maxEffectTags)
		}
		for tag, eff := range entry {
			if eff < effectBands[0].min || eff > effectBands[len(effectBands)-1].max {
				t.Fatalf("day %d tag %s: effect %f outside band table", day, tag, eff)
			}
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	d := GenerateDailyEffects(9)
	snap := d.Snapshot()
	for tag := range snap[0] {
		snap[0][tag] = 99
		if d.ForDay(1)[tag] == 99 {
			t.Fatal("snapshot mutation leaked into the session table")
		}
		break
	}
}
