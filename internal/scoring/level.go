package scoring

const (
	LevelHigh   = "Высокий уровень"
	LevelMedium = "Средний уровень"
	LevelBasic  = "Начальный уровень"
)

// Level classifies score out of max.
func Level(score, max float64) string {
	if max <= 0 {
		return LevelBasic
	}
	switch r := score / max; {
	case r > 0.8:
		return LevelHigh
	case r > 0.6:
		return LevelMedium
	default:
		return LevelBasic
	}
}
