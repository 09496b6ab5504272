package scoring

// egeRusTable maps the primary score of the Russian language exam (0..50)
// to the secondary 100-point score.
var egeRusTable = [...]float64{
	0, 3, 5, 8, 10, 12, 15, 17, 20, 22,
	24, 26, 28, 30, 32, 34, 36, 38, 40, 42,
	44, 46, 48, 50, 52, 54, 56, 58, 60, 62,
	64, 66, 68, 70, 72, 73, 75, 77, 79, 81,
	83, 85, 87, 88, 90, 92, 94, 96, 97, 99,
	100,
}

// TableScale looks the truncated primary score up in a fixed table. Values
// beyond the table are clamped.
type TableScale []float64

func (t TableScale) Scale(primary, _ float64) float64 {
	if len(t) == 0 || primary <= 0 {
		return 0
	}
	i := int(primary)
	if i >= len(t) {
		i = len(t) - 1
	}
	return t[i]
}

// EGERus is the fixed table for the Russian language exam.
var EGERus = TableScale(egeRusTable[:])
