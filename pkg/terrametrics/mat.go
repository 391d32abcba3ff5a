package terrametrics

// matFromData copies data (row-major, rows*cols values) into a new Mat.
func matFromData(rows, cols int, data []float64) Mat {
	m := NewMatWithSize(rows, cols)
	copy(m.DataFloat64(), data)
	return m
}

// matToSlice copies the Mat contents out so the Mat can be closed.
func matToSlice(m Mat) []float64 {
	out := make([]float64, m.Rows()*m.Cols())
	copy(out, m.DataFloat64())
	return out
}
