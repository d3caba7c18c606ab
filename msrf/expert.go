package msrf

// Expert scores one feature window and returns the binary class
// distribution [pStable, pRisk]. Implementations must be safe for
// concurrent use and must not retain the features slice.
type Expert interface {
	Score(features []float64) ([]float64, error)
}

// ExpertFunc adapts a prediction function to the Expert interface.
type ExpertFunc func(features []float64) ([]float64, error)

func (f ExpertFunc) Score(features []float64) ([]float64, error) {
	return f(features)
}
