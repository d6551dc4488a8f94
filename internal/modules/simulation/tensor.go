package simulation

// Tensor is a dense row-major (scenario, step, underlying) array.
type Tensor struct {
	Sims  int
	Steps int
	Dim   int
	Data  []float64
}

// NewTensor allocates a zeroed tensor
func NewTensor(sims, steps, dim int) *Tensor {
	return &Tensor{Sims: sims, Steps: steps, Dim: dim, Data: make([]float64, sims*steps*dim)}
}

func (t *Tensor) offset(i, s, k int) int {
	return (i*t.Steps+s)*t.Dim + k
}

// At returns the element at scenario i, step s, underlying k
func (t *Tensor) At(i, s, k int) float64 {
	return t.Data[t.offset(i, s, k)]
}

// Set stores v at scenario i, step s, underlying k
func (t *Tensor) Set(i, s, k int, v float64) {
	t.Data[t.offset(i, s, k)] = v
}

// Scenario returns the (Steps × Dim) row-major slice of scenario i, sharing storage.
func (t *Tensor) Scenario(i int) []float64 {
	n := t.Steps * t.Dim
	return t.Data[i*n : (i+1)*n]
}
