package metrics

import (
	"strings"

	"github.com/san-kum/plasmasim/internal/dynamo"
)

// Yield is the last observed concentration of one species divided by the
// total density at the first sample.
type Yield struct {
	name    string
	index   int
	initial float64
	last    float64
	samples int
}

func NewYield(species string, index int) *Yield {
	return &Yield{
		name:  strings.ToLower(species) + "_yield",
		index: index,
	}
}

func (y *Yield) Name() string {
	return y.name
}

func (y *Yield) Observe(x dynamo.State, t float64) {
	if y.index < 0 || y.index >= len(x) {
		return
	}
	if y.samples == 0 {
		for _, v := range x {
			y.initial += v
		}
	}
	y.last = x[y.index]
	y.samples++
}

func (y *Yield) Value() float64 {
	if y.samples == 0 || y.initial == 0 {
		return 0
	}
	return y.last / y.initial
}

func (y *Yield) Reset() {
	y.initial = 0
	y.last = 0
	y.samples = 0
}
