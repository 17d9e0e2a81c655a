package plasma

import "fmt"

// State carries the plasma parameters a rate coefficient may depend on.
type State struct {
	Te float64 // electron temperature, eV
	Tg float64 // gas temperature, K
	Ne float64 // electron density, cm^-3
	Ev float64 // vibrational energy, K
}

// WithTe returns a copy with the electron temperature replaced.
func (s State) WithTe(te float64) State {
	s.Te = te
	return s
}

func (s State) String() string {
	return fmt.Sprintf("Te=%.3g eV Tg=%.4g K ne=%.3g cm^-3 Ev=%.4g K", s.Te, s.Tg, s.Ne, s.Ev)
}
