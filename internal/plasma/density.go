package plasma

import "math"

// Physical constants used by the Saha model.
const (
	Boltzmann    = 8.617e-5  // eV/K
	ElectronMass = 9.109e-31 // kg
	Planck       = 6.626e-34 // J s
)

const (
	DefaultIonization = 15.58 // eV, molecular nitrogen
	DefaultNeutral    = 1e16  // cm^-3
	DefaultBase       = 1e11  // cm^-3 at 1 W/cm^3 and 2 eV
	DefaultFloor      = 1e10  // cm^-3
)

// DensityModel maps an electron temperature (eV, > 0) to an electron
// density (cm^-3).
type DensityModel interface {
	Name() string
	Density(te float64) float64
}

// Saha is the equilibrium ionization model. The result grows monotonically
// with T_e and is not floored.
type Saha struct {
	Ionization float64 // eV
	Neutral    float64 // cm^-3
}

func NewSaha() *Saha {
	return &Saha{Ionization: DefaultIonization, Neutral: DefaultNeutral}
}

func (s *Saha) Name() string { return "saha" }

func (s *Saha) Density(te float64) float64 {
	tk := te / Boltzmann
	thermal := 2 * math.Pi * ElectronMass * Boltzmann * tk / (Planck * Planck)
	return 2 * math.Pow(thermal, 1.5) * math.Exp(-s.Ionization/te) * s.Neutral
}

// PowerScaling is the empirical non-thermal model: density proportional to
// power density and to (T_e/2 eV)^1.5, never below Floor.
type PowerScaling struct {
	Base         float64 // cm^-3
	PowerDensity float64 // W/cm^3
	Floor        float64 // cm^-3
}

func NewPowerScaling(powerDensity float64) *PowerScaling {
	return &PowerScaling{Base: DefaultBase, PowerDensity: powerDensity, Floor: DefaultFloor}
}

func (p *PowerScaling) Name() string { return "power" }

func (p *PowerScaling) Density(te float64) float64 {
	ne := p.Base * (p.PowerDensity / 1.0) * math.Pow(te/2.0, 1.5)
	return math.Max(ne, p.Floor)
}
