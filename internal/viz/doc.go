// Package viz renders simulation output for the terminal.
//
//   - [PlotSpecies]: asciigraph line plots of species trajectories, optionally
//     on a log10 axis
//   - [MatrixTable]: lipgloss table of a sensitivity matrix
//   - [RecordsTable]: lipgloss table of arbitrary CSV records
//   - [SparklineChart], [Separator] and the package styles for summaries
package viz
