package testsupport

import (
	"fmt"
	"strings"
)

// Levels of the fixture ion (neon-like, base "1*2 2*8"). Their solver forms
// appear in LevelsTable at indices 0 to 3.
const (
	BaseLevel   = "1s+2(0)0 2s+2(0)0 2p-2(0)0 2p+4(0)0"
	LowerLevel  = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(1)1 3s+1(1)2"
	MiddleLevel = "1s+2(0)0 2s+2(0)0 2p-2(0)0 2p+3(3)3 3s+1(1)4"
	UpperLevel  = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(6)1 3p-1(1)0"

	BaseIndex   = 0
	LowerIndex  = 1
	MiddleIndex = 2
	UpperIndex  = 3

	// LaserGF and LaserRate describe the upper to lower line.
	LaserGF   = 0.521
	LaserRate = 3.58e9
	// PumpRate is the lower to base decay rate.
	PumpRate = 3.4e11
	// LaserEnergy is the upper to lower transition energy in eV.
	LaserEnergy = 3.5
)

// LevelsTable mimics PrintTable output for an energy table.
const LevelsTable = `FAC 1.1.5
Endian	= 0
TSession	= 1700000000
Type	= 1
Verbose	= 1
ATOM	= Fe
Z	= 26.0
NBlocks	= 1
E0	= 0, -3.13645836E+04

NELE	= 10
NLEV	= 4
  ILEV  IBASE    ENERGY       P   VNL   2J
     0    -1  0.00000000E+00  0   201   0  1*2.2*8  2p6  2p+4(0)0
     1    -1  7.25000000E+02  0   300   2  1*2.2*7.3*1  2p5.3s1  2p-1(1)1.3s+1(1)2
     2    -1  7.27000000E+02  0   300   4  1*2.2*7.3*1  2p5.3s1  2p+3(3)3.3s+1(1)4
     3    -1  7.28500000E+02  1   301   0  1*2.2*7.3*1  2p5.3p1  2p-1(1)1.3p-1(1)0
`

// TransitionsTable mimics PrintTable output for a transition table.
const TransitionsTable = `FAC 1.1.5
Endian	= 0
TSession	= 1700000000
Type	= 2
Verbose	= 1
ATOM	= Fe
Z	= 26.0
NBlocks	= 1

NELE	= 10
NTRANS	= 4
MULTIP	= -1
GAUGE	= 2
MODE	= 1
    1   2     0   0  7.250000E+02  1.200000E-01  3.400000E+11 -2.500000E-02
    2   4     0   0  7.270000E+02  5.000000E-02  1.000000E+11 -1.000000E-02
    3   0     0   0  7.285000E+02  1.000000E-04  1.000000E+08  3.000000E-04
    3   0     1   2  3.500000E+00  5.210000E-01  3.580000E+09  1.000000E-03
`

// ExcitationTable mimics PrintTable output for a collision strength table.
const ExcitationTable = `FAC 1.1.5
Endian	= 0
TSession	= 1700000000
Type	= 3
Verbose	= 1
ATOM	= Fe
Z	= 26.0
NBlocks	= 1

NELE	= 10
NTRANS	= 4
QKMODE	= 0
NPARAMS	= 0
MSUB	= 0
PWTYPE	= 0
NTEGRID	= 1
   7.0000E+02
TE0	= 7.2500E+02
ETYPE	= 0
NEGRID	= 4
   1.0000E+00
   2.0000E+00
   4.0000E+00
   8.0000E+00
USRTYPE	= 0
NUSR	= 4
   1.0000E+00
   2.0000E+00
   4.0000E+00
   8.0000E+00
    0  0    1  2  7.2500E+02  1
  1.0000E+00  5.0000E-01
  7.2500E+02  1.2000E-02  3.1000E-21
  1.4500E+03  1.0000E-02  1.3000E-21
  2.9000E+03  9.0000E-03  5.8000E-22
  5.8000E+03  8.0000E-03  2.6000E-22
    0  0    2  4  7.2700E+02  1
  1.0000E+00  5.0000E-01
  7.2700E+02  2.0000E-02  5.1000E-21
  1.4540E+03  1.8000E-02  2.3000E-21
  2.9080E+03  1.6000E-02  1.0000E-21
  5.8160E+03  1.5000E-02  4.7000E-22
    0  0    3  0  7.2850E+02  1
  1.0000E+00  5.0000E-01
  7.2850E+02  4.0000E-03  1.0000E-21
  1.4570E+03  3.5000E-03  4.4000E-22
  2.9140E+03  3.0000E-03  1.9000E-22
  5.8280E+03  2.8000E-03  8.8000E-23
    1  2    3  0  3.5000E+00  1
  1.0000E+00  5.0000E-01
  3.5000E+00  2.5000E+00  1.8000E-16
  7.0000E+00  2.2000E+00  7.9000E-17
  1.4000E+01  2.0000E+00  3.6000E-17
  2.8000E+01  1.9000E+00  1.7000E-17
`

// PopulationFractions returns the fixture level populations for a
// temperature, normalised to total. The upper level grows with temperature
// so inversion changes across a grid.
func PopulationFractions(total, temperature float64) map[int]float64 {
	upper := 0.03 * temperature / (temperature + 500)
	lower := 0.010
	middle := 0.005
	return map[int]float64{
		BaseIndex:   total * (1 - lower - middle - upper),
		LowerIndex:  total * lower,
		MiddleIndex: total * middle,
		UpperIndex:  total * upper,
	}
}

// PopulationsTable mimics PrintTable output for a spectral table.
func PopulationsTable(total, temperature float64) string {
	pops := PopulationFractions(total, temperature)
	energies := []float64{0, 725, 727, 728.5}
	var b strings.Builder
	b.WriteString("FAC 1.1.5\nEndian\t= 0\nTSession\t= 1700000000\nType\t= 7\nVerbose\t= 1\nATOM\t= Fe\nZ\t= 26.0\nNBlocks\t= 1\n\n")
	b.WriteString("NELE\t= 10\nNTRANS\t= 4\nTYPE\t= 0\nIBLK\t= 0\n")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "%6d %4d  %.8E  %.8E\n", i, 10, energies[i], pops[i])
	}
	return b.String()
}
