// Package study loads HCL job descriptions and runs them.
//
// A study names an atom and its configuration groups, the laser transition,
// the temperature and density grid and, optionally, the plasma parameters
// used to convert populations into gain:
//
//	atom "Fe" {
//	  base  = "1*2 2*8"
//	  max_n = 6
//	}
//	transition {
//	  lower = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(1)1 3s+1(1)2"
//	  upper = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(6)1 3p-1(1)0"
//	}
//	grid {
//	  temperatures = linspace(100, 850, 50)
//	  densities    = logspace(19, 23, 50)
//	  combine      = "product"
//	}
//	plasma {
//	  ionization = 16
//	  abundance  = 1.0
//	}
//	output { name = "2D_Fe" }
//
// The functions linspace, logspace and range are available in expressions.
package study
