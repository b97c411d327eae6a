// Package population adapts the collisional-radiative solver: it turns a
// temperature and density into an scrm run against a cached structure and
// reads the steady-state level populations back.
package population
