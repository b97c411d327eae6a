// Package grid evaluates level populations over temperature and density
// grids. A Pool holds a fixed set of actors that share one parsed
// structure; an Evaluator fans grid points out over the pool and assembles
// the rows in request order.
package grid
