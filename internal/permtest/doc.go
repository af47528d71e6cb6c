// Package permtest implements the community-label permutation test.
//
// The observed pairs fix a topology: row i links canonical position
// Index.Origin[i] to position Index.Destination[i]. Each iteration draws a
// uniform reordering of the canonical community list, reads the communities
// now sitting at those fixed positions, joins the resulting directed pairs
// against the lookup table and averages their travel distance and time. The
// one-sided empirical p-value of a metric is the fraction of iterations whose
// mean is strictly below the observed mean.
//
// Iterations are independent. The Engine runs them on a bounded worker pool;
// each iteration draws from its own RNG stream derived from the run seed, so a
// seeded run yields identical results for any worker count.
package permtest
