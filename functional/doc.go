// Package functional holds stateless helpers over tensor.Tensor: one-hot
// encoding and indexing, permutations, and log-domain arithmetic.
package functional
