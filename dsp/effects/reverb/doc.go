// Package reverb provides the algorithmic reverb of the vocal chain: an
// 8-line feedback delay network producing a dense, exponentially decaying
// tail.
package reverb
