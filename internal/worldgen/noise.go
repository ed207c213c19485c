// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package worldgen

// NoiseMax is the upper bound (inclusive) of Noise.
const NoiseMax = 1<<16 - 1

// noiseOctaves weights the four 16-bit lanes of the input, coarsest first.
var noiseOctaves = [4]uint64{8, 4, 2, 1}

// Noise shapes a 64-bit hash into a continuous value in [0, NoiseMax].
//
// The hash is split into four 16-bit lanes which are summed with halving
// weights, giving a smooth, centre-weighted distribution. Only integer
// arithmetic is used so results are identical on every platform.
func Noise(h uint64) uint16 {
	var sum, weights uint64
	for i, w := range noiseOctaves {
		lane := (h >> (16 * uint(i))) & 0xFFFF
		sum += lane * w
		weights += w
	}
	return uint16(sum / weights)
}

// Unit maps a hash onto [0, 1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
