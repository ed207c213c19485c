// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package worldgen derives the addressable universe from a world seed.
//
// Nothing produced here is stored. Every value is a pure function of the
// generator configuration and an address, so two processes configured with the
// same seed and generation version agree exactly on every system, planet and
// tile without coordinating.
package worldgen

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/oops"
)

// Hash mixes a sequence of 64-bit words into a single 64-bit value.
//
// Words are fed to xxhash as little-endian bytes so the result does not depend
// on the host byte order.
func Hash(values ...uint64) uint64 {
	var buf [8]byte
	d := xxhash.New()
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// DeriveSeed derives a child seed from its parent seed, the child level's tag,
// and the child's local coordinates.
func DeriveSeed(parent, levelTag uint64, coords ...int64) uint64 {
	values := make([]uint64, 0, 2+len(coords))
	values = append(values, parent, levelTag)
	for _, c := range coords {
		values = append(values, uint64(c))
	}
	return Hash(values...)
}

// DeriveAttribute reduces the hash of seed and attributeTag to [0, domain).
//
// Reduction uses rejection sampling, so every value in the domain is equally
// likely regardless of domain size. Rejected draws are re-hashed with an
// increasing counter, which keeps the result deterministic.
func DeriveAttribute(seed, attributeTag, domain uint64) (uint64, error) {
	if domain == 0 {
		return 0, oops.Code("INVALID_DOMAIN").
			With("attribute_tag", attributeTag).
			Errorf("attribute domain must be positive")
	}
	return deriveAttribute(seed, attributeTag, domain), nil
}

// deriveAttribute is DeriveAttribute for domains known to be non-zero.
func deriveAttribute(seed, attributeTag, domain uint64) uint64 {
	// 2^64 mod domain: draws below this value would favour the low residues.
	threshold := -domain % domain
	h := Hash(seed, attributeTag)
	for counter := uint64(1); h < threshold; counter++ {
		h = Hash(seed, attributeTag, counter)
	}
	return h % domain
}

// attributeBits returns the raw 64-bit hash for an attribute, for fields that
// consume the bits directly instead of reducing them to a domain.
func attributeBits(seed, attributeTag uint64) uint64 {
	return Hash(seed, attributeTag)
}
