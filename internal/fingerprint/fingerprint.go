// Package fingerprint computes the stable per-line key the Rewrite Adapter
// uses to match lines across a source and destination tree (spec §3:
// "a rolling hash of the line's bytes plus the hashes of its two
// neighbors, clipped to a small window"). Fingerprints are never persisted;
// they only exist for the duration of one mapping computation.
package fingerprint

import "hash/fnv"

// Fingerprint identifies a line within its local neighborhood.
type Fingerprint uint64

func hashLine(line string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(line))
	return h.Sum64()
}

// combine folds a neighbor's hash into an accumulator using the FNV-1a
// mixing step, so fingerprints from different neighborhoods rarely collide.
func combine(acc, h uint64) uint64 {
	const prime = 1099511628211
	acc ^= h
	acc *= prime
	return acc
}

// Fingerprints computes one Fingerprint per line in lines, each folding in
// the line's own hash plus its immediate predecessor and successor (lines
// at the boundary treat the missing neighbor as the empty string).
func Fingerprints(lines []string) []Fingerprint {
	out := make([]Fingerprint, len(lines))
	hashes := make([]uint64, len(lines))
	for i, l := range lines {
		hashes[i] = hashLine(l)
	}
	emptyHash := hashLine("")
	for i := range lines {
		prev := emptyHash
		if i > 0 {
			prev = hashes[i-1]
		}
		next := emptyHash
		if i < len(lines)-1 {
			next = hashes[i+1]
		}
		acc := combine(hashes[i], prev)
		acc = combine(acc, next)
		out[i] = Fingerprint(acc)
	}
	return out
}

// Index builds a lookup from fingerprint to the (possibly several) source
// line indexes that share it, so the adapter can resolve ties by proximity
// or first-writer-wins ordering.
func Index(fps []Fingerprint) map[Fingerprint][]int {
	idx := make(map[Fingerprint][]int, len(fps))
	for i, fp := range fps {
		idx[fp] = append(idx[fp], i)
	}
	return idx
}
