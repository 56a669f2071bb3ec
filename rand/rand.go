// rand/rand.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package rand

import (
	"time"

	"github.com/MichaelTJones/pcg"
)

// Rand is a small PCG32-based generator. It is not safe for concurrent
// use; each flight task carries its own, seeded from the facility's
// generator via Fork.
type Rand struct {
	r *pcg.PCG32
}

const sequence = 0xda3e39cb94b95bdb

func Make() *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(time.Now().UnixNano())
	return r
}

// MakeSeeded returns a generator with a fixed seed so that tests and
// replays are deterministic.
func MakeSeeded(s int64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(s)
	return r
}

func (r *Rand) Seed(s int64) {
	r.r.Seed(uint64(s), sequence)
}

// Intn returns a value in [0,n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.r.Bounded(uint32(n)))
}

// Range returns a value in the closed interval [lo,hi].
func (r *Rand) Range(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func (r *Rand) Float32() float32 {
	return float32(r.r.Random()) / (1<<32 - 1)
}

func (r *Rand) Uint32() uint32 {
	return r.r.Random()
}

func (r *Rand) Bool() bool {
	return r.r.Random()&1 == 1
}

// Percent returns true with probability p/100.
func (r *Rand) Percent(p int) bool {
	return r.Intn(100) < p
}

// Fork returns a new generator seeded from r.
func (r *Rand) Fork() *Rand {
	seed := int64(r.r.Random())<<32 | int64(r.r.Random())
	return MakeSeeded(seed)
}
