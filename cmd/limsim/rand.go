package main

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/aead/chacha20/chacha"
	"github.com/hhcho/frand"
	"gonum.org/v1/gonum/mat"
)

const prgBufferSize = 1024

var _ rand.Source = (*chachaSource)(nil)

// chachaSource adapts the ChaCha20 PRG to math/rand/v2 so the sampler
// and the genotype simulation draw from one deterministic stream.
type chachaSource struct {
	prg *frand.RNG
}

func newChachaSource(seed int64) *chachaSource {
	key := make([]byte, chacha.KeySize)
	binary.LittleEndian.PutUint64(key, uint64(seed))
	return &chachaSource{prg: frand.NewCustom(key, prgBufferSize, 20)}
}

func (s *chachaSource) Uint64() uint64 {
	var b [8]byte
	s.prg.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// simulateGenotypes draws an n-by-p matrix of biallelic dosages with one
// allele frequency per marker, uniform in [0.05, 0.5].
func simulateGenotypes(rnd *rand.Rand, samples, markers int) *mat.Dense {
	g := mat.NewDense(samples, markers, nil)
	for j := 0; j < markers; j++ {
		maf := 0.05 + 0.45*rnd.Float64()
		for i := 0; i < samples; i++ {
			var dose float64
			if rnd.Float64() < maf {
				dose++
			}
			if rnd.Float64() < maf {
				dose++
			}
			g.Set(i, j, dose)
		}
	}
	return g
}
