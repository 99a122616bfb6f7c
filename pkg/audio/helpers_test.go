package audio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRate = 8000

// tone 交替±amp的方波，能量恒定便于计算RMS
func tone(ms int, amp float64) []float64 {
	n := ms * testRate / 1000
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func silence(ms int) []float64 {
	return make([]float64, ms*testRate/1000)
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func writeTestWAV(t *testing.T, dir, name string, samples []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, WriteWAV(path, ClipFromSamples(testRate, samples)))
	return path
}
