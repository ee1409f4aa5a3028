// Package analysis provides spectral analysis of sampled trajectories.
//
// The stationary phase of a run yields regularly sampled state components;
// [Spectrum] turns one component into an emission power spectrum:
//
//	freqs, power := analysis.Spectrum(samples, dt)
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of data via radix-2
// Cooley-Tukey. Length must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the magnitude of the positive-frequency half of
// the transform.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// Spectrum truncates samples to the largest power-of-two length and
// returns (frequencies, power). dt is the sampling interval; frequencies
// are in cycles per unit time.
func Spectrum(samples []float64, dt float64) ([]float64, []float64) {
	n := 1
	for n*2 <= len(samples) {
		n *= 2
	}
	power := PowerSpectrum(samples[:n])

	freqs := make([]float64, len(power))
	for i := range freqs {
		freqs[i] = float64(i) / (float64(n) * dt)
	}
	return freqs, power
}
