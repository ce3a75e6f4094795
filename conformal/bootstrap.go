package conformal

import (
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/rulconform/core/parallel"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// resamplesPerChunk is the size below which resampling stays on the calling goroutine.
const resamplesPerChunk = 32

// BootstrapQuantiles draws resamples samples of size n with replacement from
// |residuals| and returns the (1-α)-quantile of each, in resample order.
//
// Resample b draws from its own PCG stream seeded with (seed, b), so the
// output depends only on the inputs and never on the worker count.
func BootstrapQuantiles(residuals []float64, alpha float64, resamples int, seed uint64, workers int) ([]float64, error) {
	n := len(residuals)
	if n < 2 {
		return nil, errors.NewInsufficientDataError("Fit", string(ModeBootstrap), 2, n)
	}
	if resamples <= 0 {
		return nil, errors.NewInvalidConfigError("resamples", "must be positive", resamples)
	}

	abs := absValues(residuals)
	quantiles := make([]float64, resamples)

	err := parallel.ParallelizeWithThreshold(resamples, resamplesPerChunk, workers, func(start, end int) error {
		sample := make([]float64, n)
		for b := start; b < end; b++ {
			rng := rand.New(rand.NewPCG(seed, uint64(b)))
			for i := range sample {
				sample[i] = abs[rng.IntN(n)]
			}
			sort.Float64s(sample)
			quantiles[b] = quantileSorted(sample, 1-alpha)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quantiles, nil
}

// bootstrapMargin is the median of the bootstrap quantiles.
func bootstrapMargin(residuals []float64, alpha float64, resamples int, seed uint64, workers int) (float64, error) {
	qs, err := BootstrapQuantiles(residuals, alpha, resamples, seed, workers)
	if err != nil {
		return 0, err
	}
	return median(qs), nil
}
