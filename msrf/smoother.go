package msrf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// forwardBackward computes the posterior state distribution for every
// window of one session. conf holds the per-window gate weights (T rows
// of nStates entries) which act as emission likelihoods after log
// padding; logStart and logTrans are the padded log parameters prepared
// at construction. The returned gamma has one row per window, each row
// normalized in log space so long sessions cannot underflow.
func forwardBackward(logStart []float64, logTrans [][]float64, conf [][]float64) [][]float64 {
	T := len(conf)
	if T == 0 {
		return nil
	}
	K := len(logStart)

	logEmit := make([][]float64, T)
	for t, row := range conf {
		logEmit[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			logEmit[t][k] = math.Log(row[k] + logGuard)
		}
	}

	acc := make([]float64, K)

	logAlpha := make([][]float64, T)
	logAlpha[0] = make([]float64, K)
	for k := 0; k < K; k++ {
		logAlpha[0][k] = logStart[k] + logEmit[0][k]
	}
	for t := 1; t < T; t++ {
		logAlpha[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			for i := 0; i < K; i++ {
				acc[i] = logAlpha[t-1][i] + logTrans[i][k]
			}
			logAlpha[t][k] = floats.LogSumExp(acc) + logEmit[t][k]
		}
	}

	logBeta := make([][]float64, T)
	logBeta[T-1] = make([]float64, K)
	for t := T - 2; t >= 0; t-- {
		logBeta[t] = make([]float64, K)
		for i := 0; i < K; i++ {
			for j := 0; j < K; j++ {
				acc[j] = logTrans[i][j] + logEmit[t+1][j] + logBeta[t+1][j]
			}
			logBeta[t][i] = floats.LogSumExp(acc)
		}
	}

	gamma := make([][]float64, T)
	for t := 0; t < T; t++ {
		gamma[t] = make([]float64, K)
		for k := 0; k < K; k++ {
			gamma[t][k] = logAlpha[t][k] + logBeta[t][k]
		}
		norm := floats.LogSumExp(gamma[t])
		for k := 0; k < K; k++ {
			gamma[t][k] = math.Exp(gamma[t][k] - norm)
		}
	}
	return gamma
}
