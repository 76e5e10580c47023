package calculator

import (
	"errors"
	"math"
)

var (
	// ErrEmptyInput is returned when a calculation receives no values.
	ErrEmptyInput = errors.New("no values provided")
	// ErrLengthMismatch is returned when paired series differ in length.
	ErrLengthMismatch = errors.New("actual and predicted lengths differ")
)

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// MeanAbs returns the mean of |v| over values.
func MeanAbs(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum / float64(len(values)), nil
}

func checkPairs(actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return ErrLengthMismatch
	}
	if len(actual) == 0 {
		return ErrEmptyInput
	}
	return nil
}

// MeanAbsoluteError computes mean(|predicted - actual|).
func MeanAbsoluteError(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(actual)), nil
}

// RootMeanSquaredError computes sqrt(mean((predicted - actual)^2)).
func RootMeanSquaredError(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}

// MeanAbsolutePercentageError computes mean(|predicted - actual| / actual) * 100.
// Pairs whose actual value is zero are left out of the mean entirely; n is the
// number of pairs that were used. ErrEmptyInput is returned when none qualify.
func MeanAbsolutePercentageError(actual, predicted []float64) (mape float64, n int, err error) {
	if len(actual) != len(predicted) {
		return 0, 0, ErrLengthMismatch
	}
	sum := 0.0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs(predicted[i]-actual[i]) / math.Abs(actual[i])
		n++
	}
	if n == 0 {
		return 0, 0, ErrEmptyInput
	}
	return sum / float64(n) * 100, n, nil
}

// RSquared computes the coefficient of determination.
// A constant actual series yields 1 for a perfect fit and 0 otherwise.
func RSquared(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	mean, _ := Mean(actual)
	var ssRes, ssTot float64
	for i := range actual {
		r := actual[i] - predicted[i]
		t := actual[i] - mean
		ssRes += r * r
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
