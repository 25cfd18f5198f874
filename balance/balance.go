// Package balance undersamples the negative class of the master table and
// splits the balanced set into train and validation partitions.
package balance

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"ichprep/labels"
	"ichprep/table"
)

var (
	// ErrUnexpectedLabel is returned when some records are neither positive nor negative
	ErrUnexpectedLabel = errors.New("unexpected aggregate label")

	// ErrNotEnoughNegatives is returned when the negative class is smaller than the positive class
	ErrNotEnoughNegatives = errors.New("not enough negative records")

	// ErrSplitMismatch is returned when a partition does not add up to its input
	ErrSplitMismatch = errors.New("partition size mismatch")
)

// Partition splits records on the aggregate "any" score. Every record must be
// exactly 0 or 1.
func Partition(records []labels.MasterRecord) (positive, negative []labels.MasterRecord, err error) {
	for _, r := range records {
		switch r.Any() {
		case 1:
			positive = append(positive, r)
		case 0:
			negative = append(negative, r)
		}
	}
	if len(positive)+len(negative) != len(records) {
		return nil, nil, fmt.Errorf("%w: %d positive + %d negative != %d records",
			ErrUnexpectedLabel, len(positive), len(negative), len(records))
	}
	return positive, negative, nil
}

// Sample draws n records without replacement using a source seeded with seed.
// Equal inputs and seeds always yield the same sample in the same order.
func Sample(records []labels.MasterRecord, n int, seed int64) ([]labels.MasterRecord, error) {
	if n < 0 || n > len(records) {
		return nil, fmt.Errorf("cannot sample %d of %d records without replacement", n, len(records))
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(records))

	out := make([]labels.MasterRecord, n)
	for i := 0; i < n; i++ {
		out[i] = records[perm[i]]
	}
	return out, nil
}

// Shuffle returns a seeded permutation of records
func Shuffle(records []labels.MasterRecord, seed int64) []labels.MasterRecord {
	out, _ := Sample(records, len(records), seed)
	return out
}

// Undersample shuffles negative and draws n records from it
func Undersample(negative []labels.MasterRecord, n int, seed int64) ([]labels.MasterRecord, error) {
	if n > len(negative) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughNegatives, n, len(negative))
	}
	return Sample(Shuffle(negative, seed), n, seed)
}

// Balance keeps every positive record, adds an equal number of sampled
// negatives and shuffles the union.
func Balance(records []labels.MasterRecord, seed int64) ([]labels.MasterRecord, error) {
	positive, negative, err := Partition(records)
	if err != nil {
		return nil, err
	}

	sampled, err := Undersample(negative, len(positive), seed)
	if err != nil {
		return nil, err
	}

	union := make([]labels.MasterRecord, 0, len(positive)+len(sampled))
	union = append(union, positive...)
	union = append(union, sampled...)

	balanced := Shuffle(union, seed)
	if len(balanced) != 2*len(positive) {
		return nil, fmt.Errorf("%w: balanced set has %d records for %d positives",
			ErrSplitMismatch, len(balanced), len(positive))
	}
	return balanced, nil
}

// TrainSize is the number of records a fraction selects out of n, rounded
// half to even.
func TrainSize(n int, fraction float64) int {
	return int(math.RoundToEven(fraction * float64(n)))
}

// Split samples TrainSize(len, fraction) records into train; validation is
// the complement, kept in balanced order.
func Split(balanced []labels.MasterRecord, fraction float64, seed int64) (train, validation []labels.MasterRecord, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be between 0 and 1, got %v", fraction)
	}

	n := TrainSize(len(balanced), fraction)
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(balanced))

	inTrain := make([]bool, len(balanced))
	train = make([]labels.MasterRecord, 0, n)
	for _, idx := range perm[:n] {
		inTrain[idx] = true
		train = append(train, balanced[idx])
	}

	validation = make([]labels.MasterRecord, 0, len(balanced)-n)
	for i, r := range balanced {
		if !inTrain[i] {
			validation = append(validation, r)
		}
	}

	if len(train)+len(validation) != len(balanced) {
		return nil, nil, fmt.Errorf("%w: %d train + %d validation != %d balanced",
			ErrSplitMismatch, len(train), len(validation), len(balanced))
	}
	return train, validation, nil
}

// WriteSplit stores records at path in the master column layout
func WriteSplit(path string, records []labels.MasterRecord) error {
	return table.Write(path, labels.ToTable(records))
}
