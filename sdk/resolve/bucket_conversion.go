package resolve

import "fmt"

// BucketConversion translates between a length-C hand-indexed vector and a
// length-NumBuckets bucket-indexed vector for one fixed board (spec §4.2
// "BucketConversion"). The conversion is a 0/1 indicator matrix M sized
// C x NumBuckets: M[hand][bucket] = 1 iff hand maps to bucket on this
// board. Each hand maps to exactly one bucket, so every row of M has at
// most a single 1.
type BucketConversion struct {
	params   GameParams
	board    Board
	bucketer *Bucketer

	numBuckets int
	handBucket []int // handBucket[hand] = bucket index, or -1 if incompatible
}

// NewBucketConversion builds the hand<->bucket mapping for board using
// bucketer.
func NewBucketConversion(p GameParams, board Board, bucketer *Bucketer) (*BucketConversion, error) {
	if err := board.validate(p); err != nil {
		return nil, err
	}
	hb := make([]int, p.CardCount())
	for hand := 0; hand < p.CardCount(); hand++ {
		if !board.Compatible(Card(hand)) {
			hb[hand] = -1
			continue
		}
		b, err := bucketer.Bucket(Card(hand), board)
		if err != nil {
			return nil, err
		}
		hb[hand] = b
	}
	return &BucketConversion{
		params:     p,
		board:      append(Board(nil), board...),
		bucketer:   bucketer,
		numBuckets: bucketer.NumBuckets(),
		handBucket: hb,
	}, nil
}

// HandToBucket computes bucketValues = M^T . handValues, summing every
// hand routed into the same bucket (spec §4.2 "hand_range_to_bucket_range").
func (bc *BucketConversion) HandToBucket(handValues Range, bucketValues []float64) error {
	if len(handValues) != bc.params.CardCount() || len(bucketValues) != bc.numBuckets {
		return ErrShapeMismatch
	}
	for i := range bucketValues {
		bucketValues[i] = 0
	}
	for hand, b := range bc.handBucket {
		if b < 0 {
			continue
		}
		bucketValues[b] += handValues[hand]
	}
	return nil
}

// BucketToHand computes handValues = M . bucketValues, broadcasting each
// bucket's value to every hand that maps to it (spec §4.2
// "bucket_range_to_hand_range"). Hands incompatible with the board are
// left at zero.
func (bc *BucketConversion) BucketToHand(bucketValues []float64, handValues []float64) error {
	if len(handValues) != bc.params.CardCount() || len(bucketValues) != bc.numBuckets {
		return ErrShapeMismatch
	}
	for hand, b := range bc.handBucket {
		if b < 0 {
			handValues[hand] = 0
			continue
		}
		handValues[hand] = bucketValues[b]
	}
	return nil
}

// Bucket returns the bucket index hand maps to on this board, or an error
// if hand collides with the board.
func (bc *BucketConversion) Bucket(hand Card) (int, error) {
	b := bc.handBucket[hand]
	if b < 0 {
		return 0, fmt.Errorf("%w: hand %v collides with board", ErrHandOutOfRange, hand)
	}
	return b, nil
}

// PossibleBucketsMask returns the column sums of M clamped to {0,1}: 1 for
// every bucket reachable from some hand on this board, 0 elsewhere (spec
// §4.2 "Mask of possible buckets").
func (bc *BucketConversion) PossibleBucketsMask() []float64 {
	mask := make([]float64, bc.numBuckets)
	for _, b := range bc.handBucket {
		if b >= 0 {
			mask[b] = 1
		}
	}
	return mask
}
