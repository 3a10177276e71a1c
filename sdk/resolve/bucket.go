package resolve

import (
	"encoding/binary"
	"fmt"

	"github.com/opencoff/go-chd"
)

// Bucketer implements the trivial bucket abstraction: bucket index =
// board_index*C + hand, with value -1 if hand collides with board (spec
// §4.2 "the implementer uses the trivial abstraction"). Total buckets =
// C * |boards|. This differs from BucketMapper in sdk/solver/bucket.go,
// which folds suit-agnostic texture heuristics into a float score;
// bucketing here exists only to give the value-oracle network a fixed
// I/O shape, not to win equity on its own.
//
// board_index is assigned by a minimal perfect hash over the boards this
// Bucketer was built with, the way internal/evaluator's generated tables
// index 7-card hand keys, but built directly from the observed board set
// instead of go:generate.
type Bucketer struct {
	params GameParams
	boards []Board
	table  *chd.CHD
	// slotToIndex maps a perfect-hash slot to the board's position in
	// boards, since CHD does not guarantee slot == insertion order.
	slotToIndex []int32
}

// NewBucketer builds a perfect-hash board index over boards. Every board
// must have the same length (spec §4.2 operates on a single street's
// board set at a time).
func NewBucketer(p GameParams, boards []Board) (*Bucketer, error) {
	if len(boards) == 0 {
		return nil, fmt.Errorf("%w: bucketer needs at least one board", ErrShapeMismatch)
	}
	keys := make([][]byte, len(boards))
	for i, b := range boards {
		if err := b.validate(p); err != nil {
			return nil, err
		}
		keys[i] = encodeBoardKey(b)
	}

	builder, err := chd.NewBuilder[[]byte]()
	if err != nil {
		return nil, fmt.Errorf("resolve: build bucketer: %w", err)
	}
	for _, k := range keys {
		if err := builder.Add(k); err != nil {
			return nil, fmt.Errorf("resolve: add board key: %w", err)
		}
	}
	table, err := builder.Freeze()
	if err != nil {
		return nil, fmt.Errorf("resolve: freeze bucket hash: %w", err)
	}

	slotToIndex := make([]int32, len(keys))
	for i, k := range keys {
		slotToIndex[table.Find(k)] = int32(i)
	}

	return &Bucketer{
		params:      p,
		boards:      append([]Board(nil), boards...),
		table:       table,
		slotToIndex: slotToIndex,
	}, nil
}

// NumBuckets returns C * |boards|, the total bucket count (spec §8
// scenario 5: "get_bucket_count() = 6*6 = 36" for C=6, |boards|=6).
func (bk *Bucketer) NumBuckets() int { return bk.params.CardCount() * len(bk.boards) }

// BoardIndex returns board's position among the boards this Bucketer was
// built with.
func (bk *Bucketer) BoardIndex(board Board) (int, error) {
	slot := bk.table.Find(encodeBoardKey(board))
	if slot >= uint32(len(bk.slotToIndex)) {
		return 0, fmt.Errorf("%w: board %v not indexed", ErrInvalidBoard, board)
	}
	idx := bk.slotToIndex[slot]
	if !boardEqual(bk.boards[idx], board) {
		return 0, fmt.Errorf("%w: board %v not indexed", ErrInvalidBoard, board)
	}
	return int(idx), nil
}

// Bucket returns board_index*C + hand, or -1 if hand collides with board
// (spec §8 scenario 5: "compute_buckets([card=2])[2] = -1").
func (bk *Bucketer) Bucket(hand Card, board Board) (int, error) {
	if !board.Compatible(hand) {
		return -1, nil
	}
	idx, err := bk.BoardIndex(board)
	if err != nil {
		return 0, err
	}
	return idx*bk.params.CardCount() + int(hand), nil
}

// ComputeBuckets returns the length-C bucket vector for board: bucket
// index per hand, or -1 where the hand collides with board.
func (bk *Bucketer) ComputeBuckets(board Board) ([]int, error) {
	idx, err := bk.BoardIndex(board)
	if err != nil {
		return nil, err
	}
	c := bk.params.CardCount()
	out := make([]int, c)
	for hand := 0; hand < c; hand++ {
		if !board.Compatible(Card(hand)) {
			out[hand] = -1
			continue
		}
		out[hand] = idx*c + hand
	}
	return out, nil
}

func encodeBoardKey(board Board) []byte {
	buf := make([]byte, 4*len(board))
	for i, c := range board {
		binary.LittleEndian.PutUint32(buf[4*i:4*i+4], uint32(c))
	}
	return buf
}

func boardEqual(a, b Board) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
