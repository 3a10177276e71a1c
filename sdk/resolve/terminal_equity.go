package resolve

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// TerminalEquity translates a pair of ranges at a terminal node into
// counterfactual values, grounded on
// original_source/Source/TerminalEquity/terminal_equity.go and the
// ehrlich-b-poker pkg/equity calculator's call/fold split. TerminalEquity
// objects are pure functions of board and are memoised by the caller (spec
// §5 "TerminalEquity objects are pure functions of board and SHOULD be
// memoised by board").
type TerminalEquity struct {
	params GameParams
	eval   *Evaluator
	board  Board

	// Fold and Call are both C x C, stored row-major.
	Fold []float64
	Call []float64
}

// NewTerminalEquity builds the fold and call matrices for board (spec
// §4.1 "Construction on a board B"). For a complete board (len(board) ==
// BoardCardCount) the call matrix is computed directly from hand strength.
// For the first street (empty board) it is the average of the call matrix
// over every board completion, weighted as described in spec §4.1.
func NewTerminalEquity(p GameParams, board Board) (*TerminalEquity, error) {
	if err := board.validate(p); err != nil {
		return nil, err
	}
	te := &TerminalEquity{
		params: p,
		eval:   NewEvaluator(p),
		board:  append(Board(nil), board...),
	}
	te.Fold = te.buildFoldMatrix()
	call, err := te.buildCallMatrix()
	if err != nil {
		return nil, err
	}
	te.Call = call
	return te, nil
}

func (te *TerminalEquity) idx(i, j int) int { return i*te.params.CardCount() + j }

// buildFoldMatrix implements F[i][j] = 1 if i,j share no card with each
// other or the board, else 0.
func (te *TerminalEquity) buildFoldMatrix() []float64 {
	c := te.params.CardCount()
	f := make([]float64, c*c)
	for i := 0; i < c; i++ {
		ci := Card(i)
		if te.board.Contains(ci) {
			continue
		}
		for j := 0; j < c; j++ {
			if i == j {
				continue
			}
			cj := Card(j)
			if te.board.Contains(cj) {
				continue
			}
			f[te.idx(i, j)] = 1
		}
	}
	return f
}

func (te *TerminalEquity) buildCallMatrix() ([]float64, error) {
	p := te.params
	if len(te.board) == p.BoardCardCount {
		return te.callMatrixForCompleteBoard(te.board), nil
	}
	return te.averagedCallMatrix()
}

// callMatrixForCompleteBoard implements A[i][j] = sign(strength(i) -
// strength(j)) with board-blocked entries zeroed.
func (te *TerminalEquity) callMatrixForCompleteBoard(board Board) []float64 {
	c := te.params.CardCount()
	a := make([]float64, c*c)
	for i := 0; i < c; i++ {
		if board.Contains(Card(i)) {
			continue
		}
		for j := 0; j < c; j++ {
			if i == j || board.Contains(Card(j)) {
				continue
			}
			a[te.idx(i, j)] = float64(te.eval.Compare(Card(i), Card(j), board))
		}
	}
	return a
}

// averagedCallMatrix implements the first-street rule: A = (1/W) *
// sum over board completions B' of A(B'), where W is the number of
// completions reachable from each hand pair. The per-completion matrices
// fan out with an errgroup the way trainer.go's singleIteration fans out
// per-table goroutines, since each completion's matrix is independent
// work.
func (te *TerminalEquity) averagedCallMatrix() ([]float64, error) {
	p := te.params
	remaining := make([]Card, 0, p.CardCount())
	for _, c := range NewDeck(p) {
		if !te.board.Contains(c) {
			remaining = append(remaining, c)
		}
	}
	k := p.BoardCardCount - len(te.board)
	completions := combinations(remaining, k)

	c := p.CardCount()
	sum := make([]float64, c*c)
	counts := make([]float64, c*c) // W per (i,j) pair, since blocked hands vary completion to completion

	// Each completion writes to its own result slot, so the fan-out needs
	// no locking.
	g, _ := errgroup.WithContext(context.Background())
	results := make([][]float64, len(completions))
	for idx, extra := range completions {
		idx, extra := idx, extra
		g.Go(func() error {
			full := append(append(Board(nil), te.board...), extra...)
			results[idx] = te.callMatrixForCompleteBoard(full)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for idx, mat := range results {
		full := append(append(Board(nil), te.board...), completions[idx]...)
		for i := 0; i < c; i++ {
			for j := 0; j < c; j++ {
				// Only completions that block neither hand count towards W.
				if i == j || full.Contains(Card(i)) || full.Contains(Card(j)) {
					continue
				}
				sum[te.idx(i, j)] += mat[te.idx(i, j)]
				counts[te.idx(i, j)]++
			}
		}
	}
	for i := range sum {
		if counts[i] > 0 {
			sum[i] /= counts[i]
		}
	}
	return sum, nil
}

// combinations returns every size-k subset of deck, order-independent.
func combinations(deck []Card, k int) [][]Card {
	if k <= 0 {
		return [][]Card{{}}
	}
	if k > len(deck) {
		return nil
	}
	var out [][]Card
	var pick func(start int, chosen []Card)
	pick = func(start int, chosen []Card) {
		if len(chosen) == k {
			out = append(out, append([]Card(nil), chosen...))
			return
		}
		for i := start; i < len(deck); i++ {
			pick(i+1, append(chosen, deck[i]))
		}
	}
	pick(0, nil)
	return out
}

// CallValue computes out = ranges . A for a single player's range (spec
// §4.1 "call_value(ranges, out): out = ranges . A").
func (te *TerminalEquity) CallValue(ranges Range, out []float64) {
	te.matVec(te.Call, ranges, out)
}

// FoldValue computes out = ranges . F.
func (te *TerminalEquity) FoldValue(ranges Range, out []float64) {
	te.matVec(te.Fold, ranges, out)
}

func (te *TerminalEquity) matVec(mat []float64, ranges Range, out []float64) {
	c := te.params.CardCount()
	for i := 0; i < c; i++ {
		out[i] = 0
	}
	for j := 0; j < c; j++ {
		rj := ranges[j]
		if rj == 0 {
			continue
		}
		for i := 0; i < c; i++ {
			out[i] += mat[te.idx(i, j)] * rj
		}
	}
}

// TreeNodeCallValue swaps players: out[0] = ranges[1].A, out[1] =
// ranges[0].A (spec §4.1 "tree_node_call_value").
func (te *TerminalEquity) TreeNodeCallValue(ranges [2]Range, out [2][]float64) {
	te.CallValue(ranges[1], out[0])
	te.CallValue(ranges[0], out[1])
}

// TreeNodeFoldValue is TreeNodeCallValue with the fold matrix, then negates
// the folder's row (spec §4.1 "tree_node_fold_value").
func (te *TerminalEquity) TreeNodeFoldValue(ranges [2]Range, out [2][]float64, folder int) {
	te.FoldValue(ranges[1], out[0])
	te.FoldValue(ranges[0], out[1])
	for i := range out[folder] {
		out[folder][i] = -out[folder][i]
	}
}
