package resolve

import "context"

// ValueOracle is the only boundary the core calls outward (spec §6
// "Value-oracle interface"): given batched, bucketed, range-normalised
// inputs, it returns bucketed counterfactual values. Training or
// evaluating the network behind this interface is out of scope (spec §1
// Non-goals, "learning the value function itself"); this package only
// calls it.
//
// Inputs is N x (2K+1): two bucketed ranges concatenated with a
// pot-scale scalar in [0,1]. Outputs is N x 2K: bucketed cfvs per player,
// assumed already scaled to match the input ranges' sums.
type ValueOracle interface {
	GetValue(ctx context.Context, inputs [][]float64, outputs [][]float64) error
}

// oracleBox calls the external oracle for a Lookahead's transition-call
// slots, following spec §4.5.3's sub-protocol. Each evaluate call sends
// one slot as a batch of one; slots are not grouped by depth.
// Grounded on the callback-adapter shape of sdk/solver/trainer.go, which
// also separates "compute a batch" from "call an external dependency".
type oracleBox struct {
	params   GameParams
	oracle   ValueOracle
	bucketer *Bucketer
	resolver int // 0 or 1: which player is running this resolve

	// counterfactual_value_memory accumulates post-chance cfvs per board
	// (spec §4.5.3, third paragraph), keyed by board index. Every evaluate
	// call is accumulated; iterations at or below cfr_skip_iters are not
	// excluded.
	cfvMemory        map[int][]float64
	rangeNormMemory  map[int]float64
	memorySamples    int
}

func newOracleBox(p GameParams, oracle ValueOracle, bucketer *Bucketer, resolver int) *oracleBox {
	return &oracleBox{
		params:          p,
		oracle:          oracle,
		bucketer:        bucketer,
		resolver:        resolver,
		cfvMemory:       make(map[int][]float64),
		rangeNormMemory: make(map[int]float64),
	}
}

// evaluate runs the oracle for a single transition-call slot on board,
// given both players' hand-indexed ranges (unnormalised), and writes
// unnormalised hand-indexed cfvs into outCFVs.
func (ob *oracleBox) evaluate(ctx context.Context, board Board, ranges [2]Range, potFeature float64, outCFVs [2][]float64) error {
	conv, err := NewBucketConversion(ob.params, board, ob.bucketer)
	if err != nil {
		return err
	}
	k := ob.bucketer.NumBuckets()

	bucketRanges := [2][]float64{make([]float64, k), make([]float64, k)}
	sums := [2]float64{}
	for player := 0; player < 2; player++ {
		if err := conv.HandToBucket(ranges[player], bucketRanges[player]); err != nil {
			return err
		}
		for _, v := range bucketRanges[player] {
			sums[player] += v
		}
		if sums[player] > 0 {
			for i := range bucketRanges[player] {
				bucketRanges[player][i] /= sums[player]
			}
		}
	}

	// If P2 is the re-solver, input and output player slots are swapped
	// symmetrically (spec §4.5.3 "If P2 is the re-solver, input player
	// slots and output player slots are swapped symmetrically"). slotOf
	// is its own inverse, so the same mapping undoes the swap on output.
	slotOf := func(player int) int {
		if ob.resolver == 1 {
			return 1 - player
		}
		return player
	}

	input := make([]float64, 2*k+1)
	for player := 0; player < 2; player++ {
		slot := slotOf(player)
		copy(input[slot*k:(slot+1)*k], bucketRanges[player])
	}
	input[2*k] = potFeature

	output := make([]float64, 2*k)
	if err := ob.oracle.GetValue(ctx, [][]float64{input}, [][]float64{output}); err != nil {
		return &ErrOracleFailure{Board: board, Err: err}
	}

	bucketCFVs := [2][]float64{make([]float64, k), make([]float64, k)}
	for player := 0; player < 2; player++ {
		slot := slotOf(player)
		copy(bucketCFVs[player], output[slot*k:(slot+1)*k])
		if sums[player] > 0 {
			for i := range bucketCFVs[player] {
				bucketCFVs[player][i] *= sums[player]
			}
		}
		if err := conv.BucketToHand(bucketCFVs[player], outCFVs[player]); err != nil {
			return err
		}
	}

	ob.remember(board, bucketCFVs, sums[1-ob.resolver])
	return nil
}

// remember accumulates this call's bucketed cfvs into the per-board
// memory the gadget's successor decision reads via GetChanceActionCFV,
// alongside the opponent range-normalisation sum that call used (spec
// §4.5.3 "range_normalization_memory").
func (ob *oracleBox) remember(board Board, bucketCFVs [2][]float64, opponentRangeSum float64) {
	k := ob.bucketer.NumBuckets()
	key, err := ob.bucketer.BoardIndex(board)
	if err != nil {
		return
	}
	mem, ok := ob.cfvMemory[key]
	if !ok {
		mem = make([]float64, 2*k)
		ob.cfvMemory[key] = mem
	}
	for i, v := range bucketCFVs[0] {
		mem[i] += v
	}
	for i, v := range bucketCFVs[1] {
		mem[k+i] += v
	}
	ob.rangeNormMemory[key] += opponentRangeSum
	ob.memorySamples++
}

// GetChanceActionCFV serves the mean post-chance opponent cfvs for a
// specific board reveal, accumulated in oracleBox.remember (spec §4.5.3
// "get_chance_action_cfv(action_index, board)"). The opponent is the
// player other than the resolver. The result is bucket-indexed (length
// NumBuckets) and all zeros for a board that was never evaluated.
func (ob *oracleBox) GetChanceActionCFV(board Board) []float64 {
	k := ob.bucketer.NumBuckets()
	key, err := ob.bucketer.BoardIndex(board)
	if err != nil || ob.memorySamples == 0 {
		return make([]float64, k)
	}
	mem, ok := ob.cfvMemory[key]
	if !ok {
		return make([]float64, k)
	}
	opp := (1 - ob.resolver) * k
	out := make([]float64, k)
	for i := range out {
		out[i] = mem[opp+i] / float64(ob.memorySamples)
	}
	return out
}
