package resolve

import (
	"context"
	"fmt"
	"math"
)

const regretFloor = 0.0
const strategyEps = 1e-9 // spec §3 "Regret matrix: element-wise >= eps = 1e-9"

// Lookahead runs batched CFR+ over a public Tree (spec §4.5, "the hard
// part"). The specification's layout is a set of depth-indexed,
// rectangular, padded tensors so one iteration is a fixed sequence of
// bulk operations with no recursion. This implementation instead keeps
// one slice of CFR state per tree-node index and walks the tree
// recursively each iteration; DESIGN.md records this as a deliberate
// trade against literal tensor padding, chosen because no linear-algebra
// library appears anywhere in the teacher or the rest of the pack. The
// eight steps of spec §4.5.2 are preserved in order and in semantics,
// just expressed as tree recursion instead of layer-parallel tensor ops.
//
// A Lookahead explicitly builds only the current street's decisions.
// Any node that is a direct child of a chance node (spec's "second-street
// root") is a leaf of THIS Lookahead: its value comes from the
// ValueOracle, not from recursing into its own (separately buildable)
// subtree. This realises the "depth-limited" half of the spec.
type Lookahead struct {
	tree      *Tree
	params    GameParams
	terminals map[string]*TerminalEquity
	gadget    *Gadget
	oracle    *oracleBox
	resolver  int // resolving player, 0 or 1

	ranges   [][2]Range     // ranges[node][player]
	regrets  [][]float64    // regrets[node] flattened [action][hand], inner nodes only
	curStrat [][]float64    // same shape as regrets
	avgStrat [][]float64    // same shape, accumulated over iter > cfr_skip_iters
	cfvs     [][2][]float64 // this iteration's cfv per player per hand
	avgCFVs  [][2][]float64 // accumulated, root and depth-1 decision nodes only (spec §4.5.2 step 8)

	lastRootOpponentCFV []float64
}

// NewLookahead builds the CFR state arrays for tree. oracle and bucketer
// may be nil only if tree never reaches a transition-call (e.g. the final
// street, where no chance children occur).
func NewLookahead(params GameParams, tree *Tree, oracle ValueOracle, bucketer *Bucketer, resolver int) *Lookahead {
	lh := &Lookahead{
		tree:      tree,
		params:    params,
		terminals: make(map[string]*TerminalEquity),
		resolver:  resolver,
	}
	if oracle != nil && bucketer != nil {
		lh.oracle = newOracleBox(params, oracle, bucketer, resolver)
	}

	n := len(tree.Nodes)
	lh.ranges = make([][2]Range, n)
	lh.regrets = make([][]float64, n)
	lh.curStrat = make([][]float64, n)
	lh.avgStrat = make([][]float64, n)
	lh.cfvs = make([][2][]float64, n)
	lh.avgCFVs = make([][2][]float64, n)

	c := params.CardCount()
	for i, node := range tree.Nodes {
		if node.Kind == NodeInner {
			size := len(node.Actions) * c
			lh.regrets[i] = make([]float64, size)
			lh.curStrat[i] = make([]float64, size)
			lh.avgStrat[i] = make([]float64, size)
		}
		lh.cfvs[i] = [2][]float64{make([]float64, c), make([]float64, c)}
		lh.avgCFVs[i] = [2][]float64{make([]float64, c), make([]float64, c)}
	}
	return lh
}

// SetGadget installs a CFR-D gadget used to reconstruct the opponent's
// root range each iteration, instead of taking it as a fixed input (spec
// §4.4, "not used when ranges are known exactly on both sides").
func (lh *Lookahead) SetGadget(g *Gadget) { lh.gadget = g }

// Run executes cfr_iters CFR+ iterations (spec §4.5.2). playerRange is
// the resolving player's fixed root range. opponentRange is the fixed
// opponent root range when known exactly; pass nil and install a gadget
// via SetGadget to reconstruct it each iteration from opponentCFVBound.
func (lh *Lookahead) Run(ctx context.Context, playerRange, opponentRange Range, opponentCFVBound []float64) error {
	c := lh.params.CardCount()
	if lh.lastRootOpponentCFV == nil {
		lh.lastRootOpponentCFV = make([]float64, c)
	}

	for iter := 1; iter <= lh.params.CFRIters; iter++ {
		resolverSlot, opponentSlot := lh.resolver, 1-lh.resolver

		oppRange := opponentRange
		if oppRange == nil {
			if lh.gadget == nil {
				return fmt.Errorf("%w: no opponent range and no gadget installed", ErrNoValidAction)
			}
			oppRange = Range(lh.gadget.Iterate(lh.lastRootOpponentCFV, opponentCFVBound))
		}

		var rootRanges [2]Range
		rootRanges[resolverSlot] = playerRange
		rootRanges[opponentSlot] = oppRange
		lh.ranges[0] = rootRanges

		if err := lh.forward(0, iter); err != nil {
			return err
		}
		cfvs, err := lh.backward(ctx, 0, iter)
		if err != nil {
			return err
		}
		lh.cfvs[0] = cfvs
		lh.lastRootOpponentCFV = cfvs[opponentSlot]

		if iter > lh.params.CFRSkipIters {
			for p := 0; p < 2; p++ {
				for h := 0; h < c; h++ {
					lh.avgCFVs[0][p][h] += cfvs[p][h]
				}
			}
		}
	}

	lh.finalizeAverages()
	return nil
}

// forward implements steps 2-4: compute current strategy at every inner
// node, propagate ranges to children, and accumulate average strategy.
func (lh *Lookahead) forward(nodeIdx int, iter int) error {
	node := &lh.tree.Nodes[nodeIdx]
	c := lh.params.CardCount()

	if node.Kind != NodeInner {
		for _, child := range node.Children {
			lh.ranges[child] = lh.ranges[nodeIdx]
			if err := lh.forward(child, iter); err != nil {
				return err
			}
		}
		return nil
	}

	// Step 2: current strategy via regret matching with CFR+ flooring of
	// the positive-regret numerator to strategyEps (spec §4.5.2 step 2,
	// §3 invariant "Regrets are >= eps after every iteration" read as
	// applying to the strategy's positive_regrets view).
	numActions := len(node.Actions)
	positives := make([]float64, numActions*c)
	colSum := make([]float64, c)
	for a := 0; a < numActions; a++ {
		for h := 0; h < c; h++ {
			r := lh.regrets[nodeIdx][a*c+h]
			pr := math.Max(r, strategyEps)
			positives[a*c+h] = pr
			colSum[h] += pr
		}
	}
	for a := 0; a < numActions; a++ {
		for h := 0; h < c; h++ {
			strat := positives[a*c+h] / colSum[h]
			lh.curStrat[nodeIdx][a*c+h] = strat
			if iter > lh.params.CFRSkipIters {
				lh.avgStrat[nodeIdx][a*c+h] += strat
			}
		}
	}

	// Step 3: forward pass, propagate ranges to children.
	player := node.CurrentPlayer
	other := 1 - player
	parentRanges := lh.ranges[nodeIdx]
	for a, child := range node.Children {
		var childRanges [2]Range
		childRanges[other] = parentRanges[other]
		actingRange := make(Range, c)
		for h := 0; h < c; h++ {
			actingRange[h] = parentRanges[player][h] * lh.curStrat[nodeIdx][a*c+h]
		}
		childRanges[player] = actingRange
		lh.ranges[child] = childRanges
		if err := lh.forward(child, iter); err != nil {
			return err
		}
	}
	return nil
}

// backward implements steps 5-7: terminal/oracle leaf evaluation, the
// backward cfv pass, and the regret update.
func (lh *Lookahead) backward(ctx context.Context, nodeIdx int, iter int) ([2][]float64, error) {
	node := &lh.tree.Nodes[nodeIdx]
	c := lh.params.CardCount()

	switch node.Kind {
	case NodeTerminalFold:
		te, err := lh.terminalEquityFor(node.Board)
		if err != nil {
			return [2][]float64{}, err
		}
		var out [2][]float64
		out[0], out[1] = make([]float64, c), make([]float64, c)
		folder := 1
		if node.FolderIsPlayer0 {
			folder = 0
		}
		te.TreeNodeFoldValue(lh.ranges[nodeIdx], out, folder)
		scalePot(out, node.Pot())
		lh.cfvs[nodeIdx] = out
		return out, nil

	case NodeCheck, NodeTerminalCall:
		te, err := lh.terminalEquityFor(node.Board)
		if err != nil {
			return [2][]float64{}, err
		}
		var out [2][]float64
		out[0], out[1] = make([]float64, c), make([]float64, c)
		te.TreeNodeCallValue(lh.ranges[nodeIdx], out)
		scalePot(out, node.Pot())
		lh.cfvs[nodeIdx] = out
		return out, nil

	case NodeChance:
		return lh.averageChildren(ctx, node, iter)

	case NodeInner:
		parentIsChance := node.Parent >= 0 && lh.tree.Nodes[node.Parent].Kind == NodeChance
		if parentIsChance {
			return lh.oracleLeaf(ctx, nodeIdx, node)
		}
		return lh.innerBackward(ctx, nodeIdx, iter)
	}
	return [2][]float64{}, fmt.Errorf("%w: unknown node kind", ErrNoValidAction)
}

// averageChildren sums a chance node's children cfvs weighted uniformly,
// since a chance node's own "value" is simply the expectation over its
// (equiprobable) board completions.
func (lh *Lookahead) averageChildren(ctx context.Context, node *PublicNode, iter int) ([2][]float64, error) {
	c := lh.params.CardCount()
	var sum [2][]float64
	sum[0], sum[1] = make([]float64, c), make([]float64, c)
	for _, child := range node.Children {
		cv, err := lh.backward(ctx, child, iter)
		if err != nil {
			return [2][]float64{}, err
		}
		for p := 0; p < 2; p++ {
			for h := 0; h < c; h++ {
				sum[p][h] += cv[p][h]
			}
		}
	}
	n := float64(len(node.Children))
	if n > 0 {
		for p := 0; p < 2; p++ {
			for h := 0; h < c; h++ {
				sum[p][h] /= n
			}
		}
	}
	return sum, nil
}

// innerBackward implements steps 6-7 for a genuine decision node: recurse
// into every child, fold each action's cfv into this node's cfv (masked
// by the acting player's own strategy, summed over actions), then update
// cumulative regret for the acting player.
func (lh *Lookahead) innerBackward(ctx context.Context, nodeIdx int, iter int) ([2][]float64, error) {
	node := &lh.tree.Nodes[nodeIdx]
	c := lh.params.CardCount()
	player := node.CurrentPlayer
	other := 1 - player

	childCFVs := make([][2][]float64, len(node.Children))
	for a, child := range node.Children {
		cv, err := lh.backward(ctx, child, iter)
		if err != nil {
			return [2][]float64{}, err
		}
		childCFVs[a] = cv
	}

	var out [2][]float64
	out[player] = make([]float64, c)
	out[other] = make([]float64, c)
	for a := range node.Children {
		for h := 0; h < c; h++ {
			// Step 6: the acting player's cfv is weighted by their own
			// strategy for this action (they choose it); the other
			// player's cfv passes straight through, summed over the
			// acting player's actions since the opponent doesn't
			// control which one is taken.
			out[player][h] += lh.curStrat[nodeIdx][a*c+h] * childCFVs[a][player][h]
			out[other][h] += childCFVs[a][other][h]
		}
	}
	lh.cfvs[nodeIdx] = out

	// Step 7: regret update for the acting player, CFR+ floored at 0.
	for a := range node.Children {
		for h := 0; h < c; h++ {
			instant := childCFVs[a][player][h] - out[player][h]
			r := lh.regrets[nodeIdx][a*c+h] + instant
			if r < regretFloor {
				r = regretFloor
			}
			lh.regrets[nodeIdx][a*c+h] = r
		}
	}

	// Step 8 for depth-1 decision nodes; Run accumulates the root itself.
	if iter > lh.params.CFRSkipIters && node.Parent == 0 {
		for p := 0; p < 2; p++ {
			for h := 0; h < c; h++ {
				lh.avgCFVs[nodeIdx][p][h] += out[p][h]
			}
		}
	}
	return out, nil
}

func scalePot(cfvs [2][]float64, pot float64) {
	for p := 0; p < 2; p++ {
		for h := range cfvs[p] {
			cfvs[p][h] *= pot
		}
	}
}

// terminalEquityFor returns the (board-memoised) TerminalEquity for
// board, constructing it on first use (spec §5 "TerminalEquity objects
// are pure functions of board and SHOULD be memoised by board").
func (lh *Lookahead) terminalEquityFor(board Board) (*TerminalEquity, error) {
	key := string(encodeBoardKey(board))
	if te, ok := lh.terminals[key]; ok {
		return te, nil
	}
	te, err := NewTerminalEquity(lh.params, board)
	if err != nil {
		return nil, err
	}
	lh.terminals[key] = te
	return te, nil
}

// finalizeAverages implements the post-loop normalisation of spec
// §4.5.2: average strategy at the root divided by column sums (NaN/zero
// columns default to fold), and average cfvs at the root divided by
// (cfr_iters - cfr_skip_iters).
func (lh *Lookahead) finalizeAverages() {
	c := lh.params.CardCount()
	denom := float64(lh.params.CFRIters - lh.params.CFRSkipIters)

	root := &lh.tree.Nodes[0]
	if root.Kind == NodeInner {
		numActions := len(root.Actions)
		colSum := make([]float64, c)
		for a := 0; a < numActions; a++ {
			for h := 0; h < c; h++ {
				colSum[h] += lh.avgStrat[0][a*c+h]
			}
		}
		for h := 0; h < c; h++ {
			if colSum[h] <= 0 {
				for a := 0; a < numActions; a++ {
					if a == 0 {
						lh.avgStrat[0][h] = 1
					} else {
						lh.avgStrat[0][a*c+h] = 0
					}
				}
				continue
			}
			for a := 0; a < numActions; a++ {
				v := lh.avgStrat[0][a*c+h] / colSum[h]
				if math.IsNaN(v) {
					v = 0
				}
				lh.avgStrat[0][a*c+h] = v
			}
		}
	}

	if denom > 0 {
		for p := 0; p < 2; p++ {
			for h := 0; h < c; h++ {
				lh.avgCFVs[0][p][h] /= denom
			}
		}
	}
}

// RootStrategy returns the normalised average strategy at the root,
// shaped [numActions][C].
func (lh *Lookahead) RootStrategy() [][]float64 {
	return lh.nodeAverageStrategy(0)
}

// nodeAverageStrategy returns the raw accumulated average strategy at
// nodeIdx, shaped [numActions][C]. Unlike RootStrategy it is not
// column-normalised (finalizeAverages only normalises the root); callers
// wanting a probability distribution per hand should use RootStrategy or
// normalise the returned rows themselves. Used by tree visualisation to
// label edges at every depth, not just the root.
func (lh *Lookahead) nodeAverageStrategy(nodeIdx int) [][]float64 {
	node := &lh.tree.Nodes[nodeIdx]
	if node.Kind != NodeInner {
		return nil
	}
	c := lh.params.CardCount()
	out := make([][]float64, len(node.Actions))
	for a := range out {
		out[a] = append([]float64(nil), lh.avgStrat[nodeIdx][a*c:(a+1)*c]...)
	}
	return out
}

// RootCFVs returns the normalised average counterfactual values at the
// root, per player.
func (lh *Lookahead) RootCFVs() [2][]float64 {
	return lh.avgCFVs[0]
}

// GetChanceActionCFV serves the mean post-chance opponent cfvs for a
// specific board reveal, delegating to the oracle box's memory (spec
// §4.5.3 "get_chance_action_cfv"). Returns nil if no oracle is installed,
// and a zero vector if no transition-call slot for board was ever
// evaluated.
func (lh *Lookahead) GetChanceActionCFV(board Board) []float64 {
	if lh.oracle == nil {
		return nil
	}
	return lh.oracle.GetChanceActionCFV(board)
}

// oracleLeaf implements spec §4.5.2 step 5's first bullet: a
// transition-call child (second-street root) is valued by the
// ValueOracle instead of by recursing into its own subtree.
func (lh *Lookahead) oracleLeaf(ctx context.Context, nodeIdx int, node *PublicNode) ([2][]float64, error) {
	c := lh.params.CardCount()
	var out [2][]float64
	out[0], out[1] = make([]float64, c), make([]float64, c)
	if lh.oracle == nil {
		return out, nil
	}
	ranges := lh.ranges[nodeIdx]
	potFeature := node.Pot() / lh.params.Stack
	if err := lh.oracle.evaluate(ctx, node.Board, ranges, potFeature, out); err != nil {
		if of, ok := err.(*ErrOracleFailure); ok {
			for p := node.Parent; p >= 0; p = lh.tree.Nodes[p].Parent {
				of.Depth++
			}
		}
		return [2][]float64{}, err
	}
	return out, nil
}
