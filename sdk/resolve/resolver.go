package resolve

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// ContinualResolver maintains the two invariants of spec §4.6 across a
// whole hand: the acting player's current range, and a bound on the
// opponent's counterfactual values. At each decision it rebuilds a
// Lookahead rooted at the observed public node, runs CFR+ to
// convergence, samples an action, and advances both invariants. Grounded
// on Trainer's top-level orchestration loop in sdk/solver/trainer.go,
// generalised from repeated MCCFR traversals to repeated depth-limited
// re-solves.
type ContinualResolver struct {
	params   GameParams
	builder  *TreeBuilder
	oracle   ValueOracle
	bucketer *Bucketer
	position int // which player this resolver plays, 0 or 1
	rng      *rand.Rand

	startingPlayerRange   Range // this resolver's own range at the true root
	startingOpponentRange Range // the opponent's range at the true root, known exactly
	startingCFVsP1        [2][]float64 // root cfvs indexed by absolute player (0 = P1, 1 = P2)

	currentPlayerRange    Range
	currentOpponentBound  []float64
	lastNode              *PublicNode
	lastBet               float64
	handID                int
	decisionID            int

	firstLookahead *Lookahead
}

// NewContinualResolver builds a resolver for position (0 or 1), playing
// against oracle-valued depth limits and using bucketer for value-oracle
// I/O. rng seeds the resolver's action sampling (spec §4.6 step 5).
func NewContinualResolver(p GameParams, oracle ValueOracle, bucketer *Bucketer, position int, rng *rand.Rand) *ContinualResolver {
	return &ContinualResolver{
		params:   p,
		builder:  NewTreeBuilder(p),
		oracle:   oracle,
		bucketer: bucketer,
		position: position,
		rng:      rng,
	}
}

// Initialize resolves the game's very first node with both ranges known
// exactly, recording starting_player_range and starting_cfvs_p1 for reuse
// (spec §4.6 "State: starting_player_range, starting_cfvs_p1 (computed
// once by resolving the game's very first node with both ranges known)").
func (cr *ContinualResolver) Initialize(ctx context.Context, rootBets [2]float64, player0Range, player1Range Range) error {
	tree, err := cr.builder.Build(nil, 0, rootBets)
	if err != nil {
		return err
	}
	lh := NewLookahead(cr.params, tree, cr.oracle, cr.bucketer, cr.position)
	ranges := [2]Range{player0Range, player1Range}
	if err := lh.Run(ctx, ranges[cr.position], ranges[1-cr.position], nil); err != nil {
		return err
	}
	cr.startingPlayerRange = ranges[cr.position]
	cr.startingOpponentRange = ranges[1-cr.position]
	cr.startingCFVsP1 = lh.RootCFVs()
	cr.firstLookahead = lh
	log.Debug().Int("position", cr.position).Msg("continual resolver initialized from root lookahead")
	return nil
}

// NewHand resets per-hand state (current range/bound, last node/bet,
// decision counter) ahead of a fresh hand, advancing hand_id. The
// once-per-match starting_player_range/starting_cfvs_p1 invariants from
// Initialize are untouched, since they describe the game's fixed root,
// not any one hand.
func (cr *ContinualResolver) NewHand() {
	cr.handID++
	cr.decisionID = 0
	cr.lastNode = nil
	cr.lastBet = 0
	cr.currentPlayerRange = nil
	cr.currentOpponentBound = nil
}

// HandID returns the number of times NewHand has been called.
func (cr *ContinualResolver) HandID() int { return cr.handID }

// Decide implements spec §4.6's per-decision algorithm: rebuild (or
// reuse) a lookahead at node, run CFR+, sample an action for heldHand,
// and advance the resolver's invariants to match.
func (cr *ContinualResolver) Decide(ctx context.Context, node *PublicNode, heldHand Card, decisionIndex int) (Action, error) {
	// Step 1: street change since last_node -> roll the opponent cfv
	// bound forward via the last lookahead's chance-action memory, and
	// renormalise the current range against the new board.
	if cr.lastNode != nil && node.Street != cr.lastNode.Street && cr.firstLookahead != nil {
		if cfv := cr.firstLookahead.GetChanceActionCFV(node.Board); cfv != nil {
			cr.currentOpponentBound = cfv
		}
		cr.currentPlayerRange = cr.currentPlayerRange.Normalize(node.Board, cr.params)
	}

	// Step 2: first decision for P2 bootstraps from the starting state:
	// own range from starting_player_range, opponent (P1) cfv bound from
	// starting_cfvs_p1 (spec §4.6 step 2).
	if cr.lastNode == nil && cr.position == 1 {
		cr.currentPlayerRange = append(Range(nil), cr.startingPlayerRange...)
		cr.currentOpponentBound = cr.startingCFVsP1[0]
	}
	if cr.currentPlayerRange == nil {
		cr.currentPlayerRange = NewUniformRange(node.Board, cr.params)
	}
	if cr.currentOpponentBound == nil {
		cr.currentOpponentBound = make([]float64, cr.params.CardCount())
	}

	// Step 3: build a new lookahead, reusing the pre-built first-node one
	// on decision 0 for P1.
	var lh *Lookahead
	if decisionIndex == 0 && cr.position == 0 && cr.firstLookahead != nil {
		lh = cr.firstLookahead
	} else {
		tree, err := cr.builder.Build(node.Board, node.CurrentPlayer, node.Bets)
		if err != nil {
			return Action{}, err
		}
		lh = NewLookahead(cr.params, tree, cr.oracle, cr.bucketer, cr.position)
		gadget, err := NewGadget(cr.params, node.Board)
		if err != nil {
			return Action{}, err
		}
		lh.SetGadget(gadget)
	}

	// Step 4: run CFR+.
	var opponentRange Range
	if lh == cr.firstLookahead {
		opponentRange = cr.startingOpponentRange // both ranges already known exactly at the true root
	}
	if err := lh.Run(ctx, cr.currentPlayerRange, opponentRange, cr.currentOpponentBound); err != nil {
		return Action{}, err
	}

	// Step 5: sample an action for heldHand from the average strategy,
	// update invariants. The oracle has no per-action cfv lookup, only a
	// per-board one (it remembers the chance-conditioned mean opponent
	// cfv it was trained against for this board, not one row per sampled
	// bet), so GetChanceActionCFV(node.Board) stands in for get_action_cfv
	// here: the sampled action only ever changes the board by advancing
	// through a chance node, so the board-indexed bound already reflects
	// the consequence of the sampled action.
	strategy := lh.RootStrategy()
	action, actionIdx := sampleAction(cr.rng, strategy, node.Actions, heldHand)
	cr.currentOpponentBound = lh.GetChanceActionCFV(node.Board)
	cr.currentPlayerRange = reweightRange(cr.currentPlayerRange, strategy, actionIdx, node.Board, cr.params)

	cr.lastNode = node
	cr.lastBet = action.Amount
	cr.decisionID = decisionIndex
	log.Debug().Int("position", cr.position).Int("decision", decisionIndex).Str("action", actionName(action.Kind)).Msg("continual resolver decided")
	return action, nil
}

// sampleAction draws an action index for heldHand from strategy
// (shaped [numActions][C]) and returns the corresponding Action.
func sampleAction(rng *rand.Rand, strategy [][]float64, actions []Action, heldHand Card) (Action, int) {
	r := rng.Float64()
	cum := 0.0
	for a, row := range strategy {
		cum += row[heldHand]
		if r <= cum {
			return actions[a], a
		}
	}
	return actions[0], 0
}

// reweightRange multiplies range by the sampled action's strategy row and
// renormalises (spec §4.6 step 5 "multiply current_player_range by the
// sampled-action strategy and re-normalise").
func reweightRange(r Range, strategy [][]float64, actionIdx int, board Board, p GameParams) Range {
	out := make(Range, len(r))
	row := strategy[actionIdx]
	for h := range out {
		out[h] = r[h] * row[h]
	}
	return out.Normalize(board, p)
}

func actionName(k ActionKind) string {
	switch k {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionTransitionCall:
		return "transition_call"
	case ActionCall:
		return "call"
	case ActionRaise:
		return "raise"
	default:
		return "unknown"
	}
}
