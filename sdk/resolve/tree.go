package resolve

// NodeKind classifies a PublicNode the way the design notes describe: a
// sum-of-variants over node kinds, each carrying only the fields its kind
// uses (spec §9 "Dynamic table of anything on nodes").
type NodeKind int

const (
	NodeInner NodeKind = iota
	NodeChance
	NodeCheck
	NodeTerminalFold
	NodeTerminalCall
)

func (k NodeKind) String() string {
	switch k {
	case NodeInner:
		return "inner"
	case NodeChance:
		return "chance"
	case NodeCheck:
		return "check"
	case NodeTerminalFold:
		return "terminal_fold"
	case NodeTerminalCall:
		return "terminal_call"
	default:
		return "unknown"
	}
}

// ActionKind enumerates the legal-action policy of spec §3.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionTransitionCall
	ActionCall
	ActionRaise
)

// Action labels an edge of the public tree.
type Action struct {
	Kind   ActionKind
	Amount float64 // the acting player's new total bet after this action
	AllIn  bool
}

// PublicNode is a single node in the public tree, grounded on
// pkg/tree.TreeNode but reshaped into an arena: Parent and Children are
// indices into Tree.Nodes, not pointers, so the tree is a plain slice
// (spec §9 "store children by index in an arena; parent is an index, not
// an owning reference").
//
// CFR-populated fields (strategy, regrets, cf_values, cf_values_br,
// ranges_absolute) deliberately do NOT live on this struct: they are
// owned by Lookahead's depth-layer tensors, keyed by node index, so the
// hot iteration loop never chases a pointer through the tree (spec §9
// "CFR state lives in side tables... never on the node itself in the hot
// path").
type PublicNode struct {
	Street        int
	Board         Board
	CurrentPlayer int // 0 or 1; -1 at chance and terminal nodes
	Bets          [2]float64
	Kind          NodeKind

	Parent   int // -1 at the root
	Children []int
	Actions  []Action // Actions[i] labels the edge to Children[i]

	// FolderIsPlayer0 is only meaningful when Kind == NodeTerminalFold:
	// true if player 0 folded (player 1 wins the pot).
	FolderIsPlayer0 bool
}

// Pot returns min(b1, b2), the amount both players have contributed and
// therefore stand to win or lose (spec §3 "Derived: pot = min(b1, b2)").
func (n *PublicNode) Pot() float64 {
	if n.Bets[0] < n.Bets[1] {
		return n.Bets[0]
	}
	return n.Bets[1]
}

// Tree is the arena of PublicNodes built from one root public state.
type Tree struct {
	Params GameParams
	Nodes  []PublicNode
}

// Root returns the tree's root node.
func (t *Tree) Root() *PublicNode { return &t.Nodes[0] }

// TreeBuilder constructs a Tree under a fixed bet-sizing schedule,
// grounded on pkg/tree.Builder.buildNode's depth-first recursion.
type TreeBuilder struct {
	params GameParams
}

// NewTreeBuilder returns a TreeBuilder bound to p.
func NewTreeBuilder(p GameParams) *TreeBuilder { return &TreeBuilder{params: p} }

// Build constructs the public tree rooted at (board, currentPlayer, bets)
// (spec §4.3 "Depth-first expansion from a root"). street is derived from
// board via Board.Street.
func (b *TreeBuilder) Build(board Board, currentPlayer int, bets [2]float64) (*Tree, error) {
	if err := board.validate(b.params); err != nil {
		return nil, err
	}
	t := &Tree{Params: b.params}
	_, err := b.addNode(t, -1, board.Street(), board, currentPlayer, bets, true)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// addNode appends one node (and recursively its subtree) to t, returning
// its index. opensStreet is true iff no action has yet occurred on this
// street at this node (i.e. it is the first-to-act decision).
func (b *TreeBuilder) addNode(t *Tree, parent int, street int, board Board, player int, bets [2]float64, opensStreet bool) (int, error) {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, PublicNode{
		Street:        street,
		Board:         board,
		CurrentPlayer: player,
		Bets:          bets,
		Kind:          NodeInner,
		Parent:        parent,
	})

	actions := b.legalActions(street, bets, player, opensStreet)
	node := &t.Nodes[idx]
	node.Actions = actions

	children := make([]int, len(actions))
	for i, a := range actions {
		childIdx, err := b.addChild(t, idx, street, board, player, bets, a)
		if err != nil {
			return 0, err
		}
		children[i] = childIdx
	}
	// Re-fetch: appends above may have reallocated t.Nodes' backing array.
	t.Nodes[idx].Children = children
	return idx, nil
}

func (b *TreeBuilder) addChild(t *Tree, parent int, street int, board Board, player int, bets [2]float64, a Action) (int, error) {
	opp := 1 - player
	switch a.Kind {
	case ActionFold:
		return b.addTerminal(t, parent, street, board, bets, NodeTerminalFold, player == 0), nil

	case ActionCheck:
		if player == 1 && street == b.params.StreetsCount {
			return b.addTerminal(t, parent, street, board, bets, NodeCheck, false), nil
		}
		return b.addNode(t, parent, street, board, opp, bets, false)

	case ActionTransitionCall:
		return b.addChanceNode(t, parent, street, board, bets)

	case ActionCall:
		newBets := bets
		newBets[player] = newBets[opp]
		if street < b.params.StreetsCount && newBets[opp] < b.params.Stack {
			return b.addChanceNode(t, parent, street, board, newBets)
		}
		return b.addTerminal(t, parent, street, board, newBets, NodeTerminalCall, false), nil

	case ActionRaise:
		newBets := bets
		newBets[player] = a.Amount
		return b.addNode(t, parent, street, board, opp, newBets, false)

	default:
		return 0, ErrNoValidAction
	}
}

func (b *TreeBuilder) addTerminal(t *Tree, parent int, street int, board Board, bets [2]float64, kind NodeKind, folderIsP0 bool) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, PublicNode{
		Street:          street,
		Board:           board,
		CurrentPlayer:   -1,
		Bets:            bets,
		Kind:            kind,
		Parent:          parent,
		FolderIsPlayer0: kind == NodeTerminalFold && folderIsP0,
	})
	return idx
}

// addChanceNode builds a chance node with one child per board completion
// (spec §3 "From a chance node: one child per possible board completion").
func (b *TreeBuilder) addChanceNode(t *Tree, parent int, street int, board Board, bets [2]float64) (int, error) {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, PublicNode{
		Street:        street,
		Board:         board,
		CurrentPlayer: -1,
		Bets:          bets,
		Kind:          NodeChance,
		Parent:        parent,
	})

	remaining := make([]Card, 0, b.params.CardCount())
	for _, c := range NewDeck(b.params) {
		if !board.Contains(c) {
			remaining = append(remaining, c)
		}
	}
	k := b.params.BoardCardCount - len(board)
	completions := combinations(remaining, k)

	children := make([]int, len(completions))
	actions := make([]Action, len(completions))
	for i, extra := range completions {
		full := append(append(Board(nil), board...), extra...)
		childIdx, err := b.addNode(t, idx, street+1, full, 0, bets, true)
		if err != nil {
			return 0, err
		}
		children[i] = childIdx
		actions[i] = Action{Kind: ActionTransitionCall, Amount: bets[0]}
	}
	t.Nodes[idx].Children = children
	t.Nodes[idx].Actions = actions
	return idx, nil
}

// legalActions implements spec §3's legal-action policy for a player node.
func (b *TreeBuilder) legalActions(street int, bets [2]float64, player int, opensStreet bool) []Action {
	p := b.params
	opp := 1 - player
	ownBet, oppBet := bets[player], bets[opp]

	actions := []Action{{Kind: ActionFold}}

	if ownBet == oppBet {
		atMaxStack := oppBet >= p.Stack
		closing := player == 1 && !opensStreet
		if closing && street < p.StreetsCount && !atMaxStack {
			actions = append(actions, Action{Kind: ActionTransitionCall, Amount: ownBet})
		} else {
			actions = append(actions, Action{Kind: ActionCheck, Amount: ownBet})
		}
		// A raise set is always on offer alongside the call-class action,
		// whatever that action is (spec §3: raises are unconditional).
		actions = append(actions, b.raiseActions(ownBet, oppBet)...)
		return actions
	}

	actions = append(actions, Action{Kind: ActionCall, Amount: oppBet})
	actions = append(actions, b.raiseActions(ownBet, oppBet)...)
	return actions
}

// raiseActions implements "for each configured pot fraction f, a raise to
// opp_bet + f*(2*opp_bet)... plus always an all-in raise" (spec §3),
// deduplicating raises whose amount coincides with the all-in amount
// (spec §9 "duplicates are filtered by the uniqueness check on
// max_raise_size == min_raise_size"). No all-in raise is offered when the
// opponent is already all-in, since that amount would only be a call.
func (b *TreeBuilder) raiseActions(ownBet, oppBet float64) []Action {
	p := b.params
	minIncrement := p.Ante
	if d := oppBet - ownBet; d > minIncrement {
		minIncrement = d
	}

	seen := map[float64]bool{}
	var raises []Action
	for _, f := range p.BetSizing {
		amount := oppBet + f*(2*oppBet)
		increment := amount - ownBet
		if increment >= minIncrement && amount < p.Stack && !seen[amount] {
			raises = append(raises, Action{Kind: ActionRaise, Amount: amount})
			seen[amount] = true
		}
	}
	if !seen[p.Stack] && p.Stack > oppBet && p.Stack-ownBet >= minIncrement {
		raises = append(raises, Action{Kind: ActionRaise, Amount: p.Stack, AllIn: true})
	}
	return raises
}
