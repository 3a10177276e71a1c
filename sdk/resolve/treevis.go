package resolve

import (
	"encoding/json"
	"os"
)

// TreeVisNode is the recursive record of spec §6's public-tree-node
// serialization: "recursive record with current_player, bets, street,
// board, depth, children edges labelled by strategy vectors. Not part of
// the runtime core." Grounded on Blueprint's JSON save/load pattern in
// sdk/solver/blueprint.go, generalised from a flat info-set map to a
// nested tree.
type TreeVisNode struct {
	CurrentPlayer int          `json:"current_player"`
	Bets          [2]float64   `json:"bets"`
	Street        int          `json:"street"`
	Board         []int        `json:"board"`
	Depth         int          `json:"depth"`
	Kind          string       `json:"kind"`
	Edges         []TreeVisEdge `json:"edges,omitempty"`
}

// TreeVisEdge labels one child edge with the action that produced it and,
// when a Lookahead has been run over the tree, the average strategy for
// that action (one weight per hand, indexed like Range).
type TreeVisEdge struct {
	Action   string    `json:"action"`
	Amount   float64   `json:"amount"`
	Strategy []float64 `json:"strategy,omitempty"`
	Child    *TreeVisNode `json:"child"`
}

// BuildTreeVis converts t into a TreeVisNode tree rooted at t.Root(). If
// lh is non-nil, every inner node's edges are labelled with lh's average
// strategy row for that action; pass nil to serialise structure only.
func BuildTreeVis(t *Tree, lh *Lookahead) *TreeVisNode {
	return buildTreeVisNode(t, lh, 0, 0)
}

func buildTreeVisNode(t *Tree, lh *Lookahead, nodeIdx int, depth int) *TreeVisNode {
	node := &t.Nodes[nodeIdx]
	board := make([]int, len(node.Board))
	for i, c := range node.Board {
		board[i] = int(c)
	}

	vis := &TreeVisNode{
		CurrentPlayer: node.CurrentPlayer,
		Bets:          node.Bets,
		Street:        node.Street,
		Board:         board,
		Depth:         depth,
		Kind:          node.Kind.String(),
	}

	var strategy [][]float64
	if lh != nil && node.Kind == NodeInner {
		strategy = lh.nodeAverageStrategy(nodeIdx)
	}

	vis.Edges = make([]TreeVisEdge, len(node.Children))
	for i, child := range node.Children {
		edge := TreeVisEdge{
			Action: actionName(node.Actions[i].Kind),
			Amount: node.Actions[i].Amount,
			Child:  buildTreeVisNode(t, lh, child, depth+1),
		}
		if strategy != nil {
			edge.Strategy = strategy[i]
		}
		vis.Edges[i] = edge
	}
	return vis
}

// SaveTreeVis writes vis to path as indented JSON, following
// Blueprint.Save's os.Create + json.Encoder pattern.
func SaveTreeVis(vis *TreeVisNode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(vis)
}

// LoadTreeVis reads a previously saved tree visualisation from path.
func LoadTreeVis(path string) (*TreeVisNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vis TreeVisNode
	if err := json.NewDecoder(f).Decode(&vis); err != nil {
		return nil, err
	}
	return &vis, nil
}
