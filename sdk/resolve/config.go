package resolve

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// GameParams are the process-wide game constants of spec §6, collected into
// one value passed by reference into builders (spec §9 "Global
// configuration"). No process-wide singletons exist beyond this value.
type GameParams struct {
	Ante           float64
	Stack          float64
	RankCount      int
	SuitCount      int
	BoardCardCount int
	StreetsCount   int
	PlayersCount   int
	BetSizing      []float64
	CFRIters       int
	CFRSkipIters   int
}

// CardCount returns R*S, the deck size.
func (p GameParams) CardCount() int { return p.RankCount * p.SuitCount }

// Validate enforces the precondition checks of spec §7.1. A violation here
// is a programmer error: fail fast, no recovery.
func (p GameParams) Validate() error {
	if p.RankCount <= 0 || p.SuitCount <= 0 {
		return fmt.Errorf("%w: rank_count and suit_count must be positive", ErrShapeMismatch)
	}
	if p.BoardCardCount < 0 || p.BoardCardCount >= p.CardCount() {
		return fmt.Errorf("%w: board_card_count out of range", ErrShapeMismatch)
	}
	if p.StreetsCount < 1 {
		return fmt.Errorf("%w: streets_count must be >= 1", ErrShapeMismatch)
	}
	if p.PlayersCount != 2 {
		return fmt.Errorf("%w: only 2-player games are supported (spec non-goal)", ErrShapeMismatch)
	}
	if p.Ante < 0 || p.Stack <= 0 || p.Ante > p.Stack {
		return fmt.Errorf("%w: 0 <= ante <= stack required", ErrShapeMismatch)
	}
	if p.CFRIters <= 0 {
		return fmt.Errorf("%w: cfr_iters must be positive", ErrIterationBudget)
	}
	if p.CFRSkipIters >= p.CFRIters {
		return ErrIterationBudget
	}
	for _, f := range p.BetSizing {
		if f <= 0 {
			return fmt.Errorf("%w: bet sizing fractions must be positive", ErrShapeMismatch)
		}
	}
	return nil
}

// DefaultGameParams returns the "simplest game" configuration used by the
// spec's convergence test (spec §8): R=3, S=2, board_card_count=1,
// ante=100, stack=1200, bet_sizing=[1.0], cfr_iters=1000,
// cfr_skip_iters=500.
func DefaultGameParams() GameParams {
	return GameParams{
		Ante:           100,
		Stack:          1200,
		RankCount:      3,
		SuitCount:      2,
		BoardCardCount: 1,
		StreetsCount:   2,
		PlayersCount:   2,
		BetSizing:      []float64{1.0},
		CFRIters:       1000,
		CFRSkipIters:   500,
	}
}

// gameParamsFile is the HCL schema for loading GameParams from disk,
// following internal/server/config.go's gohcl decode pattern.
type gameParamsFile struct {
	Ante           float64   `hcl:"ante"`
	Stack          float64   `hcl:"stack"`
	RankCount      int       `hcl:"rank_count"`
	SuitCount      int       `hcl:"suit_count"`
	BoardCardCount int       `hcl:"board_card_count"`
	StreetsCount   int       `hcl:"streets_count"`
	PlayersCount   int       `hcl:"players_count,optional"`
	BetSizing      []float64 `hcl:"bet_sizing"`
	CFRIters       int       `hcl:"cfr_iters"`
	CFRSkipIters   int       `hcl:"cfr_skip_iters"`
}

// LoadGameParams loads GameParams from an HCL file on disk, the way
// internal/server.LoadServerConfig loads a ServerConfig.
func LoadGameParams(filename string) (GameParams, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return GameParams{}, fmt.Errorf("read game params: %w", err)
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return GameParams{}, fmt.Errorf("parse game params: %s", diags.Error())
	}

	var raw gameParamsFile
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return GameParams{}, fmt.Errorf("decode game params: %s", diags.Error())
	}

	players := raw.PlayersCount
	if players == 0 {
		players = 2
	}

	p := GameParams{
		Ante:           raw.Ante,
		Stack:          raw.Stack,
		RankCount:      raw.RankCount,
		SuitCount:      raw.SuitCount,
		BoardCardCount: raw.BoardCardCount,
		StreetsCount:   raw.StreetsCount,
		PlayersCount:   players,
		BetSizing:      raw.BetSizing,
		CFRIters:       raw.CFRIters,
		CFRSkipIters:   raw.CFRSkipIters,
	}
	if err := p.Validate(); err != nil {
		return GameParams{}, err
	}
	return p, nil
}
