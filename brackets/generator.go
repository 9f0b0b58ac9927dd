package brackets

import (
	"context"
)

type GenerateBracketParams struct {
	Run *Run
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}
