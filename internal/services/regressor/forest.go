package regressor

import (
	"context"
	"fmt"

	"ReValue/internal/domain/models"
	domsvc "ReValue/internal/domain/service"
)

// Node is one node of a regression tree. Split nodes send x[Feature] <= Threshold
// to Left and everything else to Right.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest averages the output of its trees.
type Forest struct {
	name  string
	trees []Tree
	n     int
}

// NewForest validates tree structure against nFeatures. Children must come
// after their parent so evaluation always terminates.
func NewForest(name string, trees []Tree, nFeatures int) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for ti, t := range trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= nFeatures {
				return nil, fmt.Errorf("%w: tree %d node %d uses feature %d of %d", ErrInvalidArtifact, ti, ni, n.Feature, nFeatures)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return nil, fmt.Errorf("%w: tree %d node %d has bad children", ErrInvalidArtifact, ti, ni)
			}
		}
	}
	if name == "" {
		name = "Random Forest Regressor"
	}
	return &Forest{name: name, trees: trees, n: nFeatures}, nil
}

func (f *Forest) Name() string { return f.name }

func (f *Forest) Predict(_ context.Context, v models.FeatureVector) (float64, error) {
	if v.Len() != f.n {
		return 0, fmt.Errorf("forest expects %d features, got %d", f.n, v.Len())
	}
	x := v.Values()
	sum := 0.0
	for _, t := range f.trees {
		sum += t.eval(x)
	}
	return sum / float64(len(f.trees)), nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

var _ domsvc.Regressor = (*Forest)(nil)
