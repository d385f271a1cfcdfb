package http

import (
	"github.com/fyrsmithlabs/branchsim/internal/render"
	"github.com/fyrsmithlabs/branchsim/internal/simulation"
	"github.com/fyrsmithlabs/branchsim/internal/stats"
	"github.com/fyrsmithlabs/branchsim/internal/tree"
)

// ProcessRequest selects the process and randomness for a request. Fields
// left out take the server defaults.
type ProcessRequest struct {
	N          uint32 `json:"n" query:"n"`
	M          uint32 `json:"m" query:"m"`
	Strategy   string `json:"strategy" query:"strategy"`
	SampleSize uint   `json:"sample_size" query:"sample_size"`
}

// TreeRequest is the request body for POST /api/v1/trees.
type TreeRequest struct {
	ProcessRequest
	// Render adds the box-drawing view and generation rows.
	Render bool `json:"render" query:"render"`
}

// TreeResponse is the response body for POST /api/v1/trees.
type TreeResponse struct {
	Params      string            `json:"params"`
	Probability float64           `json:"probability"`
	Strategy    string            `json:"strategy"`
	Tree        tree.Measurements `json:"tree"`
	Encoding    string            `json:"encoding"`
	Generations []string          `json:"generations"`
	Rendering   string            `json:"rendering,omitempty"`
	Rolls       string            `json:"rolls,omitempty"`
}

// NewTreeResponse describes root as generated with s. rendered adds the
// uncoloured tree view and generation rows.
func NewTreeResponse(s simulation.Settings, root *tree.Node, rendered bool) TreeResponse {
	resp := TreeResponse{
		Params:      s.Params.String(),
		Probability: s.Params.Probability(),
		Strategy:    s.Strategy.String(),
		Tree:        tree.Measure(root),
		Encoding:    tree.Encode(root),
		Generations: tree.Generations(root),
	}
	if rendered {
		resp.Rendering = render.Tree(root)
		resp.Rolls = render.Rolls(root, render.NewPalette(false))
	}
	return resp
}

// StatsResponse is the response body for POST /api/v1/stats.
type StatsResponse struct {
	Params      string        `json:"params"`
	Probability float64       `json:"probability"`
	Strategy    string        `json:"strategy"`
	SampleSize  uint          `json:"sample_size"`
	Summary     stats.Summary `json:"summary"`
}

// NewStatsResponse wraps a sample summary produced with s.
func NewStatsResponse(s simulation.Settings, summary stats.Summary) StatsResponse {
	return StatsResponse{
		Params:      s.Params.String(),
		Probability: s.Params.Probability(),
		Strategy:    s.Strategy.String(),
		SampleSize:  s.SampleSize,
		Summary:     summary,
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
