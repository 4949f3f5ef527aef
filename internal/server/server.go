package server

import (
	"fmt"

	"example.com/tigate/internal/common"
	"example.com/tigate/internal/rules"
)

const defaultMaxBodyBytes = 8 << 20

// Options configures server creation.
type Options struct {
	// RulePackPath points at a custom rule pack JSON document. Empty means
	// the built-in default pack.
	RulePackPath string
	// MaxBodyBytes caps the size of uploaded captures.
	MaxBodyBytes int64
}

// Server handles decode and validation requests over HTTP.
type Server struct {
	rulePack rules.RulePack
	maxBody  int64
	metrics  *common.Metrics
}

func NewServer(opts Options) (*Server, error) {
	rp := rules.DefaultRulePack()
	if opts.RulePackPath != "" {
		loaded, err := rules.LoadRulePack(opts.RulePackPath)
		if err != nil {
			return nil, fmt.Errorf("load rule pack: %w", err)
		}
		rp = loaded
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Server{
		rulePack: rp,
		maxBody:  maxBody,
		metrics:  common.NewMetrics(),
	}, nil
}

// Metrics exposes the server's counters, shared with the health endpoint.
func (s *Server) Metrics() *common.Metrics {
	return s.metrics
}

func (s *Server) newEngine() *rules.Engine {
	e := rules.NewEngine(s.rulePack)
	e.RegisterBuiltins()
	return e
}
