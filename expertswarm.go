// Package expertswarm provides a high-level façade over the swarm engine and
// its supporting services (selection, retrieval, memory, credentials and
// logging) enabling rapid construction of a multi-expert reasoning system.
// Most applications interact with this package by:
//  1. Creating an ExpertSwarm via New() with a model (optionally overriding
//     default in-memory services)
//  2. Handling user queries via Handle()
//
// The façade delegates query orchestration to coordinator.Coordinator while
// keeping setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically configure the
// retrieval gateway, OAuth credentials and a structured logger.
package expertswarm

import (
	"context"
	"fmt"

	"github.com/hupe1980/expertswarm/behavior"
	"github.com/hupe1980/expertswarm/config"
	"github.com/hupe1980/expertswarm/coordinator"
	"github.com/hupe1980/expertswarm/core"
	"github.com/hupe1980/expertswarm/logging"
	"github.com/hupe1980/expertswarm/memory"
	"github.com/hupe1980/expertswarm/model"
	"github.com/hupe1980/expertswarm/retrieval"
	"github.com/hupe1980/expertswarm/retrieval/gateway"
	"github.com/hupe1980/expertswarm/selector"
	"github.com/hupe1980/expertswarm/swarm"
	"github.com/hupe1980/expertswarm/token"
)

// Options configures the ExpertSwarm instance.
type Options struct {
	// Config supplies budgets, selection bounds, gateway endpoints, memory
	// settings and the expert roster. Nil uses config.Default(); call
	// config.Load() to read the YAML file plus environment first.
	Config *config.Config

	// Model powers specialist turns, direct answers and, unless an Oracle
	// is supplied, participant selection. Required.
	Model model.Model

	// Oracle proposes participants per query. Defaults to a model-backed
	// oracle over Model.
	Oracle core.SelectionOracle

	// Retriever serves knowledge-base lookups. Defaults to a gateway client
	// when Config.Gateway.URL is set, otherwise to a static retriever that
	// answers every domain with a placeholder.
	Retriever retrieval.Retriever

	// MemoryStore persists conversation records across sessions. Defaults to
	// an in-memory store when Config.Memory.Enabled is true.
	MemoryStore memory.Store

	// Tokens is the shared credential cache for the retrieval gateway.
	// Defaults to a client-credentials cache when Config.Gateway has a token
	// endpoint.
	Tokens *token.Cache

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ExpertSwarm is the high-level façade aggregating the coordinator and the
// services behind it.
type ExpertSwarm struct {
	opts        Options
	coordinator *coordinator.Coordinator
	engine      *swarm.Engine
	roster      core.Roster
}

// New creates a new ExpertSwarm instance with optional overrides. Any unset
// service is initialized from the configuration, falling back to in-memory
// implementations.
func New(optFns ...func(o *Options)) (*ExpertSwarm, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("expertswarm: a model is required")
	}

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := swarm.New(func(o *swarm.Options) {
		o.Config = swarm.Config{
			MaxHandoffs:      cfg.Swarm.MaxHandoffs,
			MaxIterations:    cfg.Swarm.MaxIterations,
			NodeTimeout:      cfg.Swarm.NodeTimeout,
			ExecutionTimeout: cfg.Swarm.ExecutionTimeout,
		}
		o.Logger = opts.Logger
	})

	specialist := behavior.NewModelBehavior(opts.Model, func(o *behavior.Options) {
		o.Logger = opts.Logger
	})
	for _, expert := range cfg.Roster {
		engine.Register(expert.ID, specialist)
	}

	oracle := opts.Oracle
	if oracle == nil {
		oracle = selector.NewModelOracle(opts.Model)
	}

	sel := selector.New(oracle, func(o *selector.Options) {
		o.MinExperts = cfg.Selector.MinExperts
		o.MaxExperts = cfg.Selector.MaxExperts
		o.Logger = opts.Logger
	})

	tokens := opts.Tokens
	if tokens == nil && cfg.Gateway.TokenEndpoint != "" {
		source := token.NewClientCredentialsSource(
			cfg.Gateway.TokenEndpoint,
			cfg.Gateway.ClientID,
			cfg.Gateway.ClientSecret,
			func(o *token.ClientCredentialsOptions) {
				o.Scope = cfg.Gateway.Scope
			},
		)
		tokens = token.NewCache(source, func(o *token.CacheOptions) {
			o.Logger = opts.Logger
		})
	}

	retriever := opts.Retriever
	if retriever == nil {
		if cfg.Gateway.URL != "" {
			retriever = gateway.New(cfg.Gateway.URL, tokens)
		} else {
			retriever = retrieval.Static{}
		}
	}

	var adapter *memory.Adapter
	if cfg.Memory.Enabled {
		store := opts.MemoryStore
		if store == nil {
			store = memory.NewInMemoryStore()
		}
		adapter = memory.NewAdapter(store, func(o *memory.AdapterOptions) {
			o.RecallLimit = cfg.Memory.RecallLimit
			o.Logger = opts.Logger
		})
	}

	coord := coordinator.New(engine, sel, cfg.Roster, retriever, func(o *coordinator.Options) {
		o.Memory = adapter
		o.Tokens = tokens
		o.ToolTimeout = cfg.Swarm.ToolTimeout
		o.Direct = opts.Model
		o.Logger = opts.Logger
	})

	return &ExpertSwarm{
		opts:        opts,
		coordinator: coord,
		engine:      engine,
		roster:      cfg.Roster,
	}, nil
}

// Handle routes one user query through the coordinator pipeline and returns
// the structured response. Safe for concurrent use.
func (s *ExpertSwarm) Handle(ctx context.Context, req coordinator.Request) (*coordinator.Response, error) {
	return s.coordinator.Handle(ctx, req)
}

// Roster returns the configured expert team.
func (s *ExpertSwarm) Roster() core.Roster {
	return s.roster
}

// Register replaces the behavior driving the given expert. It allows mixing
// model-backed specialists with custom implementations on one roster.
func (s *ExpertSwarm) Register(expertID string, b core.SpecialistBehavior) {
	s.engine.Register(expertID, b)
}
