package node

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateNode = errors.New("node already registered")
)

// Registry maps stable node ids to their implementation and display label.
// It is filled once at startup and only read afterwards.
type Registry struct {
	mu           sync.RWMutex
	nodes        map[string]Node
	displayNames map[string]string
	telemetry    *telemetry.Telemetry
}

func NewRegistry(t *telemetry.Telemetry) *Registry {
	return &Registry{
		nodes:        make(map[string]Node),
		displayNames: make(map[string]string),
		telemetry:    t,
	}
}

// Register adds n under its definition id. The definition's display name, if
// any, is registered alongside it.
func (r *Registry) Register(n Node) error {
	def := n.Definition()
	if def.ID == "" {
		return fmt.Errorf("failed to register node: empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[def.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, def.ID)
	}

	r.nodes[def.ID] = n

	if def.DisplayName != "" {
		r.displayNames[def.ID] = def.DisplayName
	}

	return nil
}

// SetDisplayName labels id. The id does not need a registered node.
func (r *Registry) SetDisplayName(id, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.displayNames[id] = label
}

func (r *Registry) Lookup(id string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]

	return n, ok
}

// ClassMappings returns a copy of the id to node mapping.
func (r *Registry) ClassMappings() map[string]Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Node, len(r.nodes))
	for id, n := range r.nodes {
		out[id] = n
	}

	return out
}

// DisplayNameMappings returns a copy of the id to display label mapping.
func (r *Registry) DisplayNameMappings() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.displayNames))
	for id, label := range r.displayNames {
		out[id] = label
	}

	return out
}

// Definitions returns the definitions of all registered nodes sorted by id.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.nodes))
	for _, n := range r.nodes {
		defs = append(defs, n.Definition())
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs
}

// Execute validates in against the node's definition and runs it.
func (r *Registry) Execute(ctx context.Context, id string, in Inputs) (Outputs, error) {
	n, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	def := n.Definition()

	validated, err := def.Validate(in)
	if err != nil {
		return nil, err
	}

	logger := logctx.LoggerFromContext(ctx).With("node_id", id)
	ctx = logctx.WithLogger(ctx, logger)

	start := time.Now()

	var out Outputs

	err = r.telemetry.InstrumentNodeExecution(ctx, id, func(ctx context.Context) error {
		var execErr error
		out, execErr = n.Execute(ctx, validated)

		return execErr
	})
	if err != nil {
		logger.ErrorContext(ctx, "node execution failed", "err", err)

		return nil, fmt.Errorf("failed to execute node %s: %w", id, err)
	}

	logger.DebugContext(ctx, "node executed", "duration", time.Since(start).String())

	return out, nil
}
