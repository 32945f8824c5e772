// Package nodes holds the node implementations shipped by this service.
package nodes

import (
	"fmt"
	"io"

	"github.com/italolelis/fetch_nodes/internal/fetch"
	"github.com/italolelis/fetch_nodes/internal/node"
	"github.com/italolelis/fetch_nodes/internal/notifier"
	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
)

// Deps are the collaborators shared by the nodes.
type Deps struct {
	Fetcher   *fetch.Fetcher
	History   storage.FetchRepository
	Notifier  notifier.Notifier
	Telemetry *telemetry.Telemetry
	Stdout    io.Writer
}

// Register adds every node to reg.
func Register(reg *node.Registry, deps Deps) error {
	all := []node.Node{
		NewFetchFileNode(deps.Fetcher, deps.History, deps.Notifier, deps.Telemetry),
		NewPrintStatusNode(deps.Stdout),
	}

	for _, n := range all {
		if err := reg.Register(n); err != nil {
			return fmt.Errorf("failed to register nodes: %w", err)
		}
	}

	return nil
}
