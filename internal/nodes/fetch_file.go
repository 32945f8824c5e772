package nodes

import (
	"context"
	"time"

	"github.com/italolelis/fetch_nodes/internal/fetch"
	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/italolelis/fetch_nodes/internal/node"
	"github.com/italolelis/fetch_nodes/internal/notifier"
	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
)

const (
	FetchFileID = "FetchFileNode"

	InputURL        = "url"
	InputOutputPath = "output_path"
	InputOverwrite  = "overwrite_local_file_if_exists"
)

// FetchFileNode fetches a file from a URL and saves it under the fetcher's base directory.
type FetchFileNode struct {
	fetcher   *fetch.Fetcher
	history   storage.FetchRepository
	notifier  notifier.Notifier
	telemetry *telemetry.Telemetry
}

func NewFetchFileNode(f *fetch.Fetcher, history storage.FetchRepository, n notifier.Notifier, t *telemetry.Telemetry) *FetchFileNode {
	if n == nil {
		n = notifier.Nop{}
	}

	return &FetchFileNode{fetcher: f, history: history, notifier: n, telemetry: t}
}

func (n *FetchFileNode) Definition() node.Definition {
	return node.Definition{
		ID:          FetchFileID,
		DisplayName: "Fetch File Node",
		Category:    "File Operations",
		Description: "Fetches a file from a URL and saves it to the output path.",
		Required: []node.Input{
			{Name: InputURL, Type: node.TypeString, Default: fetch.DefaultURL},
			{Name: InputOutputPath, Type: node.TypeString, Default: fetch.DefaultOutputPath},
		},
		Optional: []node.Input{
			{Name: InputOverwrite, Type: node.TypeBoolean, Default: false},
		},
		ReturnTypes: []node.InputType{node.TypeString},
		ReturnNames: []string{"status"},
		OutputNode:  true,
	}
}

// Execute always succeeds; failures are reported through the status output.
func (n *FetchFileNode) Execute(ctx context.Context, in node.Inputs) (node.Outputs, error) {
	req := fetch.Request{
		URL:        in.String(InputURL),
		OutputPath: in.String(InputOutputPath),
		Overwrite:  in.Bool(InputOverwrite),
	}

	res := n.fetcher.Fetch(ctx, req)

	n.telemetry.RecordFetch(string(res.Outcome), res.Bytes)
	n.record(ctx, req, res)

	if res.Outcome == fetch.OutcomeFailed {
		if err := n.notifier.Notify(ctx, "❌ Fetch failed for "+req.URL+": "+res.Status); err != nil {
			logctx.LoggerFromContext(ctx).WarnContext(ctx, "failed to send notification", "err", err)
		}
	}

	return node.Outputs{res.Status}, nil
}

func (n *FetchFileNode) record(ctx context.Context, req fetch.Request, res fetch.Result) {
	if n.history == nil {
		return
	}

	err := n.history.RecordFetch(ctx, storage.FetchRecord{
		URL:       req.URL,
		FilePath:  res.Path,
		Outcome:   string(res.Outcome),
		Status:    res.Status,
		Bytes:     res.Bytes,
		FetchedAt: time.Now(),
	})
	if err != nil {
		logctx.LoggerFromContext(ctx).WarnContext(ctx, "failed to record fetch", "err", err)
	}
}
