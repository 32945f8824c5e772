package nodes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/italolelis/fetch_nodes/internal/fetch"
	"github.com/italolelis/fetch_nodes/internal/node"
	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/stretchr/testify/require"
)

type memoryHistory struct {
	mu      sync.Mutex
	records []storage.FetchRecord
}

func (m *memoryHistory) RecordFetch(_ context.Context, rec storage.FetchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)

	return nil
}

func (m *memoryHistory) GetFetches(context.Context, int) ([]storage.FetchRecord, error) {
	return m.records, nil
}

func (m *memoryHistory) GetSavedFetches(context.Context) ([]storage.FetchRecord, error) {
	return nil, nil
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(_ context.Context, content string) error {
	r.messages = append(r.messages, content)
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

type fixture struct {
	reg      *node.Registry
	base     string
	stdout   *bytes.Buffer
	history  *memoryHistory
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		reg:      node.NewRegistry(nil),
		base:     t.TempDir(),
		stdout:   &bytes.Buffer{},
		history:  &memoryHistory{},
		notifier: &recordingNotifier{},
	}

	require.NoError(t, Register(f.reg, Deps{
		Fetcher:  fetch.NewFetcher(f.base, nil),
		History:  f.history,
		Notifier: f.notifier,
		Stdout:   f.stdout,
	}))

	return f
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	classes := f.reg.ClassMappings()
	require.Len(t, classes, 2)
	require.IsType(t, &FetchFileNode{}, classes[FetchFileID])
	require.IsType(t, &PrintStatusNode{}, classes[PrintStatusID])

	require.Equal(t, map[string]string{
		"FetchFileNode":   "Fetch File Node",
		"PrintStatusNode": "Print Status Node",
	}, f.reg.DisplayNameMappings())

	require.Error(t, Register(f.reg, Deps{}))
}

func TestFetchFileNode_Definition(t *testing.T) {
	def := NewFetchFileNode(fetch.NewFetcher("", nil), nil, nil, nil).Definition()

	require.Equal(t, "File Operations", def.Category)
	require.True(t, def.OutputNode)
	require.Equal(t, []string{"status"}, def.ReturnNames)
	require.Equal(t, []node.InputType{node.TypeString}, def.ReturnTypes)

	require.Len(t, def.Required, 2)
	require.Equal(t, "https://example.com/file.txt", def.Required[0].Default)
	require.Equal(t, "output/file.txt", def.Required[1].Default)
	require.False(t, def.Required[0].Multiline)

	require.Len(t, def.Optional, 1)
	require.Equal(t, InputOverwrite, def.Optional[0].Name)
	require.Equal(t, false, def.Optional[0].Default)
}

func TestFetchFileNode_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := newFixture(t)
	ctx := context.Background()

	out, err := f.reg.Execute(ctx, FetchFileID, node.Inputs{InputURL: srv.URL + "/file.txt", InputOutputPath: "output/file.txt"})
	require.NoError(t, err)
	require.Equal(t, node.Outputs{"File fetched and saved successfully"}, out)

	got, err := os.ReadFile(filepath.Join(f.base, "output", "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	out, err = f.reg.Execute(ctx, FetchFileID, node.Inputs{InputURL: srv.URL + "/file.txt", InputOutputPath: "output/file.txt"})
	require.NoError(t, err)
	require.Equal(t, node.Outputs{"File already exists"}, out)

	out, err = f.reg.Execute(ctx, FetchFileID, node.Inputs{InputURL: srv.URL + "/missing", InputOutputPath: "output/other.txt"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, strings.HasPrefix(out[0].(string), "Error: 404 Client Error"), out[0])

	require.Len(t, f.history.records, 3)
	require.Equal(t, "saved", f.history.records[0].Outcome)
	require.EqualValues(t, len("payload"), f.history.records[0].Bytes)
	require.Equal(t, "exists", f.history.records[1].Outcome)
	require.Equal(t, "failed", f.history.records[2].Outcome)

	require.Len(t, f.notifier.messages, 1)
	require.Contains(t, f.notifier.messages[0], srv.URL+"/missing")
}

func TestPrintStatusNode_WritesStatusLine(t *testing.T) {
	f := newFixture(t)

	out, err := f.reg.Execute(context.Background(), PrintStatusID, node.Inputs{InputStatus: "Done"})
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, "Done\n", f.stdout.String())
}

func TestPrintStatusNode_DefaultStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.Execute(context.Background(), PrintStatusID, nil)
	require.NoError(t, err)
	require.Equal(t, "No status available\n", f.stdout.String())
}

func TestPrintStatusNode_WriteErrorPropagates(t *testing.T) {
	n := NewPrintStatusNode(failingWriter{})

	_, err := n.Execute(context.Background(), node.Inputs{InputStatus: "Done"})
	require.ErrorContains(t, err, "stdout closed")
}
