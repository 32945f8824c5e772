package nodes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/italolelis/fetch_nodes/internal/node"
)

const (
	PrintStatusID = "PrintStatusNode"

	InputStatus   = "status"
	DefaultStatus = "No status available"
)

// PrintStatusNode writes its status input verbatim, followed by a newline.
type PrintStatusNode struct {
	out io.Writer
}

// NewPrintStatusNode writes to out, or to os.Stdout when out is nil.
func NewPrintStatusNode(out io.Writer) *PrintStatusNode {
	if out == nil {
		out = os.Stdout
	}

	return &PrintStatusNode{out: out}
}

func (n *PrintStatusNode) Definition() node.Definition {
	return node.Definition{
		ID:          PrintStatusID,
		DisplayName: "Print Status Node",
		Category:    "File Operations",
		Description: "Prints a status string to standard output.",
		Required: []node.Input{
			{Name: InputStatus, Type: node.TypeString, Default: DefaultStatus},
		},
		ReturnTypes: []node.InputType{},
		ReturnNames: []string{},
		OutputNode:  true,
	}
}

func (n *PrintStatusNode) Execute(_ context.Context, in node.Inputs) (node.Outputs, error) {
	if _, err := fmt.Fprintln(n.out, in.String(InputStatus)); err != nil {
		return nil, fmt.Errorf("failed to print status: %w", err)
	}

	return nil, nil
}
