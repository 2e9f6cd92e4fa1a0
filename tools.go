package main

// tools.go — MCP tool registration wiring each tool name to its handler.

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rocq-mcp/rocq-mcp/internal/rocq"
)

// Tool argument types.

type fileArg struct {
	File string `json:"file" jsonschema:"path to the .v file"`
}

type execArg struct {
	File string `json:"file" jsonschema:"path to the .v file"`
	N    int    `json:"n" jsonschema:"number of steps to advance (negative to rewind)"`
}

type addStepArg struct {
	File       string `json:"file" jsonschema:"path to the .v file"`
	AfterIndex int    `json:"after_index" jsonschema:"insert after this step index, -1 for before the first step"`
	Text       string `json:"text" jsonschema:"the new step's source text, a single terminated sentence"`
}

type deleteStepArg struct {
	File  string `json:"file" jsonschema:"path to the .v file"`
	Index int    `json:"index" jsonschema:"the step index to remove"`
}

type editArg struct {
	Kind       string `json:"kind" jsonschema:"'add' or 'delete'"`
	AfterIndex int    `json:"after_index,omitempty" jsonschema:"for 'add': insert after this step index"`
	Index      int    `json:"index,omitempty" jsonschema:"for 'delete': the step index to remove"`
	Text       string `json:"text,omitempty" jsonschema:"for 'add': the new step's source text"`
}

type changeStepsArg struct {
	File  string    `json:"file" jsonschema:"path to the .v file"`
	Edits []editArg `json:"edits" jsonschema:"ordered list of add/delete edits, addressed against the file's step indices before this batch"`
}

func toEngineEdits(edits []editArg) ([]rocq.Edit, error) {
	out := make([]rocq.Edit, 0, len(edits))
	for i, e := range edits {
		switch e.Kind {
		case "add":
			out = append(out, rocq.Edit{Kind: rocq.EditAdd, AfterIndex: e.AfterIndex, Text: e.Text})
		case "delete":
			out = append(out, rocq.Edit{Kind: rocq.EditDelete, Index: e.Index})
		default:
			return nil, fmt.Errorf("edits[%d]: unknown kind %q, want \"add\" or \"delete\"", i, e.Kind)
		}
	}
	return out, nil
}

// registerTools registers all MCP tools on the server.
func registerTools(server *mcp.Server, sm *rocq.StateManager) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_open",
		Description: "Open a .v file against a fresh Rocq language server session. Must be called before any other operation on the file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		if err := sm.Open(ctx, args.File); err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("Opened " + args.File), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_close",
		Description: "Close a .v file and shut down its language server session.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		if err := sm.Close(ctx, args.File); err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("Closed " + args.File), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_steps",
		Description: "List every sentence in the file, in document order, with its source text and range. The sentence classification is not included.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		steps, err := sm.Steps(args.File)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		res, err := rocq.JSONResult(steps)
		return res, nil, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_proofs",
		Description: "List every proof fully completed up to the current execution cursor, with goal state attached to each step.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		proofs, err := sm.Proofs(args.File)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		res, err := rocq.JSONResult(proofs)
		return res, nil, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_open_proofs",
		Description: "List every proof currently in progress at the execution cursor (opened, not yet closed).",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		proofs, err := sm.OpenProofs(args.File)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		res, err := rocq.JSONResult(proofs)
		return res, nil, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_context",
		Description: "Return the file's accumulated symbol table: every term, alias, and notation seen so far.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		fc, err := sm.Context(args.File)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		res, err := rocq.JSONResult(fc)
		return res, nil, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_diagnostics",
		Description: "Return the language server's current diagnostics (errors/warnings) for the file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args fileArg) (*mcp.CallToolResult, any, error) {
		diags, err := sm.Diagnostics(args.File)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		res, err := rocq.JSONResult(diags)
		return res, nil, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_exec",
		Description: "Move the execution cursor by n steps (negative rewinds). Only changes which proofs rocq_proofs/rocq_open_proofs report; does not touch the server.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args execArg) (*mcp.CallToolResult, any, error) {
		if err := sm.Exec(args.File, args.N); err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("ok"), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_add_step",
		Description: "Insert one new sentence inside a proof (between its opener and its closer), after the given step index. Rolled back automatically if it breaks the file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args addStepArg) (*mcp.CallToolResult, any, error) {
		id, err := sm.AddStep(ctx, args.File, args.AfterIndex, args.Text)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("applied edit " + id), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_delete_step",
		Description: "Remove one step from inside a proof (its opener up to, not including, its closer). Rolled back automatically if it breaks the file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args deleteStepArg) (*mcp.CallToolResult, any, error) {
		id, err := sm.DeleteStep(ctx, args.File, args.Index)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("applied edit " + id), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rocq_change_steps",
		Description: "Apply an ordered batch of add/delete edits anywhere in the file, including outside any proof. Rolled back automatically as one unit if it breaks the file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args changeStepsArg) (*mcp.CallToolResult, any, error) {
		edits, err := toEngineEdits(args.Edits)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		id, err := sm.ChangeSteps(ctx, args.File, edits)
		if err != nil {
			return rocq.ErrResult(err), nil, nil
		}
		return rocq.TextResult("applied edit " + id), nil, nil
	})
}
