// Package toolloop mediates the tool-invocation contract between a chat model and
// locally registered tools.
//
// # Overview
//
// A model cannot call Go code; it can only ask for it. This package turns such a
// request into a concrete call: resolve the tool → coerce and validate the arguments
// against the declared schema → invoke once → feed the result (or a description of
// the failure) back to the model as an observation → ask the model again.
//
// Pipeline: ToolSpec (or typed function) → NewTool / NewTypedTool → Registry →
// Mediator.Run (model turn, Registry.Execute per tool call, observations) → Result.
//
// # Key concepts
//
//   - Explicit declaration: every tool carries an ordered parameter list that drives
//     both the JSON Schema sent to the model and the coercion of incoming payloads.
//   - Recoverable failures: unknown tools, bad arguments and failing HTTP calls become
//     "error: ..." observations so the model can retry; see WithFailFast to opt out.
//   - Bounded loop: WithMaxIterations caps the number of model turns.
//
// # Example
//
//	tool, err := toolloop.NewTool(toolloop.ToolSpec{
//	    Name:        "get_close",
//	    Description: "Closing price of a stock on a date",
//	    Params: []toolloop.Param{
//	        {Name: "ticker", Kind: toolloop.KindString},
//	        {Name: "date", Kind: toolloop.KindString, Description: "YYYY-MM-DD"},
//	    },
//	    Invoke: func(ctx context.Context, a toolloop.Args) (any, error) {
//	        return quotes.Close(ctx, a.String("ticker"), a.String("date"))
//	    },
//	})
//	if err != nil { ... }
//	reg := toolloop.NewRegistry()
//	if err := reg.Register(tool); err != nil { ... }
//	res, err := toolloop.NewMediator(model, reg).Ask(ctx, "What did AAPL close at on 2024-12-10?")
package toolloop
