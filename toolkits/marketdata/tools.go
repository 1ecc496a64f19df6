package marketdata

import (
	"context"
	"strconv"

	"github.com/skosovsky/toolloop"
)

// Tag marks every market data tool. Options passed by the caller come later and may
// replace it with toolloop.WithTags.
const Tag = "market-data"

func withDefaults(opts []toolloop.ToolOption) []toolloop.ToolOption {
	return append([]toolloop.ToolOption{toolloop.WithTags(Tag)}, opts...)
}

// CloseTool returns get_close, which answers with the bare closing price.
func CloseTool(c *Client, opts ...toolloop.ToolOption) (toolloop.Tool, error) {
	return toolloop.NewTool(toolloop.ToolSpec{
		Name:        "get_close",
		Description: "Get the closing price of a stock on a given trading day.",
		Params: []toolloop.Param{
			{Name: "ticker", Kind: toolloop.KindString, Description: "Stock ticker symbol, e.g. AAPL"},
			{Name: "date", Kind: toolloop.KindString, Description: "Trading day in YYYY-MM-DD format"},
		},
		Validate: func(args toolloop.Args) error {
			return checkDate(args.String("date"))
		},
		Invoke: func(ctx context.Context, args toolloop.Args) (any, error) {
			bar, err := c.OpenClose(ctx, args.String("ticker"), args.String("date"))
			if err != nil {
				return nil, err
			}
			return strconv.FormatFloat(bar.Close, 'f', -1, 64), nil
		},
	}, withDefaults(opts)...)
}

// OpenCloseArgs are the arguments of get_open_close.
type OpenCloseArgs struct {
	Ticker   string `json:"ticker" jsonschema:"Stock ticker symbol, e.g. AAPL"`
	Date     string `json:"date" jsonschema:"Trading day in YYYY-MM-DD format"`
	Adjusted *bool  `json:"adjusted,omitempty" jsonschema:"Adjust for splits (default true)"`
}

// Validate implements toolloop.Validatable.
func (a OpenCloseArgs) Validate() error {
	return checkDate(a.Date)
}

// OpenCloseTool returns get_open_close, which answers with the whole daily bar.
func OpenCloseTool(c *Client, opts ...toolloop.ToolOption) (toolloop.Tool, error) {
	return toolloop.NewTypedTool("get_open_close",
		"Get open, high, low, close and volume of a stock on a given trading day.",
		func(ctx context.Context, args OpenCloseArgs) (*Bar, error) {
			adjusted := true
			if args.Adjusted != nil {
				adjusted = *args.Adjusted
			}
			return c.DailyBar(ctx, args.Ticker, args.Date, adjusted)
		}, withDefaults(opts)...)
}

// Tools returns every market data tool backed by c.
func Tools(c *Client, opts ...toolloop.ToolOption) ([]toolloop.Tool, error) {
	closeTool, err := CloseTool(c, opts...)
	if err != nil {
		return nil, err
	}
	barTool, err := OpenCloseTool(c, opts...)
	if err != nil {
		return nil, err
	}
	return []toolloop.Tool{closeTool, barTool}, nil
}
