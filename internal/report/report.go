// Package report renders trades and scan candidates as console tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Trades prints one row per trade record followed by a summary line.
func Trades(w io.Writer, recs []model.TradeRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Time", "Event", "Side", "Bet On", "Price", "Model", "Market", "Edge", "EV", "Mode", "Order")

	live, staked := 0, 0
	for i, r := range recs {
		mode := "dry"
		if !r.DryRun {
			mode = "live"
			live++
		}
		staked += r.Order.PriceCents * r.Order.Count

		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Timestamp.UTC().Format(time.DateTime),
			r.EventTicker,
			strings.ToUpper(string(r.Side)),
			r.BetOnPlayer,
			fmt.Sprintf("%dc", r.Order.PriceCents),
			percent(r.ModelProbability),
			percent(r.MarketProbability),
			percent(r.Edge),
			fmt.Sprintf("%+.3f", r.ExpectedValue),
			mode,
			r.Order.OrderID,
		)
	}
	table.Render()

	fmt.Fprintf(w, "  %d trades (%d live, %d dry run), $%.2f staked\n",
		len(recs), live, len(recs)-live, float64(staked)/100)
}

// Candidates prints the tradable analyses of one scan, in the given order.
func Candidates(w io.Writer, analyses []model.Analysis) {
	if len(analyses) == 0 {
		fmt.Fprintln(w, "no candidates")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Event", "Match", "Side", "Bet On", "Model", "Market", "Value", "EV", "Volume", "Starts")

	for i, a := range analyses {
		starts := "-"
		if a.StartTime != nil {
			starts = a.StartTime.UTC().Format("01-02 15:04")
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			a.EventTicker,
			a.Player1+" v "+a.Player2,
			strings.ToUpper(string(a.TradeSide)),
			a.BetOnPlayer,
			percent(a.ModelProbability),
			percent(a.MarketProbability),
			percent(a.TradeValue),
			fmt.Sprintf("%+.3f", a.ExpectedValue),
			fmt.Sprintf("%.0f", a.MarketVolume),
			starts,
		)
	}
	table.Render()
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
