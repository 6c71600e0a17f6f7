package api

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// DollarsToCents converts a dollar string to whole cents, rounding half up.
// "0.52" -> 52, "0.5260" -> 53. Returns 0 for empty or invalid input.
func DollarsToCents(dollars string) int {
	dollars = strings.TrimSpace(dollars)
	if dollars == "" {
		return 0
	}

	f, err := strconv.ParseFloat(dollars, 64)
	if err != nil || f < 0 {
		return 0
	}

	return int(f*100 + 0.5)
}

// ParseTime parses an ISO 8601 timestamp into UTC. Timestamps without a
// zone are taken as UTC. Returns nil for empty or invalid input.
func ParseTime(iso string) *time.Time {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, iso); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// EventTickerFromTicker derives the event ticker by dropping the last
// dash-separated segment: "KXATPMATCH-26JAN03NAVTHO-THO" -> "KXATPMATCH-26JAN03NAVTHO".
func EventTickerFromTicker(ticker string) string {
	i := strings.LastIndexByte(ticker, '-')
	if i <= 0 {
		return ""
	}
	return ticker[:i]
}

// cents prefers the integer field and falls back to the dollar string.
func cents(c int, dollars string) int {
	if c > 0 {
		return c
	}
	return DollarsToCents(dollars)
}

// Timing extracts the timing fields Kalshi sent for this market.
func (m *APIMarket) Timing() model.Timing {
	expiration := ParseTime(m.ExpirationTime)
	if expiration == nil {
		expiration = ParseTime(m.LatestExpirationTime)
	}
	return model.Timing{
		MatchStart:         ParseTime(m.MatchStartTime),
		Start:              ParseTime(m.StartTime),
		Scheduled:          ParseTime(m.ScheduledTime),
		ExpectedStart:      ParseTime(m.ExpectedStartTime),
		ExpectedExpiration: ParseTime(m.ExpectedExpirationTime),
		Expiration:         expiration,
		Close:              ParseTime(m.CloseTime),
		EventClose:         ParseTime(m.EventCloseTime),
	}
}

// ToListing converts an APIMarket to model.Listing. Series fields are left
// for the caller, which knows which series the market was fetched under.
func (m *APIMarket) ToListing() model.Listing {
	eventTicker := m.EventTicker
	if eventTicker == "" {
		eventTicker = EventTickerFromTicker(m.Ticker)
	}
	return model.Listing{
		Ticker:       m.Ticker,
		EventTicker:  eventTicker,
		Title:        m.Title,
		Subtitle:     m.Subtitle,
		YesSubtitle:  m.YesSubTitle,
		Status:       strings.ToLower(m.Status),
		YesBid:       cents(m.YesBid, m.YesBidDollars),
		YesAsk:       cents(m.YesAsk, m.YesAskDollars),
		NoBid:        cents(m.NoBid, m.NoBidDollars),
		NoAsk:        cents(m.NoAsk, m.NoAskDollars),
		LastPrice:    cents(m.LastPrice, m.LastPriceDollars),
		Volume:       m.Volume,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
		Timing:       m.Timing(),
	}
}

// ToModel converts the orderbook to model.Orderbook, dropping malformed
// levels. Kalshi lists bids ascending; the model keeps the best bid first.
func (o *OrderbookResponse) ToModel() *model.Orderbook {
	convert := func(levels [][]int) [][2]int {
		out := make([][2]int, 0, len(levels))
		for _, level := range levels {
			if len(level) >= 2 {
				out = append(out, [2]int{level[0], level[1]})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i][0] > out[j][0] })
		return out
	}
	return &model.Orderbook{
		Yes: convert(o.Orderbook.Yes),
		No:  convert(o.Orderbook.No),
	}
}

// ToModel converts a market position to model.Position.
func (p *APIMarketPosition) ToModel() model.Position {
	return model.Position{
		Ticker:        p.Ticker,
		EventTicker:   EventTickerFromTicker(p.Ticker),
		Contracts:     p.Position,
		RestingOrders: p.RestingOrdersCount,
	}
}

// ToModel converts an order to model.Order.
func (o *APIOrder) ToModel() model.Order {
	side := model.TradeSide(strings.ToLower(o.Side))
	price := o.YesPrice
	if side == model.SideNo {
		price = o.NoPrice
	}
	return model.Order{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Ticker:        o.Ticker,
		Side:          side,
		Action:        o.Action,
		Count:         o.InitialCount,
		PriceCents:    price,
		Status:        o.Status,
	}
}

// ToModel converts a fill to model.Fill.
func (f *APIFill) ToModel() model.Fill {
	fill := model.Fill{
		TradeID:     f.TradeID,
		OrderID:     f.OrderID,
		Ticker:      f.Ticker,
		EventTicker: EventTickerFromTicker(f.Ticker),
		Side:        model.TradeSide(strings.ToLower(f.Side)),
		Action:      f.Action,
		Count:       f.Count,
	}
	if t := ParseTime(f.CreatedTime); t != nil {
		fill.CreatedAt = *t
	}
	return fill
}
