package model

import "time"

// -----------------------------------------------------------------------------
// Market Data
// -----------------------------------------------------------------------------

// Timing holds the optional timing fields Kalshi may report for a match.
// A nil field means upstream did not send it.
type Timing struct {
	MatchStart         *time.Time `json:"match_start_time,omitempty"`         // Explicit match start
	Start              *time.Time `json:"start_time,omitempty"`               // Generic start time
	Scheduled          *time.Time `json:"scheduled_time,omitempty"`           // Scheduled start
	ExpectedStart      *time.Time `json:"expected_start_time,omitempty"`      // Expected start
	ExpectedExpiration *time.Time `json:"expected_expiration_time,omitempty"` // Expected settlement
	Expiration         *time.Time `json:"expiration_time,omitempty"`          // Latest expiration
	Close              *time.Time `json:"close_time,omitempty"`               // Trading close
	EventClose         *time.Time `json:"event_close_time,omitempty"`         // Event-level close
}

// IsZero reports whether no timing field is set.
func (t Timing) IsZero() bool {
	return t.MatchStart == nil && t.Start == nil && t.Scheduled == nil && t.ExpectedStart == nil &&
		t.ExpectedExpiration == nil && t.Expiration == nil && t.Close == nil && t.EventClose == nil
}

// Merge fills fields missing from t with values from other.
func (t Timing) Merge(other Timing) Timing {
	pick := func(a, b *time.Time) *time.Time {
		if a != nil {
			return a
		}
		return b
	}
	return Timing{
		MatchStart:         pick(t.MatchStart, other.MatchStart),
		Start:              pick(t.Start, other.Start),
		Scheduled:          pick(t.Scheduled, other.Scheduled),
		ExpectedStart:      pick(t.ExpectedStart, other.ExpectedStart),
		ExpectedExpiration: pick(t.ExpectedExpiration, other.ExpectedExpiration),
		Expiration:         pick(t.Expiration, other.Expiration),
		Close:              pick(t.Close, other.Close),
		EventClose:         pick(t.EventClose, other.EventClose),
	}
}

// Listing is one tradable Kalshi market as seen by a single poll.
type Listing struct {
	Ticker       string `json:"ticker"`        // e.g. "KXATPMATCH-26JAN03NAVTHO-THO"
	EventTicker  string `json:"event_ticker"`  // e.g. "KXATPMATCH-26JAN03NAVTHO"
	SeriesTicker string `json:"series_ticker"` // Series the listing was fetched under
	Category     string `json:"category"`      // Series category hint, may be empty
	SeriesTitle  string `json:"series_title"`  // Series title hint, may be empty
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	YesSubtitle  string `json:"yes_sub_title"`
	Status       string `json:"status"` // open, active, closed, settled, ...

	// Prices in cents (0-100); 0 means no quote
	YesBid    int `json:"yes_bid"`
	YesAsk    int `json:"yes_ask"`
	NoBid     int `json:"no_bid"`
	NoAsk     int `json:"no_ask"`
	LastPrice int `json:"last_price"`

	Volume       int64 `json:"volume"`
	Volume24h    int64 `json:"volume_24h"`
	OpenInterest int64 `json:"open_interest"`

	// Set when the orderbook enrichment ran for this listing
	Orderbook *Orderbook `json:"orderbook,omitempty"`

	Timing Timing `json:"timing"`
}

// Orderbook holds bid ladders as [price_cents, quantity] pairs, best first.
type Orderbook struct {
	Yes [][2]int `json:"yes"`
	No  [][2]int `json:"no"`
}

// BestYesAsk derives the best YES ask from the best NO bid (100 - no bid).
func (o *Orderbook) BestYesAsk() (int, bool) {
	if o == nil || len(o.No) == 0 {
		return 0, false
	}
	return 100 - o.No[0][0], true
}

// BestNoAsk derives the best NO ask from the best YES bid (100 - yes bid).
func (o *Orderbook) BestNoAsk() (int, bool) {
	if o == nil || len(o.Yes) == 0 {
		return 0, false
	}
	return 100 - o.Yes[0][0], true
}

// EventTiming is the per-event timing lookup, deduplicated across listings.
type EventTiming struct {
	EventTicker string `json:"event_ticker"`
	Timing
}

// Snapshot is one internally consistent view of the market, replaced atomically.
type Snapshot struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Listings    []Listing              `json:"listings"`
	EventTiming map[string]EventTiming `json:"event_timing"`
}

// Health describes cache freshness.
type Health struct {
	Status        string     `json:"status"` // healthy, stale, empty
	GeneratedAt   *time.Time `json:"generated_at"`
	AgeSeconds    float64    `json:"age_seconds"`
	PollingActive bool       `json:"polling_active"`
}

// -----------------------------------------------------------------------------
// Valuation
// -----------------------------------------------------------------------------

// TradeSide is the recommended contract side.
type TradeSide string

const (
	SideYes  TradeSide = "yes"
	SideNo   TradeSide = "no"
	SideNone TradeSide = "none"
)

// Analysis is the immutable valuation of one listing in one scan.
type Analysis struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`

	Player1     string `json:"player1"`      // Model player one (resolved)
	Player2     string `json:"player2"`      // Model player two (resolved)
	AskedPlayer string `json:"asked_player"` // Player the YES outcome is about
	BetOnPlayer string `json:"bet_on_player"`

	// Unadjusted P(player one wins); nil when the predictor never ran
	RawP1Wins *float64 `json:"raw_p1_wins,omitempty"`

	ModelProbability  float64   `json:"model_probability"`  // P(asked player wins)
	MarketProbability float64   `json:"market_probability"` // Market-implied P(asked player wins)
	Edge              float64   `json:"edge"`               // model - market, signed
	ExpectedValue     float64   `json:"expected_value"`     // Per unit staked on TradeSide
	TradeSide         TradeSide `json:"trade_side"`
	TradeValue        float64   `json:"trade_value"` // |edge|

	YesAsk       int        `json:"yes_ask"` // Cents, from the listing quote
	NoAsk        int        `json:"no_ask"`
	MarketVolume float64    `json:"market_volume"` // Normalized major units
	StartTime    *time.Time `json:"start_time,omitempty"`

	Tradable bool   `json:"tradable"`
	Reason   string `json:"reason"`
}

// FavoredPlayer returns the player the raw model probability favors.
func (a Analysis) FavoredPlayer() (string, bool) {
	if a.RawP1Wins == nil {
		return "", false
	}
	if *a.RawP1Wins >= 0.5 {
		return a.Player1, true
	}
	return a.Player2, true
}

// -----------------------------------------------------------------------------
// Trading
// -----------------------------------------------------------------------------

// Order is a submitted or simulated order.
type Order struct {
	OrderID       string    `json:"order_id"`
	ClientOrderID string    `json:"client_order_id"`
	Ticker        string    `json:"ticker"`
	Side          TradeSide `json:"side"`
	Action        string    `json:"action"`
	Count         int       `json:"count"`
	PriceCents    int       `json:"price_cents"`
	Status        string    `json:"status"`
}

// TradeRecord is the outcome of one successful PlaceTrade.
type TradeRecord struct {
	Ticker            string    `json:"ticker"`
	EventTicker       string    `json:"event_ticker"`
	Timestamp         time.Time `json:"timestamp"`
	DryRun            bool      `json:"dry_run"`
	Order             Order     `json:"order"`
	Player1           string    `json:"player1"`
	Player2           string    `json:"player2"`
	BetOnPlayer       string    `json:"bet_on_player"`
	Side              TradeSide `json:"side"`
	ModelProbability  float64   `json:"model_probability"` // P(bet-on player wins)
	MarketProbability float64   `json:"market_probability"`
	Edge              float64   `json:"edge"`
	ExpectedValue     float64   `json:"expected_value"`
}

// Position is a live holding in one market.
type Position struct {
	Ticker        string
	EventTicker   string
	Contracts     int // Signed: positive YES, negative NO
	RestingOrders int
}

// Fill is an executed order fill.
type Fill struct {
	TradeID     string
	OrderID     string
	Ticker      string
	EventTicker string
	Side        TradeSide
	Action      string
	Count       int
	CreatedAt   time.Time
}
