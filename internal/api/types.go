package api

// ExchangeStatusResponse from GET /exchange/status
type ExchangeStatusResponse struct {
	ExchangeActive      bool   `json:"exchange_active"`
	TradingActive       bool   `json:"trading_active"`
	EstimatedResumeTime string `json:"exchange_estimated_resume_time,omitempty"`
}

// MarketsResponse from GET /markets
type MarketsResponse struct {
	Markets []APIMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// APIMarket represents a market from the Kalshi API.
type APIMarket struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	YesSubTitle string `json:"yes_sub_title"`
	NoSubTitle  string `json:"no_sub_title"`
	Status      string `json:"status"`
	MarketType  string `json:"market_type"`

	// Prices in cents
	YesBid    int `json:"yes_bid"`
	YesAsk    int `json:"yes_ask"`
	NoBid     int `json:"no_bid"`
	NoAsk     int `json:"no_ask"`
	LastPrice int `json:"last_price"`

	// Prices as strings (sub-penny)
	YesBidDollars    string `json:"yes_bid_dollars"`
	YesAskDollars    string `json:"yes_ask_dollars"`
	NoBidDollars     string `json:"no_bid_dollars"`
	NoAskDollars     string `json:"no_ask_dollars"`
	LastPriceDollars string `json:"last_price_dollars"`

	// Volume
	Volume       int64 `json:"volume"`
	Volume24h    int64 `json:"volume_24h"`
	OpenInterest int64 `json:"open_interest"`

	// Timestamps (ISO 8601). Tennis markets rarely carry the start fields,
	// but they are honored first when present.
	MatchStartTime         string `json:"match_start_time"`
	StartTime              string `json:"start_time"`
	ScheduledTime          string `json:"scheduled_time"`
	ExpectedStartTime      string `json:"expected_start_time"`
	ExpectedExpirationTime string `json:"expected_expiration_time"`
	ExpirationTime         string `json:"expiration_time"`
	LatestExpirationTime   string `json:"latest_expiration_time"`
	CloseTime              string `json:"close_time"`
	EventCloseTime         string `json:"event_close_time"`
}

// SeriesResponse from GET /series/{series_ticker}
type SeriesResponse struct {
	Series APISeries `json:"series"`
}

// APISeries represents a series from the Kalshi API.
type APISeries struct {
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Frequency string   `json:"frequency"`
	Tags      []string `json:"tags"`
}

// OrderbookResponse from GET /markets/{ticker}/orderbook
type OrderbookResponse struct {
	Orderbook APIOrderbook `json:"orderbook"`
}

// APIOrderbook represents the orderbook from the Kalshi API.
type APIOrderbook struct {
	// Bid levels as [price_cents, quantity] pairs, ascending by price
	Yes [][]int `json:"yes"`
	No  [][]int `json:"no"`
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit        int
	Cursor       string
	EventTicker  string
	SeriesTicker string
	Tickers      []string
	Status       string
}

// -----------------------------------------------------------------------------
// Portfolio
// -----------------------------------------------------------------------------

// PositionsResponse from GET /portfolio/positions
type PositionsResponse struct {
	MarketPositions []APIMarketPosition `json:"market_positions"`
	EventPositions  []APIEventPosition  `json:"event_positions"`
	Cursor          string              `json:"cursor"`
}

// APIMarketPosition is a holding in a single market.
type APIMarketPosition struct {
	Ticker             string `json:"ticker"`
	Position           int    `json:"position"` // Positive YES, negative NO
	MarketExposure     int64  `json:"market_exposure"`
	RealizedPnl        int64  `json:"realized_pnl"`
	TotalTraded        int64  `json:"total_traded"`
	RestingOrdersCount int    `json:"resting_orders_count"`
}

// APIEventPosition aggregates exposure per event.
type APIEventPosition struct {
	EventTicker   string `json:"event_ticker"`
	EventExposure int64  `json:"event_exposure"`
	TotalCost     int64  `json:"total_cost"`
	RestingOrders int    `json:"resting_order_count"`
	RealizedPnl   int64  `json:"realized_pnl"`
}

// OrdersResponse from GET /portfolio/orders
type OrdersResponse struct {
	Orders []APIOrder `json:"orders"`
	Cursor string     `json:"cursor"`
}

// APIOrder is an order as reported by Kalshi.
type APIOrder struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Ticker        string `json:"ticker"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Type          string `json:"type"`
	Status        string `json:"status"` // resting, canceled, executed
	InitialCount  int    `json:"initial_count"`
	YesPrice      int    `json:"yes_price"`
	NoPrice       int    `json:"no_price"`
	CreatedTime   string `json:"created_time"`
}

// FillsResponse from GET /portfolio/fills
type FillsResponse struct {
	Fills  []APIFill `json:"fills"`
	Cursor string    `json:"cursor"`
}

// APIFill is one executed fill.
type APIFill struct {
	TradeID     string `json:"trade_id"`
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Action      string `json:"action"`
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	CreatedTime string `json:"created_time"`
}

// CreateOrderRequest is the body of POST /portfolio/orders.
type CreateOrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
}

// CreateOrderResponse from POST /portfolio/orders
type CreateOrderResponse struct {
	Order APIOrder `json:"order"`
}
