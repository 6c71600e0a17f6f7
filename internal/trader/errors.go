package trader

import "errors"

// PlaceTrade rejections.
var (
	ErrNotTradable      = errors.New("analysis is not tradable")
	ErrNoEventID        = errors.New("cannot derive event id")
	ErrAlreadyTraded    = errors.New("event already traded")
	ErrLivePosition     = errors.New("live position exists")
	ErrNoTiming         = errors.New("no start time available")
	ErrMatchStarted     = errors.New("match already started")
	ErrTooSoon          = errors.New("too soon")
	ErrNoPrice          = errors.New("no ask price")
	ErrPriceOutOfBounds = errors.New("ask price out of bounds")
)

// Loop lifecycle errors.
var (
	ErrLoopRunning = errors.New("trading loop already running")
	ErrStopTimeout = errors.New("trading loop did not stop in time")
)

// rejectionReason maps an error to a short metrics label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotTradable):
		return "not_tradable"
	case errors.Is(err, ErrNoEventID):
		return "no_event_id"
	case errors.Is(err, ErrAlreadyTraded):
		return "already_traded"
	case errors.Is(err, ErrLivePosition):
		return "live_position"
	case errors.Is(err, ErrNoTiming):
		return "no_timing"
	case errors.Is(err, ErrMatchStarted):
		return "match_started"
	case errors.Is(err, ErrTooSoon):
		return "too_soon"
	case errors.Is(err, ErrNoPrice):
		return "no_price"
	case errors.Is(err, ErrPriceOutOfBounds):
		return "price_out_of_bounds"
	}
	return "submit_failed"
}
