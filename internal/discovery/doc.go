// Package discovery decides which cached listings are head-to-head tennis
// match markets worth analyzing.
//
// Classify runs six ordered layers and stops at the first rejection:
//
//	series_category    soft hint from series ticker or category, never rejects
//	tennis_keywords    sport keywords present, other-sport keywords absent
//	match_structure    "A vs B" title without tournament-summary words
//	market_structure   open status with a derivable yes and no price
//	expiration_window  resolved start inside the trading window
//	liquidity          normalized volume at or above the minimum
//
// Rejection reasons read "layer:detail", e.g. "match_structure:no_vs".
// Classification is a pure function of its arguments.
package discovery
