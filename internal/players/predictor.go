package players

import (
	"context"
	"math"
)

// EloPredictor is a logistic model over the rating gap, nudged by form and
// head-to-head record.
type EloPredictor struct {
	SurfaceWeight float64 // Share of the gap taken from surface Elo
	FormWeight    float64 // Elo points per unit of recent win-rate diff
	H2HWeight     float64 // Elo points per unit of h2h diff
	Scale         float64 // Logistic scale, 400 for classic Elo
}

// NewEloPredictor returns a predictor with standard weights.
func NewEloPredictor() *EloPredictor {
	return &EloPredictor{
		SurfaceWeight: 0.5,
		FormWeight:    100,
		H2HWeight:     50,
		Scale:         400,
	}
}

// Predict returns P(player one wins).
func (p *EloPredictor) Predict(ctx context.Context, f Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	gap := (1-p.SurfaceWeight)*f.EloDiff + p.SurfaceWeight*f.SurfaceEloDiff +
		p.FormWeight*f.RecentWinRateDiff + p.H2HWeight*f.H2HWinRateDiff
	if f.BestOf5 {
		// Longer matches favor the stronger player.
		gap *= 1.15
	}
	scale := p.Scale
	if scale <= 0 {
		scale = 400
	}
	return 1 / (1 + math.Pow(10, -gap/scale)), nil
}
