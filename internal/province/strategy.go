package province

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/cuba-rates/internal/exchange"
)

// Strategy names accepted by NewEstimator.
const (
	StrategyStatic = "static"
	StrategyVision = "vision"
)

// NewEstimator returns the estimator selected by strategy.
func NewEstimator(strategy string, extractor *VisionExtractor, log *zap.Logger) (exchange.Estimator, error) {
	switch strategy {
	case "", StrategyStatic:
		return NewStaticEstimator(), nil
	case StrategyVision:
		if extractor == nil {
			return nil, fmt.Errorf("vision strategy requires an extractor")
		}
		return NewVisionEstimator(extractor, log), nil
	default:
		return nil, fmt.Errorf("unknown province strategy %q", strategy)
	}
}
