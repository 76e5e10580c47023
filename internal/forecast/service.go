package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PredictLens/internal/calculator"
	"PredictLens/internal/collector"
	"PredictLens/internal/model"
)

// Options configure one forecast run.
type Options struct {
	Ticker         string
	Horizon        int
	HistoryDays    int
	TestRatio      float64
	BaselineWindow int
}

// Service runs the single-model forecast pipeline.
type Service struct {
	collector *collector.Collector
	regressor Regressor
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a forecast Service. A nil regressor means OLS.
func NewService(col *collector.Collector, reg Regressor, logger *zap.Logger) *Service {
	if reg == nil {
		reg = OLS{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{collector: col, regressor: reg, logger: logger, now: time.Now}
}

// Run fetches history, fits the regressor on the training split, scores it on
// the test split and predicts the next Horizon closes.
func (s *Service) Run(ctx context.Context, opts Options) (*model.ForecastResult, error) {
	if opts.Ticker == "" {
		return nil, errors.New("ticker is required")
	}
	if opts.Horizon < MinHorizon || opts.Horizon > MaxHorizon {
		return nil, fmt.Errorf("%d: %w", opts.Horizon, ErrHorizonOutOfRange)
	}

	hist, err := s.collector.Collect(ctx, opts.Ticker, opts.HistoryDays)
	if err != nil {
		return nil, err
	}
	return s.Fit(hist, opts)
}

// Fit runs every stage after the fetch on an already collected history.
func (s *Service) Fit(hist *model.PriceHistory, opts Options) (*model.ForecastResult, error) {
	feats, err := BuildFeatures(hist.Bars, opts.Horizon)
	if err != nil {
		return nil, err
	}
	split, err := SplitChronological(feats.Samples, opts.TestRatio)
	if err != nil {
		return nil, err
	}

	trainX, trainY := xy(split.Train)
	m, err := s.regressor.Fit(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	res := &model.ForecastResult{
		RunID:          uuid.NewString(),
		Ticker:         hist.Ticker,
		Horizon:        opts.Horizon,
		TrainSize:      len(split.Train),
		TestSize:       len(split.Test),
		BaselineWindow: opts.BaselineWindow,
		History:        hist.Bars,
		GeneratedAt:    s.now().UTC(),
	}
	if lm, ok := m.(calculator.LinearModel); ok {
		res.Slope, res.Intercept = lm.Slope, lm.Intercept
	}

	testX, testY := xy(split.Test)
	preds := make([]float64, len(testX))
	for i, x := range testX {
		preds[i] = m.Predict(x)
		res.TestFit = append(res.TestFit, model.FitPoint{Date: split.Test[i].Date, Actual: testY[i], Predicted: preds[i]})
	}
	if res.Test, err = scoreTest(testY, preds); err != nil {
		return nil, err
	}
	res.BaselineMAE = baselineMAE(hist.Closes(), split.Test, opts.BaselineWindow)

	high, low, err := calculator.CalculateRange(hist.Bars, 0)
	if err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}
	last := hist.Bars[len(hist.Bars)-1]
	pos, err := calculator.CalculatePosition(last.Close, high, low)
	if err != nil {
		s.logger.Warn("range position unavailable", zap.String("ticker", hist.Ticker), zap.Error(err))
		pos = 0.5
	}
	res.Summary = model.PriceSummary{LastClose: last.Close, High: high, Low: low, Position: pos}
	if rsi, err := calculator.CalculateRSI(hist.Closes(), calculator.RSIPeriod); err == nil {
		res.Summary.RSI14 = &rsi
	}

	dates := NextWeekdays(last.Time, opts.Horizon)
	for i, x := range feats.Inputs {
		res.Forecast = append(res.Forecast, model.ForecastPoint{Date: dates[i], Price: m.Predict(x)})
	}

	s.logger.Info("forecast complete",
		zap.String("run_id", res.RunID),
		zap.String("ticker", res.Ticker),
		zap.Int("horizon", res.Horizon),
		zap.Int("train", res.TrainSize),
		zap.Int("test", res.TestSize),
		zap.Float64("test_mae", res.Test.MAE),
		zap.Float64("r2", res.Test.R2))
	return res, nil
}

func scoreTest(actual, predicted []float64) (model.RegressionMetrics, error) {
	var m model.RegressionMetrics
	var err error
	if m.MAE, err = calculator.MeanAbsoluteError(actual, predicted); err != nil {
		return m, fmt.Errorf("test mae: %w", err)
	}
	if m.RMSE, err = calculator.RootMeanSquaredError(actual, predicted); err != nil {
		return m, fmt.Errorf("test rmse: %w", err)
	}
	if m.R2, err = calculator.RSquared(actual, predicted); err != nil {
		return m, fmt.Errorf("test r2: %w", err)
	}
	if mape, _, err := calculator.MeanAbsolutePercentageError(actual, predicted); err == nil {
		m.MAPE = &mape
	}
	return m, nil
}

// baselineMAE scores a flat moving-average forecast: the SMA of the window
// closes ending at the sample's input bar predicts its target. Samples without
// a full window are skipped.
func baselineMAE(closes []float64, test []Sample, window int) *float64 {
	if window <= 0 {
		return nil
	}
	sma, err := calculator.RollingSMA(closes, window)
	if err != nil {
		return nil
	}
	var actual, predicted []float64
	for _, s := range test {
		if s.Index < window-1 {
			continue
		}
		actual = append(actual, s.Y)
		predicted = append(predicted, sma[s.Index-window+1])
	}
	mae, err := calculator.MeanAbsoluteError(actual, predicted)
	if err != nil {
		return nil
	}
	return &mae
}
