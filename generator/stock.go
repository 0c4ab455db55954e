package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"
)

// ModuleStock is the registry name of the stock market data module.
const ModuleStock = "stock"

const (
	// DefaultStockDrift is the default drift term of the price walk.
	DefaultStockDrift = 0.0001

	// DefaultStockVolatility is the default volatility of the price walk.
	DefaultStockVolatility = 0.01

	// stockTimeStep is one simulation step expressed in trading years.
	stockTimeStep = 1.0 / 252.0

	// baseSpreadFraction is the base bid/ask spread as a fraction of price.
	baseSpreadFraction = 0.001

	// extraSpreadFraction is the upper bound of the random spread component.
	extraSpreadFraction = 0.001

	// baseTradeVolume is the minimum volume added per price update.
	baseTradeVolume = 1000

	// tradeVolumeJitter is the upper bound of the random volume component.
	tradeVolumeJitter = 500
)

// StockConfig contains stock module parameters.
type StockConfig struct {
	// Drift is the drift term (mu) of the geometric Brownian motion.
	Drift float64

	// Volatility is the volatility term (sigma) of the geometric
	// Brownian motion, per simulation step.
	Volatility float64
}

// stockRecord is a single market data update for one instrument.
type stockRecord struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Volume     uint64  `json:"volume"`
	Timestamp  int64   `json:"timestamp"`
}

// StockInstance simulates one instrument. Prices follow a geometric
// Brownian motion:
//
//	S(t+dt) = S(t) * exp((mu - 0.5*sigma^2)*dt + sigma*sqrt(dt)*epsilon)
//
// with a bid/ask spread tracking the price and a cumulative trade
// volume. All randomness comes from the instance's seeded stream.
type StockInstance struct {
	variant    int
	id         string
	drift      float64
	volatility float64

	price  float64
	bid    float64
	ask    float64
	volume uint64

	rng *rand.Rand
	now func() time.Time
}

// NewStockInstances creates one stock instance per variant.
func NewStockInstances(cfg Config) ([]Instance, error) {
	if cfg.Variants < 1 {
		return nil, fmt.Errorf("variants must be 1 or greater, got %d", cfg.Variants)
	}
	if cfg.Stock.Volatility < 0 {
		return nil, fmt.Errorf("volatility cannot be negative, got %v", cfg.Stock.Volatility)
	}

	instances := make([]Instance, 0, cfg.Variants)
	for i := 0; i < cfg.Variants; i++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i))) // #nosec G404

		// Initial price in the 100..200 range with a small spread.
		price := 100 + rng.Float64()*100
		spread := price * (baseSpreadFraction + rng.Float64()*baseSpreadFraction)

		instances = append(instances, &StockInstance{
			variant:    i,
			id:         fmt.Sprintf("STK%d", i),
			drift:      cfg.Stock.Drift,
			volatility: cfg.Stock.Volatility,
			price:      price,
			bid:        price - spread,
			ask:        price + spread,
			rng:        rng,
			now:        time.Now,
		})
	}

	return instances, nil
}

// Generate advances the instrument by one simulation step and returns
// the updated market data as a JSON record.
func (s *StockInstance) Generate() (Record, error) {
	epsilon := s.rng.NormFloat64()
	factor := math.Exp((s.drift-0.5*s.volatility*s.volatility)*stockTimeStep +
		s.volatility*math.Sqrt(stockTimeStep)*epsilon)
	s.price = math.Max(s.price*factor, 0.01)

	spreadFraction := baseSpreadFraction + s.rng.Float64()*extraSpreadFraction
	spread := s.price * spreadFraction
	s.bid = s.price - spread
	s.ask = s.price + spread

	s.volume += uint64(baseTradeVolume + s.rng.Intn(tradeVolumeJitter)) // #nosec G404

	payload, err := json.Marshal(stockRecord{
		Instrument: s.id,
		Price:      s.price,
		Bid:        s.bid,
		Ask:        s.ask,
		Volume:     s.volume,
		Timestamp:  s.now().Unix(),
	})
	if err != nil {
		return Record{}, fmt.Errorf("marshal stock record: %w", err)
	}

	return Record{Module: ModuleStock, Variant: s.variant, Payload: payload}, nil
}

// Dump returns the current instrument state without mutating it.
func (s *StockInstance) Dump() Snapshot {
	return Snapshot{
		Variant: s.variant,
		Columns: []string{"id", "price", "bid", "ask", "volume"},
		Values: []string{
			s.id,
			fmt.Sprintf("%.2f", s.price),
			fmt.Sprintf("%.2f", s.bid),
			fmt.Sprintf("%.2f", s.ask),
			fmt.Sprintf("%d", s.volume),
		},
	}
}
