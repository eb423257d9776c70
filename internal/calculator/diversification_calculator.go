package calculator

import (
	"math"
	"sort"

	"portfolio-analytics-api/internal/models"
)

const defaultTopHoldingsLimit = 5

// DiversificationCalculator scores how spread out a portfolio is across
// individual positions and sectors, and produces the allocation breakdowns
// that go into the analysis snapshot.
type DiversificationCalculator struct {
	topHoldingsLimit int
}

// NewDiversificationCalculator creates a diversification calculator. A limit
// of 0 falls back to the default top-holdings count.
func NewDiversificationCalculator(topHoldingsLimit int) *DiversificationCalculator {
	if topHoldingsLimit <= 0 {
		topHoldingsLimit = defaultTopHoldingsLimit
	}
	return &DiversificationCalculator{topHoldingsLimit: topHoldingsLimit}
}

// Score computes the composite diversification score in [0, 100]:
// 0.4 × stock concentration + 0.4 × sector spread + 0.2 × holding count.
// Zero holdings or zero total value score 0.
func (dc *DiversificationCalculator) Score(holdings []models.HoldingSnapshot) int {
	if len(holdings) == 0 {
		return 0
	}
	total := totalValue(holdings)
	if total == 0 {
		return 0
	}

	stockScore := dc.stockConcentrationScore(holdings, total)
	sectorScore := dc.sectorScore(holdings, total)
	countScore := dc.holdingsCountScore(len(holdings))

	return int(math.Round(stockScore*0.4 + sectorScore*0.4 + countScore*0.2))
}

// stockConcentrationScore penalizes a large single-position weight.
func (dc *DiversificationCalculator) stockConcentrationScore(holdings []models.HoldingSnapshot, total float64) float64 {
	maxWeight := 0.0
	for _, h := range holdings {
		weight := h.CurrentValue.InexactFloat64() / total * 100
		if weight > maxWeight {
			maxWeight = weight
		}
	}

	switch {
	case maxWeight > 30:
		return 0
	case maxWeight > 25:
		return 40
	case maxWeight > 20:
		return 60
	case maxWeight > 15:
		return 80
	default:
		return 100
	}
}

// sectorScore starts at 100 and deducts for sector dominance and a low
// sector count.
func (dc *DiversificationCalculator) sectorScore(holdings []models.HoldingSnapshot, total float64) float64 {
	sectorWeights := make(map[string]float64)
	for _, h := range holdings {
		sectorWeights[sectorName(h)] += h.CurrentValue.InexactFloat64() / total * 100
	}

	maxSector := 0.0
	for _, weight := range sectorWeights {
		if weight > maxSector {
			maxSector = weight
		}
	}

	score := 100.0
	switch {
	case maxSector > 50:
		score -= 50
	case maxSector > 40:
		score -= 30
	case maxSector > 30:
		score -= 15
	}

	switch numSectors := len(sectorWeights); {
	case numSectors >= 5:
		// no deduction
	case numSectors >= 3:
		score -= 10
	case numSectors == 2:
		score -= 30
	default:
		score -= 50
	}

	return clampScore(score)
}

func (dc *DiversificationCalculator) holdingsCountScore(count int) float64 {
	switch {
	case count >= 15:
		return 100
	case count >= 10:
		return 90
	case count >= 7:
		return 75
	case count >= 5:
		return 60
	case count >= 3:
		return 40
	default:
		return 20
	}
}

// SectorAllocation returns the percentage of portfolio value per sector.
func (dc *DiversificationCalculator) SectorAllocation(holdings []models.HoldingSnapshot) map[string]float64 {
	allocation := make(map[string]float64)
	total := totalValue(holdings)
	if total == 0 {
		return allocation
	}

	for _, h := range holdings {
		allocation[sectorName(h)] += h.CurrentValue.InexactFloat64() / total * 100
	}
	for sector, weight := range allocation {
		allocation[sector] = round2(weight)
	}

	return allocation
}

// TopHoldings returns the largest positions by value with their weights.
func (dc *DiversificationCalculator) TopHoldings(holdings []models.HoldingSnapshot) []models.TopHolding {
	total := totalValue(holdings)
	if total == 0 {
		return []models.TopHolding{}
	}

	sorted := sortedByValue(holdings)
	limit := dc.topHoldingsLimit
	if limit > len(sorted) {
		limit = len(sorted)
	}

	top := make([]models.TopHolding, 0, limit)
	for _, h := range sorted[:limit] {
		value := h.CurrentValue.InexactFloat64()
		top = append(top, models.TopHolding{
			Symbol: h.Symbol,
			Name:   h.Name,
			Weight: round2(value / total * 100),
			Value:  value,
		})
	}

	return top
}

// Concentration summarizes top-1 weight, top-5 weight and holding count.
func (dc *DiversificationCalculator) Concentration(holdings []models.HoldingSnapshot) models.ConcentrationData {
	total := totalValue(holdings)
	if total == 0 {
		return models.ConcentrationData{}
	}

	sorted := sortedByValue(holdings)

	top1 := sorted[0].CurrentValue.InexactFloat64() / total * 100

	top5Value := 0.0
	for i, h := range sorted {
		if i >= 5 {
			break
		}
		top5Value += h.CurrentValue.InexactFloat64()
	}

	return models.ConcentrationData{
		Top1Weight:    round2(top1),
		Top5Weight:    round2(top5Value / total * 100),
		HoldingsCount: len(sorted),
	}
}

func totalValue(holdings []models.HoldingSnapshot) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.CurrentValue.InexactFloat64()
	}
	return total
}

func sortedByValue(holdings []models.HoldingSnapshot) []models.HoldingSnapshot {
	sorted := make([]models.HoldingSnapshot, len(holdings))
	copy(sorted, holdings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CurrentValue.GreaterThan(sorted[j].CurrentValue)
	})
	return sorted
}

func sectorName(h models.HoldingSnapshot) string {
	if h.Sector == "" {
		return "Unknown"
	}
	return h.Sector
}
