package order

import "github.com/gofrs/uuid"

// HistoryWindowWeeks is the trailing window used for consumption averages.
const HistoryWindowWeeks = 8

// LineTotals reduces one order's lines to quantity per item.
func LineTotals(o Order) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int, len(o.Items))
	for _, line := range o.Items {
		totals[line.ItemID] += line.Quantity
	}
	return totals
}

// GlobalTotals sums line quantities per item across all given orders,
// whatever their status. Summation order does not matter.
func GlobalTotals(orders []Order) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int)
	for _, o := range orders {
		for _, line := range o.Items {
			totals[line.ItemID] += line.Quantity
		}
	}
	return totals
}

// StockSufficient reports whether stock covers the aggregated demand.
// Purely informational: insufficiency never blocks submission or validation.
func StockSufficient(stockQuantity, totalDemand int) bool {
	return stockQuantity >= totalDemand
}

// ConsumptionLine is one validated order line inside the history window.
type ConsumptionLine struct {
	ItemID   uuid.UUID `db:"item_id"`
	Quantity int       `db:"quantity"`
}

// WeeklyAverages computes average weekly consumption per item over the
// given window. The divisor is the full window size: weeks with no
// validated demand still count, so the figure underestimates rather than
// inflates.
func WeeklyAverages(lines []ConsumptionLine, windowWeeks int) map[uuid.UUID]float64 {
	if windowWeeks <= 0 {
		return map[uuid.UUID]float64{}
	}

	totals := make(map[uuid.UUID]int)
	for _, line := range lines {
		totals[line.ItemID] += line.Quantity
	}

	averages := make(map[uuid.UUID]float64, len(totals))
	for itemID, total := range totals {
		averages[itemID] = float64(total) / float64(windowWeeks)
	}
	return averages
}
