package processor

import (
	"cotreport/logger"
	"cotreport/models"
)

// traderGroup names the columns published for one trader classification.
type traderGroup struct {
	longPct, shortPct string
	longChg, shortChg string
}

var (
	dealerGroup = traderGroup{
		models.FieldPctDealerLong, models.FieldPctDealerShort,
		models.FieldChgDealerLong, models.FieldChgDealerShort,
	}
	assetMgrGroup = traderGroup{
		models.FieldPctAssetMgrLong, models.FieldPctAssetMgrShort,
		models.FieldChgAssetMgrLong, models.FieldChgAssetMgrShort,
	}
	levMoneyGroup = traderGroup{
		models.FieldPctLevMoneyLong, models.FieldPctLevMoneyShort,
		models.FieldChgLevMoneyLong, models.FieldChgLevMoneyShort,
	}
	otherReptGroup = traderGroup{
		models.FieldPctOtherReptLong, models.FieldPctOtherReptShort,
		models.FieldChgOtherReptLong, models.FieldChgOtherReptShort,
	}
	nonReptGroup = traderGroup{
		models.FieldPctNonReptLong, models.FieldPctNonReptShort,
		models.FieldChgNonReptLong, models.FieldChgNonReptShort,
	}
)

// composition maps each reporting category onto the trader groups it sums.
var composition = map[models.Category][]traderGroup{
	models.Reportable:    {dealerGroup, assetMgrGroup, levMoneyGroup, otherReptGroup},
	models.NonCommercial: {assetMgrGroup, levMoneyGroup},
	models.Commercial:    {dealerGroup, otherReptGroup},
	models.NonReportable: {nonReptGroup},
}

// Aggregate converts the snapshot's percentage-of-open-interest columns into
// contract counts and sums them, with the weekly changes, per category.
// Any unavailable input yields an *models.IncompleteAggregationError.
func Aggregate(snap *models.ReportSnapshot) (models.CategoryTotals, error) {
	var totals models.CategoryTotals

	oi, ok := snap.OpenInterest().Value()
	if !ok {
		return totals, &models.IncompleteAggregationError{Category: models.Reportable, Field: models.FieldOpenInterest}
	}

	positions := make(map[models.Category]models.Position, len(models.Categories))
	for _, cat := range models.Categories {
		pos, err := sumGroups(snap, cat, composition[cat], oi)
		if err != nil {
			return models.CategoryTotals{}, err
		}
		positions[cat] = pos
	}

	totals = models.CategoryTotals{
		Reportable:    positions[models.Reportable],
		NonCommercial: positions[models.NonCommercial],
		Commercial:    positions[models.Commercial],
		NonReportable: positions[models.NonReportable],
	}

	logger.GetLogger().WithComponent("processor").WithFields(logger.Fields{
		"instrument":    snap.Instrument,
		"report_date":   snap.ReportDate,
		"open_interest": oi,
	}).Debug("categories aggregated")

	return totals, nil
}

// sumGroups adds the percentages of the groups first and scales the sum by
// open interest once. Changes are already contract counts.
func sumGroups(snap *models.ReportSnapshot, cat models.Category, groups []traderGroup, oi float64) (models.Position, error) {
	var pos models.Position
	var longPct, shortPct float64
	for _, g := range groups {
		values := make([]float64, 4)
		for i, field := range []string{g.longPct, g.shortPct, g.longChg, g.shortChg} {
			v, ok := snap.Field(field).Value()
			if !ok {
				return models.Position{}, &models.IncompleteAggregationError{Category: cat, Field: field}
			}
			values[i] = v
		}
		longPct += values[0]
		shortPct += values[1]
		pos.ChangeLong += values[2]
		pos.ChangeShort += values[3]
	}
	pos.Long = longPct * oi / 100
	pos.Short = shortPct * oi / 100
	return pos, nil
}
