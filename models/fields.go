package models

// Column names of the Traders in Financial Futures history files.
const (
	FieldMarketName   = "Market_and_Exchange_Names"
	FieldReportDate   = "Report_Date_as_YYYY-MM-DD"
	FieldOpenInterest = "Open_Interest_All"

	FieldPctDealerLong     = "Pct_of_OI_Dealer_Long_All"
	FieldPctDealerShort    = "Pct_of_OI_Dealer_Short_All"
	FieldPctAssetMgrLong   = "Pct_of_OI_Asset_Mgr_Long_All"
	FieldPctAssetMgrShort  = "Pct_of_OI_Asset_Mgr_Short_All"
	FieldPctLevMoneyLong   = "Pct_of_OI_Lev_Money_Long_All"
	FieldPctLevMoneyShort  = "Pct_of_OI_Lev_Money_Short_All"
	FieldPctOtherReptLong  = "Pct_of_OI_Other_Rept_Long_All"
	FieldPctOtherReptShort = "Pct_of_OI_Other_Rept_Short_All"
	FieldPctNonReptLong    = "Pct_of_OI_NonRept_Long_All"
	FieldPctNonReptShort   = "Pct_of_OI_NonRept_Short_All"

	FieldChgDealerLong     = "Change_in_Dealer_Long_All"
	FieldChgDealerShort    = "Change_in_Dealer_Short_All"
	FieldChgAssetMgrLong   = "Change_in_Asset_Mgr_Long_All"
	FieldChgAssetMgrShort  = "Change_in_Asset_Mgr_Short_All"
	FieldChgLevMoneyLong   = "Change_in_Lev_Money_Long_All"
	FieldChgLevMoneyShort  = "Change_in_Lev_Money_Short_All"
	FieldChgOtherReptLong  = "Change_in_Other_Rept_Long_All"
	FieldChgOtherReptShort = "Change_in_Other_Rept_Short_All"
	FieldChgNonReptLong    = "Change_in_NonRept_Long_All"
	FieldChgNonReptShort   = "Change_in_NonRept_Short_All"
)

// NumericFields are the columns coerced to numbers for every snapshot.
var NumericFields = []string{
	FieldPctDealerLong, FieldPctDealerShort,
	FieldPctAssetMgrLong, FieldPctAssetMgrShort,
	FieldPctLevMoneyLong, FieldPctLevMoneyShort,
	FieldPctOtherReptLong, FieldPctOtherReptShort,
	FieldPctNonReptLong, FieldPctNonReptShort,
	FieldChgDealerLong, FieldChgDealerShort,
	FieldChgAssetMgrLong, FieldChgAssetMgrShort,
	FieldChgLevMoneyLong, FieldChgLevMoneyShort,
	FieldChgOtherReptLong, FieldChgOtherReptShort,
	FieldChgNonReptLong, FieldChgNonReptShort,
	FieldOpenInterest,
}
