package merchants

import "github.com/andresuchdata/platform-analytics/internal/normalize"

const (
	FieldID               normalize.Field = "merchant_id"
	FieldLegalName        normalize.Field = "legal_name"
	FieldDBAName          normalize.Field = "dba_name"
	FieldAccountStatus    normalize.Field = "account_status"
	FieldRegistrationDate normalize.Field = "registration_date"
	FieldMTDVolume        normalize.Field = "mtd_volume"
	FieldLastMonthVolume  normalize.Field = "last_month_volume"
	FieldMCCDescription   normalize.Field = "mcc_description"
	FieldPCICompliance    normalize.Field = "pci_compliance"
)

// Rules maps merchant master headers onto canonical fields. The master
// export labels the merchant number "Customer ID".
var Rules = []normalize.Rule{
	{Field: FieldID, Match: normalize.Equals("customer id", "merchant id", "merchant_id", "mid")},
	{Field: FieldLegalName, Match: normalize.Contains("legal business name", "legal name")},
	{Field: FieldDBAName, Match: normalize.ContainsAll("dba", "name")},
	{Field: FieldAccountStatus, Match: normalize.Contains("account status")},
	{Field: FieldRegistrationDate, Match: normalize.Contains("registration date")},
	{Field: FieldMTDVolume, Match: normalize.Contains("mtd volume")},
	{Field: FieldLastMonthVolume, Match: normalize.Contains("last month volume")},
	{Field: FieldMCCDescription, Match: normalize.Contains("mcc description")},
	{Field: FieldPCICompliance, Match: normalize.Contains("pci compliance")},
}
