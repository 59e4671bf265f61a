package storage

// CandidateColumns is the canonical export schema, in column order. Display
// labels are looked up per locale so presentation language never forks the
// core records.
var CandidateColumns = []string{
	"listing_name",
	"listing_id",
	"trade_type",
	"sale_won",
	"floor_info",
	"gross_area",
	"net_area",
	"direction",
	"feature",
	"registered",
	"agency_name",
	"agent_name",
	"phone1",
	"phone2",
	"lease_period_years",
	"lease_max_won",
	"lease_min_won",
	"prev_lease_won",
	"gap_won",
	"gap_ratio",
}

// FieldLabels maps canonical column keys to display labels.
type FieldLabels map[string]string

var koLabels = FieldLabels{
	"listing_name":       "매물명",
	"listing_id":         "매물번호",
	"trade_type":         "거래유형",
	"sale_won":           "매매 금액(원)",
	"floor_info":         "층수",
	"gross_area":         "면적(㎡)",
	"net_area":           "전용면적",
	"direction":          "방향",
	"feature":            "특징",
	"registered":         "등록일",
	"agency_name":        "부동산상호",
	"agent_name":         "중개사이름",
	"phone1":             "전화1",
	"phone2":             "전화2",
	"lease_period_years": "전세_기간(년)",
	"lease_max_won":      "전세_기간내_최고(원)",
	"lease_min_won":      "전세_기간내_최저(원)",
	"prev_lease_won":     "기전세금(원)",
	"gap_won":            "갭금액(원)",
	"gap_ratio":          "갭비율",
}

var enLabels = FieldLabels{
	"listing_name":       "listing_name",
	"listing_id":         "listing_id",
	"trade_type":         "trade_type",
	"sale_won":           "sale_won",
	"floor_info":         "floor_info",
	"gross_area":         "gross_area_m2",
	"net_area":           "net_area_m2",
	"direction":          "direction",
	"feature":            "feature",
	"registered":         "registered_ymd",
	"agency_name":        "agency_name",
	"agent_name":         "agent_name",
	"phone1":             "phone1",
	"phone2":             "phone2",
	"lease_period_years": "lease_period_years",
	"lease_max_won":      "lease_max_won",
	"lease_min_won":      "lease_min_won",
	"prev_lease_won":     "prev_lease_won",
	"gap_won":            "gap_won",
	"gap_ratio":          "gap_ratio",
}

// LabelsFor returns the label table for the locale ("ko" or "en");
// unknown locales fall back to Korean.
func LabelsFor(locale string) FieldLabels {
	if locale == "en" {
		return enLabels
	}
	return koLabels
}

// Header renders the column headers in canonical order; a key missing from
// the table falls back to the key itself.
func (f FieldLabels) Header() []string {
	header := make([]string, len(CandidateColumns))
	for i, key := range CandidateColumns {
		if label, ok := f[key]; ok {
			header[i] = label
		} else {
			header[i] = key
		}
	}
	return header
}
