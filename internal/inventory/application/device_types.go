package application

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// StandardDeviceTypes is the catalogue of type names spreadsheets should use.
var StandardDeviceTypes = []string{
	"发电机组",
	"直流系统设备",
	"交、直流配电设备",
	"交流UPS主机",
	"高压配电设备",
	"中央空调主机",
	"机房专用精密空调（列间空调）",
	"普通空调",
	"太阳能光伏组件",
	"油机启动电池",
	"-48V直流系统2V阀控铅酸蓄电池",
	"UPS系统阀控式铅酸蓄电池",
	"操作电源2V、6V、12V阀控式铅酸蓄电池",
}

// Device type categories.
const (
	CategoryPowerSource = "power_source"
	CategoryStorage     = "storage"
	CategoryHVAC        = "hvac"
	CategoryOther       = "other"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryPowerSource, []string{"发电机组", "交流UPS主机", "高压配电设备", "交、直流配电设备", "直流系统设备", "太阳能光伏组件"}},
	{CategoryStorage, []string{"油机启动电池", "-48V直流系统2V阀控铅酸蓄电池", "UPS系统阀控式铅酸蓄电池", "操作电源2V、6V、12V阀控式铅酸蓄电池"}},
	{CategoryHVAC, []string{"中央空调主机", "机房专用精密空调（列间空调）", "普通空调"}},
}

// DeviceTypeCategory groups a free-text type by keyword containment.
func DeviceTypeCategory(deviceType string) string {
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(deviceType, keyword) {
				return group.category
			}
		}
	}
	return CategoryOther
}

// IsStandardDeviceType reports whether the type is in the catalogue.
func IsStandardDeviceType(deviceType string) bool {
	for _, standard := range StandardDeviceTypes {
		if standard == deviceType {
			return true
		}
	}
	return false
}

// SuggestDeviceTypes ranks catalogue entries against a partial input.
// An empty query returns the full catalogue.
func SuggestDeviceTypes(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return clip(append([]string(nil), StandardDeviceTypes...), limit)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, StandardDeviceTypes)
	sort.Sort(ranks)

	result := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		result = append(result, StandardDeviceTypes[rank.OriginalIndex])
	}
	return clip(result, limit)
}

func clip(values []string, limit int) []string {
	if limit > 0 && len(values) > limit {
		return values[:limit]
	}
	return values
}
