package utils

import (
	"regexp"
	"strconv"
	"strings"

	"dicom-gateway-api/entities"
)

var lutExplanationRe = regexp.MustCompile(`^(.*?)(?:InCalibRange:\s*([0-9.\-]+))?\s*(?:OutLUTRange:\s*([0-9.\-]+))?$`)

// ParseLUTExplanation extracts the structured parts from a LUTExplanation
// tag value (0028,3003): a free-text description and the optional
// "InCalibRange: a-b" and "OutLUTRange: c-d" segments appended by
// calibration software.
func ParseLUTExplanation(raw string) entities.LUTExplanation {
	text := strings.TrimSpace(raw)
	ret := entities.LUTExplanation{FullText: raw}

	match := lutExplanationRe.FindStringSubmatch(text)
	if match == nil {
		ret.Explanation = text
		return ret
	}

	ret.Explanation = strings.TrimSpace(match[1])
	ret.InCalibRange = parseRange(match[2])
	ret.OutLUTRange = parseRange(match[3])
	return ret
}

// parseRange reads "1.0-5.5" as (1.0, 5.5) and a bare "10" as (10, 10).
func parseRange(rangeStr string) *[2]float64 {
	if rangeStr == "" {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(rangeStr), "-")
	switch len(parts) {
	case 1:
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil
		}
		return &[2]float64{value, value}
	case 2:
		low, errLow := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		high, errHigh := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLow != nil || errHigh != nil {
			return nil
		}
		return &[2]float64{low, high}
	default:
		return nil
	}
}
