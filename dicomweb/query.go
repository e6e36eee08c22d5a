package dicomweb

import (
	"net/url"
	"sort"
	"strings"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/entities"
)

// Param is one query-string parameter. Params keep their build order so
// named parameters always precede pass-through filters.
type Param struct {
	Key   string
	Value string
}

// StudyQuery holds the study-level search criteria. All fields are
// optional; an empty query returns the archive's full study list.
type StudyQuery struct {
	PatientID         string
	StudyDate         string
	AccessionNumber   string
	PatientName       string
	AdditionalFilters map[string]string
}

func (q StudyQuery) Build() ([]Param, error) {
	params := []Param{{constants.ParamIncludeField, constants.IncludeFieldAll}}
	if q.PatientName != "" {
		// Substring match, same convention the agent-facing docs promise.
		params = append(params, Param{constants.KeywordPatientName, "*" + q.PatientName + "*"})
	}
	if q.PatientID != "" {
		params = append(params, Param{constants.KeywordPatientID, q.PatientID})
	}
	if q.AccessionNumber != "" {
		params = append(params, Param{constants.KeywordAccessionNumber, q.AccessionNumber})
	}
	if q.StudyDate != "" {
		params = append(params, Param{constants.KeywordStudyDate, q.StudyDate})
	}
	return appendFilters(params, q.AdditionalFilters), nil
}

// SeriesQuery holds the criteria for listing the series of one study.
type SeriesQuery struct {
	StudyInstanceUID  string
	AdditionalFilters map[string]string
}

var seriesIncludeFields = []string{
	constants.KeywordSeriesInstanceUID,
	constants.KeywordModality,
	constants.KeywordSeriesNumber,
	constants.KeywordSeriesDescription,
}

func (q SeriesQuery) Build() ([]Param, error) {
	if strings.TrimSpace(q.StudyInstanceUID) == "" {
		return nil, entities.NewValidationError("series query requires a study_instance_uid")
	}
	params := []Param{{constants.ParamIncludeField, strings.Join(seriesIncludeFields, ",")}}
	return appendFilters(params, q.AdditionalFilters), nil
}

// InstanceQuery holds the criteria for listing the instances of one
// series, optionally asking the archive for extra header fields.
type InstanceQuery struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	FieldsToRetrieve  []string
}

func (q InstanceQuery) Build() ([]Param, error) {
	if strings.TrimSpace(q.StudyInstanceUID) == "" {
		return nil, entities.NewValidationError("instance query requires a study_instance_uid")
	}
	if strings.TrimSpace(q.SeriesInstanceUID) == "" {
		return nil, entities.NewValidationError("instance query requires a series_instance_uid")
	}
	if len(q.FieldsToRetrieve) == 0 {
		return []Param{}, nil
	}
	return []Param{{constants.ParamIncludeField, strings.Join(q.FieldsToRetrieve, ",")}}, nil
}

// appendFilters merges the free-form filter mapping after the named
// parameters. Named parameters win: a filter whose key is already present
// is dropped. Unrecognized DICOM tag keys pass through unchanged so
// advanced queries can bypass the named surface.
func appendFilters(params []Param, filters map[string]string) []Param {
	if len(filters) == 0 {
		return params
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		seen[p.Key] = true
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		params = append(params, Param{key, filters[key]})
	}
	return params
}

// encodeParams renders the parameters in order; url.Values cannot be used
// here because it does not preserve ordering.
func encodeParams(params []Param) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}
