package entities

import (
	"encoding/json"
	"strings"

	"dicom-gateway-api/constants"
)

// Study is the study-level search record surfaced to callers.
type Study struct {
	StudyInstanceUID  string `json:"StudyInstanceUID"`
	PatientID         string `json:"PatientID,omitempty"`
	PatientName       string `json:"PatientName,omitempty"`
	StudyDate         string `json:"StudyDate,omitempty"`
	StudyDescription  string `json:"StudyDescription,omitempty"`
	ModalitiesInStudy string `json:"ModalitiesInStudy,omitempty"`
	AccessionNumber   string `json:"AccessionNumber,omitempty"`
}

func StudyFromDataset(ds Dataset) Study {
	return Study{
		StudyInstanceUID:  ds.FirstString(constants.KeywordStudyInstanceUID),
		PatientID:         ds.FirstString(constants.KeywordPatientID),
		PatientName:       ds.FirstString(constants.KeywordPatientName),
		StudyDate:         ds.FirstString(constants.KeywordStudyDate),
		StudyDescription:  ds.FirstString("StudyDescription"),
		ModalitiesInStudy: strings.Join(ds.Strings("ModalitiesInStudy"), "\\"),
		AccessionNumber:   ds.FirstString(constants.KeywordAccessionNumber),
	}
}

// Series is the series-level search record.
type Series struct {
	StudyInstanceUID  string `json:"StudyInstanceUID"`
	SeriesInstanceUID string `json:"SeriesInstanceUID"`
	Modality          string `json:"Modality,omitempty"`
	SeriesNumber      string `json:"SeriesNumber,omitempty"`
	SeriesDescription string `json:"SeriesDescription,omitempty"`
}

func SeriesFromDataset(studyUID string, ds Dataset) Series {
	series := Series{
		StudyInstanceUID:  ds.FirstString(constants.KeywordStudyInstanceUID),
		SeriesInstanceUID: ds.FirstString(constants.KeywordSeriesInstanceUID),
		Modality:          ds.FirstString(constants.KeywordModality),
		SeriesNumber:      ds.FirstString(constants.KeywordSeriesNumber),
		SeriesDescription: ds.FirstString(constants.KeywordSeriesDescription),
	}
	if series.StudyInstanceUID == "" {
		series.StudyInstanceUID = studyUID
	}
	return series
}

// InstanceMetadata is one instance record with its raw header mapping.
type InstanceMetadata struct {
	SOPInstanceUID string                 `json:"SOPInstanceUID"`
	InstanceNumber string                 `json:"InstanceNumber,omitempty"`
	DICOMHeaders   map[string]interface{} `json:"dicom_headers"`
}

// MoveResult is the acknowledgement of one retrieve/export request. The
// archive owns the actual copy operation; Response carries its body
// verbatim when it is JSON.
type MoveResult struct {
	Scope             string          `json:"scope"`
	StudyInstanceUID  string          `json:"StudyInstanceUID"`
	SeriesInstanceUID string          `json:"SeriesInstanceUID,omitempty"`
	SOPInstanceUID    string          `json:"SOPInstanceUID,omitempty"`
	HTTPStatus        int             `json:"http_status"`
	Response          json.RawMessage `json:"response,omitempty"`
	Message           string          `json:"message,omitempty"`
}

// PixelData describes the pixel payload of one locally stored instance.
type PixelData struct {
	SOPInstanceUID  string  `json:"sop_instance_uid"`
	Rows            int     `json:"rows"`
	Columns         int     `json:"columns"`
	Frames          int     `json:"frames"`
	BitsAllocated   int     `json:"bits_allocated,omitempty"`
	SamplesPerPixel int     `json:"samples_per_pixel,omitempty"`
	Preview         [][]int `json:"pixel_array_preview,omitempty"`
	Message         string  `json:"message,omitempty"`
}

// LUTExplanation is the structured form of the LUTExplanation tag
// (0028,3003) as written by calibration software: a free-text part and
// optional "InCalibRange: a-b" / "OutLUTRange: c-d" segments.
type LUTExplanation struct {
	FullText     string      `json:"FullText"`
	Explanation  string      `json:"Explanation,omitempty"`
	InCalibRange *[2]float64 `json:"InCalibRange,omitempty"`
	OutLUTRange  *[2]float64 `json:"OutLUTRange,omitempty"`
}

func (r *MoveResult) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (p *PixelData) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}
