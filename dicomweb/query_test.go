package dicomweb

import (
	"testing"

	"dicom-gateway-api/entities"

	"github.com/stretchr/testify/assert"
)

func TestStudyQueryEmptyPassesThrough(t *testing.T) {
	params, err := StudyQuery{}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{{"includefield", "all"}}, params)
}

func TestStudyQueryNamedFields(t *testing.T) {
	params, err := StudyQuery{
		PatientID:       "P001",
		PatientName:     "DOE",
		AccessionNumber: "ACC42",
		StudyDate:       "20240101-20241231",
	}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{
		{"includefield", "all"},
		{"PatientName", "*DOE*"},
		{"PatientID", "P001"},
		{"AccessionNumber", "ACC42"},
		{"StudyDate", "20240101-20241231"},
	}, params)
}

func TestStudyQueryFiltersFollowNamedFields(t *testing.T) {
	params, err := StudyQuery{
		PatientID: "P001",
		AdditionalFilters: map[string]string{
			"ModalitiesInStudy": "DX",
			"00801234":          "raw-tag",
		},
	}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{
		{"includefield", "all"},
		{"PatientID", "P001"},
		{"00801234", "raw-tag"},
		{"ModalitiesInStudy", "DX"},
	}, params)
}

func TestStudyQueryNamedFieldsWinOverFilters(t *testing.T) {
	params, err := StudyQuery{
		PatientID: "P001",
		AdditionalFilters: map[string]string{
			"PatientID":    "P999",
			"includefield": "none",
		},
	}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{
		{"includefield", "all"},
		{"PatientID", "P001"},
	}, params)
}

func TestSeriesQueryRequiresStudyUID(t *testing.T) {
	_, err := SeriesQuery{}.Build()
	assert.NotNil(t, err)
	assert.True(t, entities.IsValidation(err))

	_, err = SeriesQuery{StudyInstanceUID: "   "}.Build()
	assert.True(t, entities.IsValidation(err))
}

func TestSeriesQueryDefaultIncludeFields(t *testing.T) {
	params, err := SeriesQuery{StudyInstanceUID: "1.2.3"}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{
		{"includefield", "SeriesInstanceUID,Modality,SeriesNumber,SeriesDescription"},
	}, params)
}

func TestInstanceQueryRequiresBothParentUIDs(t *testing.T) {
	_, err := InstanceQuery{SeriesInstanceUID: "1.2.4"}.Build()
	assert.True(t, entities.IsValidation(err))

	_, err = InstanceQuery{StudyInstanceUID: "1.2.3"}.Build()
	assert.True(t, entities.IsValidation(err))
}

func TestInstanceQueryIncludeFieldListsExactFields(t *testing.T) {
	params, err := InstanceQuery{
		StudyInstanceUID:  "1.2.3",
		SeriesInstanceUID: "1.2.4",
		FieldsToRetrieve:  []string{"KVP", "XRayTubeCurrent"},
	}.Build()
	assert.Nil(t, err)
	assert.Equal(t, []Param{{"includefield", "KVP,XRayTubeCurrent"}}, params)
}

func TestInstanceQueryNoFields(t *testing.T) {
	params, err := InstanceQuery{
		StudyInstanceUID:  "1.2.3",
		SeriesInstanceUID: "1.2.4",
	}.Build()
	assert.Nil(t, err)
	assert.Equal(t, 0, len(params))
}

func TestEncodeParamsKeepsOrderAndEscapes(t *testing.T) {
	encoded := encodeParams([]Param{
		{"PatientName", "*DOE^JOHN*"},
		{"StudyDate", "20240101"},
	})
	assert.Equal(t, "PatientName=%2ADOE%5EJOHN%2A&StudyDate=20240101", encoded)
}
