package dicomweb

import (
	"dicom-gateway-api/constants"
	"dicom-gateway-api/entities"
	"dicom-gateway-api/utils"
)

// instanceFromDataset reshapes one QIDO-RS instance record into the
// keyword header mapping. The scoping UIDs are always present in the
// headers even when the archive omits them from the record, and
// LUTExplanation values are replaced by their structured form.
func instanceFromDataset(query InstanceQuery, ds entities.Dataset) entities.InstanceMetadata {
	headers := ds.Keywords()

	if _, found := headers[constants.KeywordStudyInstanceUID]; !found {
		headers[constants.KeywordStudyInstanceUID] = query.StudyInstanceUID
	}
	if _, found := headers[constants.KeywordSeriesInstanceUID]; !found {
		headers[constants.KeywordSeriesInstanceUID] = query.SeriesInstanceUID
	}

	if raw, found := headers[constants.KeywordLUTExplanation]; found {
		if text, ok := raw.(string); ok {
			headers[constants.KeywordLUTExplanation] = utils.ParseLUTExplanation(text)
		}
	}

	sopUID := ds.FirstString(constants.KeywordSOPInstanceUID)
	if _, found := headers[constants.KeywordSOPInstanceUID]; !found {
		headers[constants.KeywordSOPInstanceUID] = sopUID
	}

	return entities.InstanceMetadata{
		SOPInstanceUID: sopUID,
		InstanceNumber: ds.FirstString(constants.KeywordInstanceNumber),
		DICOMHeaders:   headers,
	}
}
