package constants

const (
	ENV = "API_ENV"

	ParamStudyUID  = "study_instance_uid"
	ParamSeriesUID = "series_instance_uid"
	ParamSOPUID    = "sop_instance_uid"

	ParamPatientID       = "patient_id"
	ParamPatientName     = "patient_name"
	ParamStudyDate       = "study_date"
	ParamAccessionNumber = "accession_number"
	ParamFilters         = "filters"
	ParamFields          = "field"

	KeywordPatientID         = "PatientID"
	KeywordPatientName       = "PatientName"
	KeywordStudyDate         = "StudyDate"
	KeywordAccessionNumber   = "AccessionNumber"
	KeywordStudyInstanceUID  = "StudyInstanceUID"
	KeywordSeriesInstanceUID = "SeriesInstanceUID"
	KeywordSOPInstanceUID    = "SOPInstanceUID"
	KeywordInstanceNumber    = "InstanceNumber"
	KeywordModality          = "Modality"
	KeywordSeriesNumber      = "SeriesNumber"
	KeywordSeriesDescription = "SeriesDescription"
	KeywordLUTExplanation    = "LUTExplanation"

	ParamIncludeField = "includefield"
	IncludeFieldAll   = "all"

	AcceptDICOMJSON      = "application/dicom+json"
	AcceptMultipartDICOM = `multipart/related; type="application/dicom"`
	AcceptOctetStream    = "application/octet-stream"

	ScopeStudy    = "STUDY"
	ScopeSeries   = "SERIES"
	ScopeInstance = "IMAGE"

	TransferExport   = "EXPORT"
	TransferDownload = "DOWNLOAD"

	ServerOK          = 0
	ServerError       = 1
	ServerInvalidData = 2
	ServerNotFound    = 3
	ServerUpstream    = 4

	DefaultTimeoutMs = 30000
	DefaultRetry     = 0

	DICOMFileExt = ".dcm"
)
