package tools

import (
	"context"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/dicomweb"

	"github.com/mark3labs/mcp-go/mcp"
)

// QueryStudiesTool searches studies in the archive (QIDO-RS).
type QueryStudiesTool struct {
	client *dicomweb.Client
}

func NewQueryStudiesTool(client *dicomweb.Client) *QueryStudiesTool {
	return &QueryStudiesTool{client: client}
}

func (t *QueryStudiesTool) Definition() mcp.Tool {
	return mcp.NewTool("query_studies",
		mcp.WithDescription("Search DICOM studies in the PACS archive. "+
			"All criteria are optional; with no criteria the full study list is returned. "+
			"patient_name matches substrings."),
		mcp.WithString(constants.ParamPatientID,
			mcp.Description("Patient ID (exact match).")),
		mcp.WithString(constants.ParamStudyDate,
			mcp.Description("Study date, YYYYMMDD or a range YYYYMMDD-YYYYMMDD.")),
		mcp.WithString(constants.ParamAccessionNumber,
			mcp.Description("Accession number (exact match).")),
		mcp.WithString(constants.ParamPatientName,
			mcp.Description("Patient name fragment, e.g. 'DOE'.")),
		mcp.WithObject("additional_filters",
			mcp.Description("Extra DICOM tag filters as keyword/value pairs, e.g. {\"ModalitiesInStudy\": \"DX\"}. "+
				"Keys collide with named criteria in favor of the named criteria.")),
	)
}

func (t *QueryStudiesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	query := dicomweb.StudyQuery{
		PatientID:         argString(args, constants.ParamPatientID),
		StudyDate:         argString(args, constants.ParamStudyDate),
		AccessionNumber:   argString(args, constants.ParamAccessionNumber),
		PatientName:       argString(args, constants.ParamPatientName),
		AdditionalFilters: argStringMap(args, "additional_filters"),
	}
	studies, err := t.client.SearchStudies(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(studies)
}

// QuerySeriesTool lists the series of one study.
type QuerySeriesTool struct {
	client *dicomweb.Client
}

func NewQuerySeriesTool(client *dicomweb.Client) *QuerySeriesTool {
	return &QuerySeriesTool{client: client}
}

func (t *QuerySeriesTool) Definition() mcp.Tool {
	return mcp.NewTool("query_series",
		mcp.WithDescription("List the DICOM series belonging to one study, "+
			"e.g. the different scan types it contains."),
		mcp.WithString(constants.ParamStudyUID,
			mcp.Required(),
			mcp.Description("StudyInstanceUID of the study to inspect.")),
		mcp.WithObject("additional_filters",
			mcp.Description("Extra series-level DICOM tag filters, e.g. {\"Modality\": \"MR\"}.")),
	)
}

func (t *QuerySeriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	query := dicomweb.SeriesQuery{
		StudyInstanceUID:  argString(args, constants.ParamStudyUID),
		AdditionalFilters: argStringMap(args, "additional_filters"),
	}
	series, err := t.client.SearchSeries(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(series)
}

// QueryInstancesTool lists the instances of one series with their raw
// DICOM headers.
type QueryInstancesTool struct {
	client *dicomweb.Client
}

func NewQueryInstancesTool(client *dicomweb.Client) *QueryInstancesTool {
	return &QueryInstancesTool{client: client}
}

func (t *QueryInstancesTool) Definition() mcp.Tool {
	return mcp.NewTool("query_instances",
		mcp.WithDescription("List the DICOM instances of one series. Each record carries a "+
			"dicom_headers mapping of keyword to value; fields_to_retrieve asks the archive "+
			"for extra header fields such as KVP or XRayTubeCurrent."),
		mcp.WithString(constants.ParamStudyUID,
			mcp.Required(),
			mcp.Description("StudyInstanceUID the series belongs to.")),
		mcp.WithString(constants.ParamSeriesUID,
			mcp.Required(),
			mcp.Description("SeriesInstanceUID of the series to inspect.")),
		mcp.WithArray("fields_to_retrieve",
			mcp.Description("DICOM keywords to include in each record, e.g. [\"KVP\", \"XRayTubeCurrent\"]."),
			mcp.Items(map[string]interface{}{"type": "string"})),
	)
}

func (t *QueryInstancesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	query := dicomweb.InstanceQuery{
		StudyInstanceUID:  argString(args, constants.ParamStudyUID),
		SeriesInstanceUID: argString(args, constants.ParamSeriesUID),
		FieldsToRetrieve:  argStringSlice(args, "fields_to_retrieve"),
	}
	instances, err := t.client.SearchInstances(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(instances)
}
