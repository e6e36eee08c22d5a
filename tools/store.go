package tools

import (
	"context"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/dicomweb"
	"dicom-gateway-api/localstore"

	"github.com/mark3labs/mcp-go/mcp"
)

// MoveTool asks the archive to transfer an entity to the local node.
type MoveTool struct {
	client *dicomweb.Client
}

func NewMoveTool(client *dicomweb.Client) *MoveTool {
	return &MoveTool{client: client}
}

func (t *MoveTool) Definition() mcp.Tool {
	return mcp.NewTool("move_dicom_entity_to_local_server",
		mcp.WithDescription("Ask the PACS to transfer a whole study, one series, or one "+
			"instance to the local archive node. With only study_instance_uid the whole "+
			"study moves; adding series_instance_uid narrows it to that series; adding "+
			"sop_instance_uid (which also requires the series UID) moves exactly one instance."),
		mcp.WithString(constants.ParamStudyUID,
			mcp.Required(),
			mcp.Description("StudyInstanceUID of the entity to move.")),
		mcp.WithString(constants.ParamSeriesUID,
			mcp.Description("SeriesInstanceUID, to narrow the move to one series.")),
		mcp.WithString(constants.ParamSOPUID,
			mcp.Description("SOPInstanceUID, to move a single instance.")),
	)
}

func (t *MoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	result, err := t.client.Move(ctx,
		argString(args, constants.ParamStudyUID),
		argString(args, constants.ParamSeriesUID),
		argString(args, constants.ParamSOPUID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// PixelDataTool reads pixel data of an instance already transferred to
// the local node.
type PixelDataTool struct {
	store *localstore.Store
}

func NewPixelDataTool(store *localstore.Store) *PixelDataTool {
	return &PixelDataTool{store: store}
}

func (t *PixelDataTool) Definition() mcp.Tool {
	return mcp.NewTool("get_local_instance_pixel_data",
		mcp.WithDescription("Describe the pixel data of a DICOM instance that has already "+
			"been moved to the local node: matrix size, frame count, bit depth and a small "+
			"preview of raw values. Fails when the instance is not present locally."),
		mcp.WithString(constants.ParamSOPUID,
			mcp.Required(),
			mcp.Description("SOPInstanceUID of the locally stored instance.")),
	)
}

func (t *PixelDataTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	record, err := t.store.PixelData(argString(req.Params.Arguments, constants.ParamSOPUID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(record)
}
