package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/dicomweb"
	"dicom-gateway-api/entities"
	"dicom-gateway-api/localstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PacsAPI is the REST mirror of the agent tools, for callers that are
// not MCP clients.
type PacsAPI struct {
	client *dicomweb.Client
	store  *localstore.Store
	logger *zap.Logger
}

func NewPacsAPI(client *dicomweb.Client, store *localstore.Store, logger *zap.Logger) *PacsAPI {
	return &PacsAPI{
		client: client,
		store:  store,
		logger: logger,
	}
}

func (app *PacsAPI) InitRoute(engine *gin.Engine) {
	engine.GET("/studies", app.FindStudies)
	engine.GET("/studies/:study_uid/series", app.FindSeries)
	engine.GET("/studies/:study_uid/series/:series_uid/instances", app.FindInstances)
	engine.POST("/retrieve", app.Retrieve)
	engine.GET("/instances/:sop_uid/pixeldata", app.GetPixelData)
	engine.GET("/instances/:sop_uid/file", app.DownloadInstance)
}

func (app *PacsAPI) FindStudies(c *gin.Context) {
	resp := entities.NewResponse()

	filters, ok := parseFilters(c.Query(constants.ParamFilters))
	if !ok {
		resp.ErrorCode = constants.ServerInvalidData
		resp.Message = "filters must be a JSON object of string values"
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	query := dicomweb.StudyQuery{
		PatientID:         c.Query(constants.ParamPatientID),
		StudyDate:         c.Query(constants.ParamStudyDate),
		AccessionNumber:   c.Query(constants.ParamAccessionNumber),
		PatientName:       c.Query(constants.ParamPatientName),
		AdditionalFilters: filters,
	}
	studies, err := app.client.SearchStudies(c.Request.Context(), query)
	if err != nil {
		app.fail(c, resp, err)
		return
	}

	resp.Data = studies
	resp.Count = len(studies)
	c.JSON(http.StatusOK, resp)
}

func (app *PacsAPI) FindSeries(c *gin.Context) {
	resp := entities.NewResponse()

	filters, ok := parseFilters(c.Query(constants.ParamFilters))
	if !ok {
		resp.ErrorCode = constants.ServerInvalidData
		resp.Message = "filters must be a JSON object of string values"
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	query := dicomweb.SeriesQuery{
		StudyInstanceUID:  c.Param("study_uid"),
		AdditionalFilters: filters,
	}
	series, err := app.client.SearchSeries(c.Request.Context(), query)
	if err != nil {
		app.fail(c, resp, err)
		return
	}

	resp.Data = series
	resp.Count = len(series)
	c.JSON(http.StatusOK, resp)
}

func (app *PacsAPI) FindInstances(c *gin.Context) {
	resp := entities.NewResponse()

	query := dicomweb.InstanceQuery{
		StudyInstanceUID:  c.Param("study_uid"),
		SeriesInstanceUID: c.Param("series_uid"),
		FieldsToRetrieve:  c.QueryArray(constants.ParamFields),
	}
	instances, err := app.client.SearchInstances(c.Request.Context(), query)
	if err != nil {
		app.fail(c, resp, err)
		return
	}

	resp.Data = instances
	resp.Count = len(instances)
	c.JSON(http.StatusOK, resp)
}

// RetrieveRequest selects a study, optionally narrowed to a series or a
// single instance, to bring to the local node. Transfer EXPORT asks the
// archive to push it; DOWNLOAD pulls the study with WADO-RS directly
// into the local store.
type RetrieveRequest struct {
	StudyInstanceUID  string `json:"study_instance_uid"`
	SeriesInstanceUID string `json:"series_instance_uid"`
	SOPInstanceUID    string `json:"sop_instance_uid"`
	Transfer          string `json:"transfer"`
}

func (app *PacsAPI) Retrieve(c *gin.Context) {
	resp := entities.NewResponse()

	var request RetrieveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		resp.ErrorCode = constants.ServerInvalidData
		resp.Message = err.Error()
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	if request.Transfer == "" {
		request.Transfer = constants.TransferExport
	}
	if request.Transfer != constants.TransferExport && request.Transfer != constants.TransferDownload {
		resp.ErrorCode = constants.ServerInvalidData
		resp.Message = "transfer must be EXPORT or DOWNLOAD"
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	if request.Transfer == constants.TransferDownload {
		var count int
		var err error
		if request.SOPInstanceUID != "" {
			count, err = app.client.RetrieveInstance(c.Request.Context(),
				request.StudyInstanceUID, request.SeriesInstanceUID, request.SOPInstanceUID, app.store)
		} else {
			count, err = app.client.RetrieveStudy(c.Request.Context(), request.StudyInstanceUID, app.store)
		}
		if err != nil {
			app.fail(c, resp, err)
			return
		}
		resp.Count = count
		c.JSON(http.StatusAccepted, resp)
		return
	}

	result, err := app.client.Move(c.Request.Context(),
		request.StudyInstanceUID, request.SeriesInstanceUID, request.SOPInstanceUID)
	if err != nil {
		app.fail(c, resp, err)
		return
	}

	resp.Data = result
	c.JSON(http.StatusAccepted, resp)
}

func (app *PacsAPI) GetPixelData(c *gin.Context) {
	resp := entities.NewResponse()

	record, err := app.store.PixelData(c.Param("sop_uid"))
	if err != nil {
		app.fail(c, resp, err)
		return
	}

	resp.Data = record
	c.JSON(http.StatusOK, resp)
}

func (app *PacsAPI) DownloadInstance(c *gin.Context) {
	file, err := app.store.Open(c.Param("sop_uid"))
	if err != nil {
		resp := entities.NewResponse()
		app.fail(c, resp, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", constants.AcceptOctetStream)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, file)
}

// fail maps the error taxonomy onto HTTP statuses and the response
// envelope.
func (app *PacsAPI) fail(c *gin.Context, resp *entities.Response, err error) {
	app.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	resp.Message = err.Error()

	var upstream *entities.UpstreamError
	switch {
	case entities.IsValidation(err):
		resp.ErrorCode = constants.ServerInvalidData
		c.JSON(http.StatusBadRequest, resp)
	case entities.IsNotFound(err):
		resp.ErrorCode = constants.ServerNotFound
		c.JSON(http.StatusNotFound, resp)
	case errors.As(err, &upstream):
		resp.ErrorCode = constants.ServerUpstream
		c.JSON(http.StatusBadGateway, resp)
	default:
		var unavailable *entities.UpstreamUnavailableError
		if errors.As(err, &unavailable) {
			resp.ErrorCode = constants.ServerUpstream
			c.JSON(http.StatusBadGateway, resp)
			return
		}
		resp.ErrorCode = constants.ServerError
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func parseFilters(raw string) (map[string]string, bool) {
	if raw == "" {
		return nil, true
	}
	filters := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, false
	}
	return filters, true
}
