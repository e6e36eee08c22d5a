package dicomweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/entities"

	"github.com/dustin/go-humanize"
	"github.com/gojektech/heimdall/v6/httpclient"
	"go.uber.org/zap"
)

// Config carries everything the client needs to reach one DICOMweb
// archive. It is injected at construction time; there is no process-wide
// configuration state.
type Config struct {
	// BaseURL is the archive root, e.g. "http://pacs:8080/dcm4chee-arc".
	BaseURL string
	// AET is the archive application entity the RS endpoints are served
	// under: {BaseURL}/aets/{AET}/rs.
	AET string
	// DestinationAET is the archive node retrieve requests export to.
	DestinationAET string
	Timeout        time.Duration
	RetryCount     int
}

// InstanceSink receives the DICOM parts of a WADO-RS response. Save
// returns the SOP Instance UID of the stored object.
type InstanceSink interface {
	Save(data []byte) (string, error)
}

type Client struct {
	cfg        Config
	httpClient *httpclient.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultTimeoutMs * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetryCount(cfg.RetryCount),
	)

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) rsURL(parts ...string) string {
	return fmt.Sprintf("%s/aets/%s/rs/%s", c.cfg.BaseURL, c.cfg.AET, strings.Join(parts, "/"))
}

// SearchStudies runs a study-level QIDO-RS search. An empty query passes
// through unfiltered and returns the archive's full result set.
func (c *Client) SearchStudies(ctx context.Context, query StudyQuery) ([]entities.Study, error) {
	params, err := query.Build()
	if err != nil {
		return nil, err
	}
	datasets, err := c.search(ctx, c.rsURL("studies"), params)
	if err != nil {
		return nil, err
	}
	studies := make([]entities.Study, 0, len(datasets))
	for _, ds := range datasets {
		studies = append(studies, entities.StudyFromDataset(ds))
	}
	return studies, nil
}

// SearchSeries lists the series of one study.
func (c *Client) SearchSeries(ctx context.Context, query SeriesQuery) ([]entities.Series, error) {
	params, err := query.Build()
	if err != nil {
		return nil, err
	}
	datasets, err := c.search(ctx, c.rsURL("studies", query.StudyInstanceUID, "series"), params)
	if err != nil {
		return nil, err
	}
	series := make([]entities.Series, 0, len(datasets))
	for _, ds := range datasets {
		series = append(series, entities.SeriesFromDataset(query.StudyInstanceUID, ds))
	}
	return series, nil
}

// SearchInstances lists the instances of one series, reshaping each
// record into the keyword header mapping callers consume.
func (c *Client) SearchInstances(ctx context.Context, query InstanceQuery) ([]entities.InstanceMetadata, error) {
	params, err := query.Build()
	if err != nil {
		return nil, err
	}
	datasets, err := c.search(ctx, c.rsURL("studies", query.StudyInstanceUID, "series", query.SeriesInstanceUID, "instances"), params)
	if err != nil {
		return nil, err
	}
	instances := make([]entities.InstanceMetadata, 0, len(datasets))
	for _, ds := range datasets {
		instances = append(instances, instanceFromDataset(query, ds))
	}
	return instances, nil
}

func (c *Client) search(ctx context.Context, uri string, params []Param) ([]entities.Dataset, error) {
	if qs := encodeParams(params); qs != "" {
		uri = uri + "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", constants.AcceptDICOMJSON)

	c.logger.Info("QIDO-RS search", zap.String("url", uri))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &entities.UpstreamUnavailableError{URL: uri, Err: err}
	}
	defer res.Body.Close()

	// dcm4chee answers an empty match with 204 and no body.
	if res.StatusCode == http.StatusNoContent {
		return []entities.Dataset{}, nil
	}

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, &entities.UpstreamUnavailableError{URL: uri, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &entities.UpstreamError{Status: res.StatusCode, Body: string(body)}
	}

	datasets := make([]entities.Dataset, 0)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &datasets); err != nil {
			return nil, &entities.DecodeError{ContentType: constants.AcceptDICOMJSON, Err: err}
		}
	}

	c.logger.Info("QIDO-RS result",
		zap.Int("matches", len(datasets)),
		zap.String("payload", humanize.Bytes(uint64(len(body)))))
	return datasets, nil
}

// Move asks the archive to export a study, series or single instance to
// the configured destination AE. The archive owns the copy operation; the
// acknowledgement carries its HTTP status and body.
func (c *Client) Move(ctx context.Context, studyUID, seriesUID, sopUID string) (*entities.MoveResult, error) {
	scope, parts, err := moveScope(studyUID, seriesUID, sopUID)
	if err != nil {
		return nil, err
	}

	parts = append(parts, "export", "dicom:"+c.cfg.DestinationAET)
	uri := c.rsURL(parts...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, nil)
	if err != nil {
		return nil, err
	}

	c.logger.Info("export request", zap.String("scope", scope), zap.String("url", uri))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &entities.UpstreamUnavailableError{URL: uri, Err: err}
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, &entities.UpstreamUnavailableError{URL: uri, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &entities.UpstreamError{Status: res.StatusCode, Body: string(body)}
	}

	result := &entities.MoveResult{
		Scope:             scope,
		StudyInstanceUID:  studyUID,
		SeriesInstanceUID: seriesUID,
		SOPInstanceUID:    sopUID,
		HTTPStatus:        res.StatusCode,
	}
	if json.Valid(body) {
		result.Response = json.RawMessage(body)
	} else if len(body) > 0 {
		result.Message = string(body)
	}
	return result, nil
}

// moveScope validates the UID triple and returns the narrowest scope it
// selects together with the RS path segments up to that scope.
func moveScope(studyUID, seriesUID, sopUID string) (string, []string, error) {
	if strings.TrimSpace(studyUID) == "" {
		return "", nil, entities.NewValidationError("move requires a study_instance_uid")
	}
	parts := []string{"studies", studyUID}
	scope := constants.ScopeStudy
	if sopUID != "" {
		if strings.TrimSpace(seriesUID) == "" {
			return "", nil, entities.NewValidationError("moving a single instance requires its series_instance_uid")
		}
		scope = constants.ScopeInstance
		parts = append(parts, "series", seriesUID, "instances", sopUID)
	} else if seriesUID != "" {
		scope = constants.ScopeSeries
		parts = append(parts, "series", seriesUID)
	}
	return scope, parts, nil
}

// RetrieveStudy downloads a whole study with WADO-RS and hands every
// application/dicom part to the sink. Returns the number of stored
// instances.
func (c *Client) RetrieveStudy(ctx context.Context, studyUID string, sink InstanceSink) (int, error) {
	if strings.TrimSpace(studyUID) == "" {
		return 0, entities.NewValidationError("retrieve requires a study_instance_uid")
	}
	return c.retrieveMultipart(ctx, c.rsURL("studies", studyUID), sink)
}

// RetrieveInstance downloads one instance with WADO-RS into the sink.
func (c *Client) RetrieveInstance(ctx context.Context, studyUID, seriesUID, sopUID string, sink InstanceSink) (int, error) {
	if strings.TrimSpace(studyUID) == "" || strings.TrimSpace(seriesUID) == "" || strings.TrimSpace(sopUID) == "" {
		return 0, entities.NewValidationError("instance retrieve requires study, series and sop instance UIDs")
	}
	return c.retrieveMultipart(ctx, c.rsURL("studies", studyUID, "series", seriesUID, "instances", sopUID), sink)
}

func (c *Client) retrieveMultipart(ctx context.Context, uri string, sink InstanceSink) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", constants.AcceptMultipartDICOM)

	c.logger.Info("WADO-RS retrieve", zap.String("url", uri))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &entities.UpstreamUnavailableError{URL: uri, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := ioutil.ReadAll(res.Body)
		return 0, &entities.UpstreamError{Status: res.StatusCode, Body: string(body)}
	}

	mediaType, mtParams, err := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return 0, &entities.DecodeError{
			ContentType: constants.AcceptMultipartDICOM,
			Err:         fmt.Errorf("unexpected content type %q", res.Header.Get("Content-Type")),
		}
	}

	reader := multipart.NewReader(res.Body, mtParams["boundary"])
	count := 0
	totalBytes := 0
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, &entities.DecodeError{ContentType: constants.AcceptMultipartDICOM, Err: err}
		}
		data, err := ioutil.ReadAll(part)
		if err != nil {
			return count, &entities.DecodeError{ContentType: constants.AcceptMultipartDICOM, Err: err}
		}
		totalBytes += len(data)
		sopUID, err := sink.Save(data)
		if err != nil {
			return count, err
		}
		c.logger.Info("instance stored", zap.String("sop_uid", sopUID))
		count++
	}

	c.logger.Info("WADO-RS retrieve done",
		zap.Int("instances", count),
		zap.String("payload", humanize.Bytes(uint64(totalBytes))))
	return count, nil
}
