package gateway

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"dicom-gateway-api/dicomweb"
	"dicom-gateway-api/entities"
	"dicom-gateway-api/localstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestAPI(t *testing.T, upstream http.HandlerFunc) (*gin.Engine, *localstore.Store, func()) {
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)

	dir, err := ioutil.TempDir("", "gateway")
	assert.Nil(t, err)

	store, err := localstore.NewStore(dir, zap.NewNop())
	assert.Nil(t, err)

	client := dicomweb.NewClient(dicomweb.Config{
		BaseURL:        srv.URL,
		AET:            "TEST",
		DestinationAET: "LOCAL_ARCHIVE",
	}, zap.NewNop())

	engine := gin.New()
	api := NewPacsAPI(client, store, zap.NewNop())
	api.InitRoute(engine)

	cleanup := func() {
		srv.Close()
		os.RemoveAll(dir)
	}
	return engine, store, cleanup
}

func doRequest(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestFindStudiesRoute(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/aets/TEST/rs/studies", r.URL.Path)
		w.Write([]byte(`[{"0020000D": {"vr": "UI", "Value": ["1.2.3"]}}]`))
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodGet, "/studies?patient_id=P001", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp entities.Response
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.ErrorCode)
	assert.Equal(t, 1, resp.Count)
}

func TestFindStudiesBadFilters(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no upstream call expected")
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodGet, "/studies?filters=not-json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindSeriesUpstreamFailureMapsToBadGateway(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("archive exploded"))
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodGet, "/studies/1.2.3/series", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp entities.Response
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "archive exploded")
}

func TestRetrieveExportRoute(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/aets/TEST/rs/studies/1.2.3/export/dicom:LOCAL_ARCHIVE", r.URL.Path)
		w.Write([]byte(`{"completed": 4}`))
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodPost, "/retrieve", `{"study_instance_uid": "1.2.3"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRetrieveMissingStudyUID(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no upstream call expected")
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodPost, "/retrieve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveRejectsUnknownTransfer(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no upstream call expected")
	})
	defer cleanup()

	rec := doRequest(engine, http.MethodPost, "/retrieve",
		`{"study_instance_uid": "1.2.3", "transfer": "TELEPORT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp entities.Response
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "EXPORT or DOWNLOAD")
}

func TestPixelDataRouteNotFound(t *testing.T) {
	engine, _, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	rec := doRequest(engine, http.MethodGet, "/instances/9.9.9/pixeldata", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadInstanceStreamsStoredFile(t *testing.T) {
	engine, store, cleanup := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	assert.Nil(t, ioutil.WriteFile(store.Path("1.2.3"), []byte("DICM payload"), 0o644))

	rec := doRequest(engine, http.MethodGet, "/instances/1.2.3/file", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "DICM payload", rec.Body.String())
}
