package localstore

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dicom-gateway-api/constants"
	"dicom-gateway-api/entities"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
)

const previewEdge = 5

// Store is the flat directory of instances the archive has transferred
// to this node, one "<SOPInstanceUID>.dcm" file each. It is the only
// local state the gateway keeps.
type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(sopUID string) string {
	return filepath.Join(s.dir, sopUID+constants.DICOMFileExt)
}

func (s *Store) Exists(sopUID string) bool {
	info, err := os.Stat(s.Path(sopUID))
	return err == nil && !info.IsDir()
}

// Save parses the DICOM object to learn its SOP Instance UID and writes
// it under that name. The write goes through a temp file so a partially
// written object is never visible under its final name.
func (s *Store) Save(data []byte) (string, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return "", &entities.DecodeError{ContentType: "application/dicom", Err: err}
	}
	sopUID := firstString(ds, tag.SOPInstanceUID)
	if sopUID == "" {
		return "", &entities.DecodeError{ContentType: "application/dicom", Err: errMissingSOPUID}
	}

	tmp := filepath.Join(s.dir, uuid.New().String()+".part")
	if err := ioutil.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, s.Path(sopUID)); err != nil {
		os.Remove(tmp)
		return "", err
	}
	s.logger.Info("instance saved", zap.String("sop_uid", sopUID), zap.Int("bytes", len(data)))
	return sopUID, nil
}

// Open returns the raw stored object for streaming to a caller.
func (s *Store) Open(sopUID string) (io.ReadCloser, error) {
	if !s.Exists(sopUID) {
		return nil, &entities.NotFoundError{Resource: "instance " + sopUID}
	}
	return os.Open(s.Path(sopUID))
}

// PixelData reads a stored instance and describes its pixel payload,
// including a small preview matrix of the first frame.
func (s *Store) PixelData(sopUID string) (*entities.PixelData, error) {
	if strings.TrimSpace(sopUID) == "" {
		return nil, entities.NewValidationError("sop_instance_uid is required")
	}
	if !s.Exists(sopUID) {
		return nil, &entities.NotFoundError{Resource: "instance " + sopUID}
	}

	ds, err := dicom.ParseFile(s.Path(sopUID), nil)
	if err != nil {
		return nil, &entities.DecodeError{ContentType: "application/dicom", Err: err}
	}
	return pixelRecord(sopUID, ds)
}

var errMissingSOPUID = errors.New("object has no SOPInstanceUID")

func pixelRecord(sopUID string, ds dicom.Dataset) (*entities.PixelData, error) {
	element, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, &entities.DecodeError{ContentType: "application/dicom", Err: err}
	}
	info, ok := element.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, &entities.DecodeError{ContentType: "application/dicom", Err: errNoPixelData}
	}

	record := &entities.PixelData{
		SOPInstanceUID:  sopUID,
		Rows:            firstInt(ds, tag.Rows),
		Columns:         firstInt(ds, tag.Columns),
		Frames:          len(info.Frames),
		BitsAllocated:   firstInt(ds, tag.BitsAllocated),
		SamplesPerPixel: firstInt(ds, tag.SamplesPerPixel),
		Message:         "pixel data accessed from local file",
	}

	if len(info.Frames) == 0 {
		return nil, &entities.DecodeError{ContentType: "application/dicom", Err: errNoPixelData}
	}

	first := info.Frames[0]
	if first.Encapsulated {
		record.Message = "encapsulated transfer syntax; preview not available"
		return record, nil
	}

	native := first.NativeData
	if record.Rows == 0 {
		record.Rows = native.Rows
	}
	if record.Columns == 0 {
		record.Columns = native.Cols
	}
	record.Preview = previewMatrix(native)
	return record, nil
}

var errNoPixelData = errors.New("object contains no pixel data")

// previewMatrix copies the top-left corner of the first frame, first
// sample only, so the agent can sanity-check values without moving the
// whole payload.
func previewMatrix(native frame.NativeFrame) [][]int {
	previewRows := native.Rows
	if previewRows > previewEdge {
		previewRows = previewEdge
	}
	previewCols := native.Cols
	if previewCols > previewEdge {
		previewCols = previewEdge
	}
	preview := make([][]int, 0, previewRows)
	for r := 0; r < previewRows; r++ {
		line := make([]int, 0, previewCols)
		for c := 0; c < previewCols; c++ {
			pixel := native.Data[r*native.Cols+c]
			if len(pixel) == 0 {
				line = append(line, 0)
				continue
			}
			line = append(line, pixel[0])
		}
		preview = append(preview, line)
	}
	return preview
}

func firstString(ds dicom.Dataset, t tag.Tag) string {
	element, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	switch v := element.Value.GetValue().(type) {
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case []int:
		if len(v) > 0 {
			return strconv.Itoa(v[0])
		}
	}
	return ""
}

func firstInt(ds dicom.Dataset, t tag.Tag) int {
	element, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}
	switch v := element.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n
			}
		}
	}
	return 0
}
