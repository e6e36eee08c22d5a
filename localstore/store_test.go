package localstore

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"dicom-gateway-api/entities"

	"github.com/stretchr/testify/assert"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	dir, err := ioutil.TempDir("", "localstore")
	assert.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := NewStore(dir, zap.NewNop())
	assert.Nil(t, err)
	return store
}

func mustElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	element, err := dicom.NewElement(tg, value)
	assert.Nil(t, err)
	return element
}

func TestPixelDataMissingInstanceIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.PixelData("1.2.3.4.5")
	assert.True(t, entities.IsNotFound(err))
}

func TestPixelDataRequiresSOPUID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.PixelData("  ")
	assert.True(t, entities.IsValidation(err))
}

func TestPixelDataRejectsUnparseableFile(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Dir(), "1.2.3.dcm")
	assert.Nil(t, ioutil.WriteFile(path, []byte("not a dicom object"), 0o644))

	_, err := store.PixelData("1.2.3")
	assert.NotNil(t, err)
	assert.False(t, entities.IsNotFound(err))
}

func TestExistsAndPath(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Exists("1.2.3"))

	path := store.Path("1.2.3")
	assert.Equal(t, filepath.Join(store.Dir(), "1.2.3.dcm"), path)
	assert.Nil(t, ioutil.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, store.Exists("1.2.3"))
}

func TestOpenMissingInstance(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Open("9.9.9")
	assert.True(t, entities.IsNotFound(err))
}

func nativeFrame(rows, cols int) *frame.Frame {
	data := make([][]int, rows*cols)
	for i := range data {
		data[i] = []int{i}
	}
	return &frame.Frame{
		NativeData: frame.NativeFrame{
			BitsPerSample: 8,
			Rows:          rows,
			Cols:          cols,
			Data:          data,
		},
	}
}

func TestPixelRecordFromDataset(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.Rows, []int{3}),
		mustElement(t, tag.Columns, []int{4}),
		mustElement(t, tag.BitsAllocated, []int{8}),
		mustElement(t, tag.SamplesPerPixel, []int{1}),
		mustElement(t, tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{nativeFrame(3, 4)},
		}),
	}}

	record, err := pixelRecord("1.2.3", ds)
	assert.Nil(t, err)
	assert.Equal(t, "1.2.3", record.SOPInstanceUID)
	assert.Equal(t, 3, record.Rows)
	assert.Equal(t, 4, record.Columns)
	assert.Equal(t, 1, record.Frames)
	assert.Equal(t, 8, record.BitsAllocated)
	// Preview is row-major from the top-left corner.
	assert.Equal(t, [][]int{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
	}, record.Preview)
}

func TestPixelRecordClampsPreviewToFiveByFive(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.Rows, []int{16}),
		mustElement(t, tag.Columns, []int{16}),
		mustElement(t, tag.PixelData, dicom.PixelDataInfo{
			Frames: []*frame.Frame{nativeFrame(16, 16)},
		}),
	}}

	record, err := pixelRecord("1.2.3", ds)
	assert.Nil(t, err)
	assert.Equal(t, 5, len(record.Preview))
	assert.Equal(t, 5, len(record.Preview[0]))
	// Second preview row starts at the second image row.
	assert.Equal(t, 16, record.Preview[1][0])
}

func TestPixelRecordWithoutPixelData(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.Rows, []int{3}),
	}}

	_, err := pixelRecord("1.2.3", ds)
	var decode *entities.DecodeError
	assert.True(t, errors.As(err, &decode))
	// A corrupt stored file is a decode failure, not bad caller input.
	assert.False(t, entities.IsValidation(err))
}
