package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLUTExplanationFull(t *testing.T) {
	parsed := ParseLUTExplanation("Kerma linearization InCalibRange: 0.5-7.3 OutLUTRange: 0-16383")
	assert.Equal(t, "Kerma linearization", parsed.Explanation)
	assert.Equal(t, &[2]float64{0.5, 7.3}, parsed.InCalibRange)
	assert.Equal(t, &[2]float64{0, 16383}, parsed.OutLUTRange)
}

func TestParseLUTExplanationTextOnly(t *testing.T) {
	parsed := ParseLUTExplanation("Plain description without ranges")
	assert.Equal(t, "Plain description without ranges", parsed.Explanation)
	assert.Nil(t, parsed.InCalibRange)
	assert.Nil(t, parsed.OutLUTRange)
}

func TestParseLUTExplanationSingleValueRange(t *testing.T) {
	parsed := ParseLUTExplanation("Cal InCalibRange: 10")
	assert.Equal(t, &[2]float64{10, 10}, parsed.InCalibRange)
	assert.Nil(t, parsed.OutLUTRange)
}

func TestParseLUTExplanationEmpty(t *testing.T) {
	parsed := ParseLUTExplanation("")
	assert.Equal(t, "", parsed.FullText)
	assert.Equal(t, "", parsed.Explanation)
	assert.Nil(t, parsed.InCalibRange)
}

func TestParseRange(t *testing.T) {
	assert.Equal(t, &[2]float64{1, 5.5}, parseRange("1.0-5.5"))
	assert.Equal(t, &[2]float64{10, 10}, parseRange("10"))
	assert.Nil(t, parseRange(""))
	assert.Nil(t, parseRange("a-b"))
	assert.Nil(t, parseRange("1-2-3"))
}
