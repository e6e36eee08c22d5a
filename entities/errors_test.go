package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	validation := NewValidationError("series query requires a %s", "study_instance_uid")
	assert.True(t, IsValidation(validation))
	assert.False(t, IsNotFound(validation))
	assert.Contains(t, validation.Error(), "study_instance_uid")

	notFound := &NotFoundError{Resource: "instance 1.2.3"}
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsValidation(notFound))

	wrapped := fmt.Errorf("tool failed: %w", notFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestUpstreamErrorsUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	unavailable := &UpstreamUnavailableError{URL: "http://pacs:8080", Err: cause}
	assert.True(t, errors.Is(unavailable, cause))

	decode := &DecodeError{ContentType: "application/dicom+json", Err: cause}
	assert.True(t, errors.Is(decode, cause))

	upstream := &UpstreamError{Status: 502, Body: "bad gateway"}
	assert.Contains(t, upstream.Error(), "502")
	assert.Contains(t, upstream.Error(), "bad gateway")
}
