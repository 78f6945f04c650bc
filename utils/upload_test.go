package utils

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageFile(t *testing.T) {
	assert.NoError(t, ValidateImageFile(&multipart.FileHeader{Filename: "front.JPG", Size: 1024}))
	assert.NoError(t, ValidateImageFile(&multipart.FileHeader{Filename: "back.webp", Size: MaxFileSize}))
	assert.Error(t, ValidateImageFile(&multipart.FileHeader{Filename: "huge.png", Size: MaxFileSize + 1}))
	assert.Error(t, ValidateImageFile(&multipart.FileHeader{Filename: "notes.pdf", Size: 10}))
}
