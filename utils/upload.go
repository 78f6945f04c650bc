package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// AllowedImageTypes defines the allowed image file extensions
var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ValidateImageFile checks if the uploaded file is a valid image
func ValidateImageFile(file *multipart.FileHeader) error {
	if file.Size > MaxFileSize {
		return fmt.Errorf("file %s exceeds 5MB limit", file.Filename)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !AllowedImageTypes[ext] {
		return fmt.Errorf("invalid file type for %s. Allowed types: jpg, jpeg, png, webp", file.Filename)
	}

	return nil
}
