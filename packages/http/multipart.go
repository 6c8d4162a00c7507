package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

type MultipartFieldType int

const (
	MultipartFieldText MultipartFieldType = iota
	MultipartFieldFile
)

// MultipartField is one part of a multipart/form-data body. File parts read
// Path from disk; text parts send Value.
type MultipartField struct {
	Type  MultipartFieldType
	Name  string
	Value string
	Path  string
}

// Multipart is a request body encoded as multipart/form-data. Relative file
// paths are resolved against BaseDir and may not escape it.
type Multipart struct {
	Fields  []*MultipartField
	BaseDir string
}

// NewMultipart starts an empty form rooted at baseDir.
func NewMultipart(baseDir string) *Multipart {
	return &Multipart{BaseDir: baseDir}
}

func (m *Multipart) Field(name, value string) *Multipart {
	m.Fields = append(m.Fields, &MultipartField{Type: MultipartFieldText, Name: name, Value: value})
	return m
}

func (m *Multipart) File(name, path string) *Multipart {
	m.Fields = append(m.Fields, &MultipartField{Type: MultipartFieldFile, Name: name, Path: path})
	return m
}

// EncodeBody implements client.BodyEncoder.
func (m *Multipart) EncodeBody() (io.Reader, string, error) {
	return BuildMultipartBody(m.Fields, m.BaseDir)
}

// BuildMultipartBody creates a multipart form data body from multipart fields
func BuildMultipartBody(fields []*MultipartField, baseDir string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if field.Type == MultipartFieldFile {
			// Resolve file path relative to base directory
			filePath := field.Path
			if !filepath.IsAbs(filePath) && baseDir != "" {
				filePath = filepath.Join(baseDir, filePath)
			}

			if err := validatePathWithinBase(filePath, baseDir); err != nil {
				return nil, "", err
			}

			file, err := os.Open(filePath)
			if err != nil {
				return nil, "", err
			}

			part, err := writer.CreateFormFile(field.Name, filepath.Base(filePath))
			if err != nil {
				file.Close()
				return nil, "", err
			}

			_, err = io.Copy(part, file)
			file.Close()
			if err != nil {
				return nil, "", err
			}
		} else {
			if err := writer.WriteField(field.Name, field.Value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
