package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

type InputType string

const (
	InputTXT  InputType = "txt"
	InputDOCX InputType = "docx"
	InputPDF  InputType = "pdf"
)

// MaxUploadSize bounds uploaded source documents.
const MaxUploadSize = 10 << 20

var ErrUnsupportedInput = errors.New("unsupported file type, use .pdf, .docx or .txt")

func InputTypeFromFilename(name string) (InputType, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return InputPDF, nil
	case ".docx":
		return InputDOCX, nil
	case ".txt":
		return InputTXT, nil
	}
	return "", ErrUnsupportedInput
}

// ExtractSourceText turns an uploaded document into cleaned source text and reports
// whether it can be sent to generation as is.
func ExtractSourceText(fh *multipart.FileHeader) (*models.ExtractedSourceText, error) {
	kind, err := InputTypeFromFilename(fh.Filename)
	if err != nil {
		return nil, err
	}
	if fh.Size > MaxUploadSize {
		return nil, fmt.Errorf("file is larger than %d MB", MaxUploadSize>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return ExtractSourceTextFromBytes(kind, data)
}

func ExtractSourceTextFromBytes(kind InputType, data []byte) (*models.ExtractedSourceText, error) {
	var (
		raw string
		err error
	)
	switch kind {
	case InputTXT:
		raw, err = ExtractTextFromTXT(bytes.NewReader(data))
	case InputPDF:
		raw, err = ExtractTextFromPDF(bytes.NewReader(data), int64(len(data)))
	case InputDOCX:
		raw, err = ExtractTextFromDOCX(bytes.NewReader(data), int64(len(data)))
	default:
		return nil, ErrUnsupportedInput
	}
	if err != nil {
		return nil, err
	}

	text := PreCleanText(raw)
	return &models.ExtractedSourceText{
		SourceText:   text,
		Length:       models.SourceTextLength(text),
		WithinLimits: models.CheckSourceText(text) == nil,
	}, nil
}
