package parser

import (
	"fmt"
	"strings"
)

// ParseError wraps a format-specific extraction failure. Ingestion treats it
// as fatal for the upload; no fallback re-parsing is attempted.
type ParseError struct {
	FileType string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s document: %v", e.FileType, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse extracts plain text from a raw upload, routing on the declared
// file-type label. Unrecognized labels are treated as plain text.
func Parse(data []byte, fileType string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(fileType))
	switch kind {
	case "pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", &ParseError{FileType: kind, Err: err}
		}
		return text, nil
	case "doc", "docx":
		text, err := extractDocx(data)
		if err != nil {
			return "", &ParseError{FileType: kind, Err: err}
		}
		return text, nil
	default:
		// txt, text, md, markdown and anything else: bytes are the text.
		return string(data), nil
	}
}
