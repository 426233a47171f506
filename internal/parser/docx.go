package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

func extractDocx(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			sb.WriteString(fmt.Sprint(item))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
