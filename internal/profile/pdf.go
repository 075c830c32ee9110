package profile

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"
)

// ExtractText pulls plain text from an uploaded company-profile PDF. The
// parser panics on some malformed files, so the recover keeps a bad upload
// from taking the server down.
func ExtractText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", fmt.Errorf("pdf contained no extractable text")
	}
	return result, nil
}
