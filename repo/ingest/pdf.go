package ingest

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// PageText 一页PDF的纯文本
type PageText struct {
	Page int // 1-based 页码，作为分块的来源元数据
	Text string
}

// ExtractPDFPages 按页提取PDF文本，整页无文本层的页被跳过
func ExtractPDFPages(data []byte) ([]PageText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract pdf failed, open err: %w", err)
	}

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("extract pdf failed, no text layer found")
	}
	return pages, nil
}
