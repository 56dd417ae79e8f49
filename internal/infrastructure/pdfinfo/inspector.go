// Package pdfinfo splits uploaded PDFs into per-page documents so each page
// can be rasterized and recognized independently.
package pdfinfo

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

type Inspector struct {
	conf *model.Configuration
}

func New() *Inspector {
	conf := model.NewDefaultConfiguration()
	// Uploads are user-supplied and often slightly malformed scanner output.
	conf.ValidationMode = model.ValidationRelaxed
	return &Inspector{conf: conf}
}

func (i *Inspector) PageCount(ctx context.Context, pdf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := api.PageCount(bytes.NewReader(pdf), i.conf)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "pdf page count", err)
	}
	if count <= 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "pdf page count", fmt.Errorf("document has no pages"))
	}
	return count, nil
}

// ExtractPage returns pageNumber (1-based) as a standalone single-page PDF.
func (i *Inspector) ExtractPage(ctx context.Context, pdf []byte, pageNumber int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageNumber < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "pdf extract page", fmt.Errorf("page number %d", pageNumber))
	}

	var out bytes.Buffer
	selected := []string{strconv.Itoa(pageNumber)}
	if err := api.Trim(bytes.NewReader(pdf), &out, selected, i.conf); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "pdf extract page", err)
	}
	return out.Bytes(), nil
}
