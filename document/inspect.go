package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info describes a selection before it is uploaded.
type Info struct {
	Name     string
	Size     int64
	MimeType string
	Pages    int
}

// Inspect parses the selection locally and counts its pages.
// Malformed documents can make the parser panic; that is reported as an error.
func Inspect(f SelectedFile) (info Info, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = Info{}
			err = fmt.Errorf("read %s: malformed PDF: %v", f.Name, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(f.Open(), conf)
	if err != nil {
		return Info{}, fmt.Errorf("read %s: %w", f.Name, err)
	}

	return Info{
		Name:     f.Name,
		Size:     f.Size,
		MimeType: f.MimeType,
		Pages:    pages,
	}, nil
}
