package formatter

import (
	"fmt"

	"github.com/Ziad-epi/ai-data-copilot/internal/entity"
)

// Formatter renders a report (title + markdown body) into a downloadable
// document.
type Formatter interface {
	Format(title, text string) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: format %q", entity.ErrInvalidParameter, format)
	}
}
