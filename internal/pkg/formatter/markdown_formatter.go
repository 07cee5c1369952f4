package formatter

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format returns the report body verbatim: it is already markdown with its
// own title heading.
func (mf *MarkdownFormatter) Format(title, text string) ([]byte, error) {
	return []byte(text), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
