package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"ats-backend/internal/shared/telemetry"
)

// Text pulls text from the PDF at path, one page at a time. Each page's
// text is followed by a newline and the final result is trimmed. Pages
// that yield nothing are skipped; a file that cannot be opened or parsed
// at all is logged and reported as an empty result, never an error, so
// callers treat "" as extraction failure.
// Library used: github.com/ledongthuc/pdf.
func Text(path string) (result string) {
	// The parser panics on some malformed files; fold that into the
	// empty-result contract.
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("extract.parse_panic", map[string]any{
				"path":  path,
				"error": rec,
			})
			result = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		telemetry.Error("extract.open_failed", map[string]any{
			"path": path,
			"err":  err.Error(),
		})
		return ""
	}
	defer f.Close()

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
