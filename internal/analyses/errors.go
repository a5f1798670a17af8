package analyses

import "errors"

// ErrNoExtractableText indicates the uploaded PDF yielded no text
// (scanned image, corrupt file). The request stops before any remote call.
var ErrNoExtractableText = errors.New("no extractable text in PDF")
