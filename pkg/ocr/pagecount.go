package ocr

import (
	"bytes"
	"regexp"
)

// pageObject matches PDF page-object dictionaries. "/Type /Pages" (the
// page tree root) must not count, hence the negative check on the
// trailing rune.
var pageObject = regexp.MustCompile(`/Type\s*/Page([^s]|$)`)

// CountPages estimates the page count of a PDF by scanning for page
// object markers. Used only to scale the OCR timeout, so a rough count
// is fine; unparseable input reports zero and the base timeout applies.
func CountPages(pdf []byte) int {
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return 0
	}
	return len(pageObject.FindAll(pdf, -1))
}
