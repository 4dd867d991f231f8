package models

import "strings"

// BlockType classifies a recognized region on a page.
type BlockType string

// Block type constants.
const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
	BlockTypeTable BlockType = "table"
)

// IsValid checks if the block type is valid
func (t BlockType) IsValid() bool {
	return t == BlockTypeText || t == BlockTypeImage || t == BlockTypeTable
}

// BBox is a bounding box in page coordinates. Valid when X0 < X1 and Y0 < Y1.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// IsValid reports whether the box has positive extent on both axes.
func (b BBox) IsValid() bool {
	return b.X0 < b.X1 && b.Y0 < b.Y1
}

// UnitBBox is the substitute box used when OCR returns a malformed one.
func UnitBBox() BBox {
	return BBox{X0: 0, Y0: 0, X1: 1, Y1: 1}
}

// PositionedTextBlock is one contiguous piece of recognized text with its
// position on a page. Produced by the OCR pipeline and immutable thereafter.
type PositionedTextBlock struct {
	Text       string    `json:"text"`
	PageNumber int       `json:"page_number"`
	BBox       BBox      `json:"bbox"`
	Confidence float64   `json:"confidence"`
	BlockType  BlockType `json:"block_type"`
}

// IsEmpty reports whether the block carries no usable text.
func (b *PositionedTextBlock) IsEmpty() bool {
	return strings.TrimSpace(b.Text) == ""
}
