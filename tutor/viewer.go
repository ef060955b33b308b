package tutor

import "github.com/kkkunny/PDFTutor/tutor/dto"

// Viewer 文档查看器暴露给对话的动作
type Viewer interface {
	JumpToPage(page int) error
	HighlightRegion(h dto.Highlight) error
}
