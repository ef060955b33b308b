package dto

const (
	ToolSetPage         = "set_page"
	ToolHighlightRegion = "highlight_region"
)

// Rect 页面内归一化坐标，取值[0,1]
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Highlight 高亮区域，同ID重复下发时覆盖
type Highlight struct {
	ID    string `json:"id"`
	Page  int    `json:"page"`
	Rects []Rect `json:"rects"`
	Color string `json:"color,omitempty"`
}
