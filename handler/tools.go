package handler

import (
	"github.com/sashabaranov/go-openai"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

func unitNumber(description string) map[string]any {
	return map[string]any{
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
		"description": description,
	}
}

// tutorTools 只声明，由浏览器端执行
var tutorTools = []openai.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        dto.ToolSetPage,
			Description: "Navigate the PDF viewer to a page.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"page": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"description": "1-based page number",
					},
				},
				"required":             []string{"page"},
				"additionalProperties": false,
			},
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        dto.ToolHighlightRegion,
			Description: "Highlight one or more rectangular regions on a page of the PDF.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"page": map[string]any{
						"type":        "integer",
						"minimum":     1,
						"description": "1-based page number",
					},
					"rects": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"x":      unitNumber("left edge as a fraction of page width"),
								"y":      unitNumber("top edge as a fraction of page height"),
								"width":  unitNumber("width as a fraction of page width"),
								"height": unitNumber("height as a fraction of page height"),
							},
							"required": []string{"x", "y", "width", "height"},
						},
					},
					"color": map[string]any{
						"type":        "string",
						"description": "optional CSS color",
					},
				},
				"required": []string{"page", "rects"},
			},
		},
	},
}
