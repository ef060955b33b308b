package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

func TestSessionJumpToPage(t *testing.T) {
	s := NewSession(5)
	assert.Equal(t, 1, s.CurrentPage())

	require.NoError(t, s.JumpToPage(4))
	assert.Equal(t, 4, s.CurrentPage())

	assert.ErrorIs(t, s.JumpToPage(6), ErrPageOutOfRange)
	assert.ErrorIs(t, s.JumpToPage(0), ErrPageOutOfRange)
	assert.Equal(t, 4, s.CurrentPage())

	s.SetNumPages(3)
	assert.Equal(t, 3, s.CurrentPage())
}

func TestSessionUnknownPageCount(t *testing.T) {
	s := NewSession(0)
	require.NoError(t, s.JumpToPage(250))
	assert.Equal(t, 250, s.CurrentPage())
}

func TestSessionHighlightLastWriteWins(t *testing.T) {
	s := NewSession(3)
	first := dto.Highlight{ID: "call-1", Page: 2, Rects: []dto.Rect{{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}}}
	second := dto.Highlight{ID: "call-1", Page: 3, Rects: []dto.Rect{{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1}}, Color: "#ff0"}
	other := dto.Highlight{ID: "call-0", Page: 3, Rects: []dto.Rect{{X: 0, Y: 0, Width: 1, Height: 1}}}

	require.NoError(t, s.HighlightRegion(first))
	require.NoError(t, s.HighlightRegion(second))
	require.NoError(t, s.HighlightRegion(other))

	assert.Empty(t, s.Highlights(2))
	page3 := s.Highlights(3)
	require.Len(t, page3, 2)
	assert.Equal(t, "call-0", page3[0].ID)
	assert.Equal(t, second, page3[1])
	assert.Len(t, s.Highlights(0), 2)

	assert.ErrorIs(t, s.HighlightRegion(dto.Highlight{ID: "x", Page: 9}), ErrPageOutOfRange)
	assert.Error(t, s.HighlightRegion(dto.Highlight{Page: 1}))

	s.ClearHighlights()
	assert.Empty(t, s.Highlights(0))
}

func TestSessionHighlightsAcrossPages(t *testing.T) {
	s := NewSession(3)
	require.NoError(t, s.HighlightRegion(dto.Highlight{ID: "c", Page: 3, Rects: []dto.Rect{{Width: 0.1, Height: 0.1}}}))
	require.NoError(t, s.HighlightRegion(dto.Highlight{ID: "a", Page: 1, Rects: []dto.Rect{{Width: 0.2, Height: 0.2}}}))
	require.NoError(t, s.HighlightRegion(dto.Highlight{ID: "b", Page: 3, Rects: []dto.Rect{{Width: 0.3, Height: 0.3}}}))

	all := s.Highlights(0)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	all[0].Page = 2
	assert.Empty(t, s.Highlights(2))
	assert.Len(t, s.Highlights(3), 2)
}
