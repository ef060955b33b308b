package tutor

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

type fakeViewer struct {
	pages      []int
	highlights []dto.Highlight
	err        error
	panicWith  any
}

func (v *fakeViewer) JumpToPage(page int) error {
	if v.panicWith != nil {
		panic(v.panicWith)
	}
	if v.err != nil {
		return v.err
	}
	v.pages = append(v.pages, page)
	return nil
}

func (v *fakeViewer) HighlightRegion(h dto.Highlight) error {
	if v.panicWith != nil {
		panic(v.panicWith)
	}
	if v.err != nil {
		return v.err
	}
	v.highlights = append(v.highlights, h)
	return nil
}

func toolMessage(parts ...*dto.ToolPart) *dto.Message {
	msg := dto.NewAssistantMessage("a1")
	for _, part := range parts {
		msg.Parts = append(msg.Parts, part)
	}
	return msg
}

func readyCall(id, name, input string) *dto.ToolPart {
	return &dto.ToolPart{ToolCallID: id, ToolName: name, State: dto.ToolStateInputAvailable, Input: json.RawMessage(input)}
}

func TestDispatchAtMostOnce(t *testing.T) {
	viewer := new(fakeViewer)
	d := NewDispatcher(viewer)
	msg := toolMessage(readyCall("c1", dto.ToolSetPage, `{"page":3}`))

	results := d.Dispatch(msg)
	require.Len(t, results, 1)
	assert.Equal(t, DispatchStatusInvoked, results[0].Status)

	for i := 0; i < 3; i++ {
		assert.Empty(t, d.Dispatch(msg.Clone()))
	}
	assert.Equal(t, []int{3}, viewer.pages)
	assert.True(t, d.Dispatched("c1"))
}

func TestDispatchSkipsStreamingInput(t *testing.T) {
	viewer := new(fakeViewer)
	d := NewDispatcher(viewer)
	part := &dto.ToolPart{ToolCallID: "c1", ToolName: dto.ToolSetPage, State: dto.ToolStateInputStreaming, Input: json.RawMessage(`{"page":3}`)}

	assert.Empty(t, d.Dispatch(toolMessage(part)))
	assert.False(t, d.Dispatched("c1"))

	part.State = dto.ToolStateInputAvailable
	require.Len(t, d.Dispatch(toolMessage(part)), 1)
	assert.Equal(t, []int{3}, viewer.pages)
}

func TestDispatchHighlightRegion(t *testing.T) {
	viewer := new(fakeViewer)
	d := NewDispatcher(viewer)

	results := d.Dispatch(toolMessage(readyCall("c9", dto.ToolHighlightRegion,
		`{"page":2,"rects":[{"x":0.1,"y":0.2,"width":0.3,"height":0.1}],"color":"#ff0"}`)))
	require.Len(t, results, 1)
	assert.Equal(t, DispatchStatusInvoked, results[0].Status)

	require.Len(t, viewer.highlights, 1)
	h := viewer.highlights[0]
	assert.Equal(t, "c9", h.ID)
	assert.Equal(t, 2, h.Page)
	assert.Equal(t, "#ff0", h.Color)
	assert.Equal(t, []dto.Rect{{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.1}}, h.Rects)
}

func TestDispatchValidation(t *testing.T) {
	cases := []struct {
		name  string
		tool  string
		input string
		ok    bool
	}{
		{"integral float page", dto.ToolSetPage, `{"page":2.0}`, true},
		{"zero page", dto.ToolSetPage, `{"page":0}`, false},
		{"fractional page", dto.ToolSetPage, `{"page":1.5}`, false},
		{"string page", dto.ToolSetPage, `{"page":"2"}`, false},
		{"missing page", dto.ToolSetPage, `{}`, false},
		{"not an object", dto.ToolSetPage, `[1]`, false},
		{"empty rects", dto.ToolHighlightRegion, `{"page":0,"rects":[]}`, false},
		{"rects missing", dto.ToolHighlightRegion, `{"page":1}`, false},
		{"coordinate above one", dto.ToolHighlightRegion, `{"page":1,"rects":[{"x":1.2,"y":0,"width":0.1,"height":0.1}]}`, false},
		{"negative coordinate", dto.ToolHighlightRegion, `{"page":1,"rects":[{"x":0,"y":-0.1,"width":0.1,"height":0.1}]}`, false},
		{"one bad rect rejects all", dto.ToolHighlightRegion, `{"page":1,"rects":[{"x":0,"y":0,"width":0.1,"height":0.1},{"x":0,"y":0,"width":0.1}]}`, false},
		{"null rect", dto.ToolHighlightRegion, `{"page":1,"rects":[null]}`, false},
		{"bounds inclusive", dto.ToolHighlightRegion, `{"page":1,"rects":[{"x":0,"y":0,"width":1,"height":1}]}`, true},
	}

	for i, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			viewer := new(fakeViewer)
			d := NewDispatcher(viewer)
			results := d.Dispatch(toolMessage(readyCall(fmt.Sprintf("c%d", i), c.tool, c.input)))
			require.Len(t, results, 1)
			if c.ok {
				assert.Equal(t, DispatchStatusInvoked, results[0].Status)
				assert.NoError(t, results[0].Err)
				return
			}
			assert.Equal(t, DispatchStatusRejected, results[0].Status)
			assert.ErrorIs(t, results[0].Err, ErrInvalidToolInput)
			assert.Empty(t, viewer.pages)
			assert.Empty(t, viewer.highlights)
			assert.True(t, d.Dispatched(results[0].ToolCallID))
		})
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	viewer := new(fakeViewer)
	d := NewDispatcher(viewer)

	results := d.Dispatch(toolMessage(readyCall("c1", "zoom", `{"level":2}`)))
	require.Len(t, results, 1)
	assert.Equal(t, DispatchStatusRejected, results[0].Status)
	assert.ErrorIs(t, results[0].Err, ErrUnknownTool)
	assert.True(t, d.Dispatched("c1"))
	assert.Empty(t, d.Dispatch(toolMessage(readyCall("c1", "zoom", `{"level":2}`))))
}

func TestDispatchWithoutViewer(t *testing.T) {
	d := NewDispatcher(nil, WithPendingLimit(2))

	msg := toolMessage(
		readyCall("c1", dto.ToolSetPage, `{"page":1}`),
		readyCall("c2", dto.ToolSetPage, `{"page":2}`),
		readyCall("c3", dto.ToolSetPage, `{"page":3}`),
	)
	results := d.Dispatch(msg)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, DispatchStatusQueued, res.Status)
	}
	assert.Equal(t, 2, d.Pending())

	viewer := new(fakeViewer)
	replayed := d.SetViewer(viewer)
	require.Len(t, replayed, 2)
	assert.Equal(t, "c2", replayed[0].ToolCallID)
	assert.Equal(t, "c3", replayed[1].ToolCallID)
	assert.Equal(t, []int{2, 3}, viewer.pages)
	assert.Zero(t, d.Pending())

	assert.Empty(t, d.Dispatch(msg))
	assert.Empty(t, d.SetViewer(viewer))
}

func TestDispatchActionFailure(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		viewer := &fakeViewer{err: errors.New("page not rendered")}
		d := NewDispatcher(viewer)

		results := d.Dispatch(toolMessage(
			readyCall("c1", dto.ToolSetPage, `{"page":1}`),
			readyCall("c2", dto.ToolSetPage, `{"page":2}`),
		))
		require.Len(t, results, 2)
		for _, res := range results {
			assert.Equal(t, DispatchStatusFailed, res.Status)
			assert.EqualError(t, res.Err, "page not rendered")
		}
	})

	t.Run("panic", func(t *testing.T) {
		viewer := &fakeViewer{panicWith: "boom"}
		d := NewDispatcher(viewer)

		var results []DispatchResult
		require.NotPanics(t, func() {
			results = d.Dispatch(toolMessage(readyCall("c1", dto.ToolHighlightRegion,
				`{"page":1,"rects":[{"x":0,"y":0,"width":0.5,"height":0.5}]}`)))
		})
		require.Len(t, results, 1)
		assert.Equal(t, DispatchStatusFailed, results[0].Status)
		assert.Error(t, results[0].Err)
	})
}

func TestDispatchTypedNilViewerQueues(t *testing.T) {
	var nilViewer *fakeViewer
	d := NewDispatcher(nilViewer)

	results := d.Dispatch(toolMessage(readyCall("c1", dto.ToolSetPage, `{"page":2}`)))
	require.Len(t, results, 1)
	assert.Equal(t, DispatchStatusQueued, results[0].Status)

	assert.Empty(t, d.SetViewer(nilViewer))
	assert.Equal(t, 1, d.Pending())

	viewer := new(fakeViewer)
	replayed := d.SetViewer(viewer)
	require.Len(t, replayed, 1)
	assert.Equal(t, DispatchStatusInvoked, replayed[0].Status)
	assert.Equal(t, []int{2}, viewer.pages)
}
