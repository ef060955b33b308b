package tutor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sync"

	stlerr "github.com/kkkunny/stl/error"

	"github.com/kkkunny/PDFTutor/internal/config"
	"github.com/kkkunny/PDFTutor/tutor/dto"
)

const defaultPendingLimit = 16

type DispatchStatus string

const (
	DispatchStatusInvoked  DispatchStatus = "invoked"
	DispatchStatusQueued   DispatchStatus = "queued"
	DispatchStatusRejected DispatchStatus = "rejected"
	DispatchStatusFailed   DispatchStatus = "failed"
)

// DispatchResult 一次工具调用的处理结果
type DispatchResult struct {
	ToolCallID string
	ToolName   string
	Status     DispatchStatus
	Err        error
}

// action 校验后的工具调用
type action struct {
	toolCallID string
	toolName   string
	page       int
	highlight  *dto.Highlight
}

type DispatcherOption func(*Dispatcher)

// WithPendingLimit 查看器未注册时最多缓存的调用数
func WithPendingLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.pendingLimit = limit
		}
	}
}

// Dispatcher 把可执行的工具调用派发给查看器，每个调用最多一次
// SetViewer可以在其他goroutine中与Dispatch并发调用
type Dispatcher struct {
	lock         sync.Mutex
	viewer       Viewer
	dispatched   map[string]struct{}
	pending      []*action
	pendingLimit int

	// invokeLock 保证查看器按派发顺序被调用
	invokeLock sync.Mutex
}

func NewDispatcher(viewer Viewer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		viewer:       normalizeViewer(viewer),
		dispatched:   make(map[string]struct{}),
		pendingLimit: defaultPendingLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetViewer 注册查看器并按顺序重放缓存的调用
func (d *Dispatcher) SetViewer(viewer Viewer) []DispatchResult {
	viewer = normalizeViewer(viewer)

	d.invokeLock.Lock()
	defer d.invokeLock.Unlock()

	d.lock.Lock()
	d.viewer = viewer
	pending := d.pending
	if viewer != nil {
		d.pending = nil
	}
	d.lock.Unlock()

	if viewer == nil || len(pending) == 0 {
		return nil
	}
	results := make([]DispatchResult, 0, len(pending))
	for _, act := range pending {
		results = append(results, call(viewer, act))
	}
	return results
}

// Dispatch 扫描快照中新出现的input-available调用
func (d *Dispatcher) Dispatch(msg *dto.Message) []DispatchResult {
	if msg == nil {
		return nil
	}
	var results []DispatchResult
	for _, part := range msg.ToolParts() {
		if part.State != dto.ToolStateInputAvailable || !d.markDispatched(part.ToolCallID) {
			continue
		}
		results = append(results, d.dispatch(part))
	}
	return results
}

// Dispatched 调用是否已处理过
func (d *Dispatcher) Dispatched(toolCallID string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	_, ok := d.dispatched[toolCallID]
	return ok
}

// Pending 等待查看器注册的调用数
func (d *Dispatcher) Pending() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) markDispatched(toolCallID string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.dispatched[toolCallID]; ok {
		return false
	}
	d.dispatched[toolCallID] = struct{}{}
	return true
}

func (d *Dispatcher) dispatch(part *dto.ToolPart) DispatchResult {
	act, err := parseAction(part)
	if err != nil {
		_ = config.Logger.Warnf("reject tool call `%s` (%s): %s", part.ToolCallID, part.ToolName, err)
		return DispatchResult{ToolCallID: part.ToolCallID, ToolName: part.ToolName, Status: DispatchStatusRejected, Err: err}
	}

	d.lock.Lock()
	viewer := d.viewer
	if viewer == nil {
		if len(d.pending) >= d.pendingLimit {
			dropped := d.pending[0]
			d.pending = d.pending[1:]
			_ = config.Logger.Warnf("pending tool calls full, drop `%s` (%s)", dropped.toolCallID, dropped.toolName)
		}
		d.pending = append(d.pending, act)
		d.lock.Unlock()
		return DispatchResult{ToolCallID: act.toolCallID, ToolName: act.toolName, Status: DispatchStatusQueued}
	}
	d.lock.Unlock()

	d.invokeLock.Lock()
	defer d.invokeLock.Unlock()
	return call(viewer, act)
}

// call 调用查看器，错误与panic都只记录
func call(viewer Viewer, act *action) (res DispatchResult) {
	res = DispatchResult{ToolCallID: act.toolCallID, ToolName: act.toolName, Status: DispatchStatusInvoked}

	defer func() {
		if errObj := recover(); errObj != nil {
			_ = config.Logger.Error(errObj)
			res.Status = DispatchStatusFailed
			res.Err = stlerr.Errorf("tool `%s` panicked: %v", act.toolName, errObj)
		}
	}()

	var err error
	switch act.toolName {
	case dto.ToolSetPage:
		err = viewer.JumpToPage(act.page)
	case dto.ToolHighlightRegion:
		err = viewer.HighlightRegion(*act.highlight)
	}
	if err != nil {
		_ = config.Logger.Error(err)
		res.Status = DispatchStatusFailed
		res.Err = err
	}
	return res
}

// normalizeViewer 装着nil指针的接口视为未注册
func normalizeViewer(viewer Viewer) Viewer {
	if viewer == nil {
		return nil
	}
	switch rv := reflect.ValueOf(viewer); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	return viewer
}

type setPageInput struct {
	Page json.RawMessage `json:"page"`
}

type rectInput struct {
	X      json.RawMessage `json:"x"`
	Y      json.RawMessage `json:"y"`
	Width  json.RawMessage `json:"width"`
	Height json.RawMessage `json:"height"`
}

type highlightRegionInput struct {
	Page  json.RawMessage `json:"page"`
	Rects []*rectInput    `json:"rects"`
	Color *string         `json:"color"`
}

func parseAction(part *dto.ToolPart) (*action, error) {
	act := &action{toolCallID: part.ToolCallID, toolName: part.ToolName}

	switch part.ToolName {
	case dto.ToolSetPage:
		var in setPageInput
		if err := decodeInput(part.Input, &in); err != nil {
			return nil, err
		}
		page, err := parsePage(in.Page)
		if err != nil {
			return nil, err
		}
		act.page = page
	case dto.ToolHighlightRegion:
		var in highlightRegionInput
		if err := decodeInput(part.Input, &in); err != nil {
			return nil, err
		}
		page, err := parsePage(in.Page)
		if err != nil {
			return nil, err
		}
		if len(in.Rects) == 0 {
			return nil, invalidInput("rects must not be empty")
		}
		rects := make([]dto.Rect, len(in.Rects))
		for i, r := range in.Rects {
			if r == nil {
				return nil, invalidInput("rects[%d] is null", i)
			}
			var vals [4]float64
			for j, raw := range []json.RawMessage{r.X, r.Y, r.Width, r.Height} {
				v, err := parseUnit(raw)
				if err != nil {
					return nil, invalidInput("rects[%d]: %s", i, err)
				}
				vals[j] = v
			}
			rects[i] = dto.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
		}
		var color string
		if in.Color != nil {
			color = *in.Color
		}
		act.highlight = &dto.Highlight{ID: part.ToolCallID, Page: page, Rects: rects, Color: color}
	default:
		return nil, stlerr.ErrorWrap(fmt.Errorf("%w `%s`", ErrUnknownTool, part.ToolName))
	}
	return act, nil
}

func decodeInput(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return invalidInput("missing input")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalidInput("%s", err)
	}
	return nil
}

// parseNumber 只接受JSON数字字面量
func parseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing value")
	}
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return 0, fmt.Errorf("`%s` is not a number", raw)
	}
	v, err := json.Number(raw).Float64()
	if err != nil {
		return 0, fmt.Errorf("`%s` is not a number", raw)
	}
	return v, nil
}

func parsePage(raw json.RawMessage) (int, error) {
	v, err := parseNumber(raw)
	if err != nil {
		return 0, invalidInput("page: %s", err)
	}
	if v != math.Trunc(v) {
		return 0, invalidInput("page %v is not an integer", v)
	}
	if v < 1 || v > math.MaxInt32 {
		return 0, invalidInput("page %v out of range", v)
	}
	return int(v), nil
}

func parseUnit(raw json.RawMessage) (float64, error) {
	v, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("coordinate %v outside [0,1]", v)
	}
	return v, nil
}

func invalidInput(format string, a ...any) error {
	return stlerr.ErrorWrap(fmt.Errorf("%w: %s", ErrInvalidToolInput, fmt.Sprintf(format, a...)))
}
