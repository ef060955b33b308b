package viewer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	stlerr "github.com/kkkunny/stl/error"
	stlslices "github.com/kkkunny/stl/container/slices"
	"golang.org/x/exp/maps"

	"github.com/kkkunny/PDFTutor/tutor/dto"
)

var ErrPageOutOfRange = errors.New("page out of range")

// Session 内存中的查看器状态
type Session struct {
	lock        sync.RWMutex
	numPages    int
	currentPage int
	highlights  map[string]dto.Highlight
}

// NewSession numPages<=0表示页数未知
func NewSession(numPages int) *Session {
	return &Session{
		numPages:    numPages,
		currentPage: 1,
		highlights:  make(map[string]dto.Highlight),
	}
}

func (s *Session) JumpToPage(page int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkPage(page); err != nil {
		return err
	}
	s.currentPage = page
	return nil
}

// HighlightRegion 同ID覆盖之前的高亮
func (s *Session) HighlightRegion(h dto.Highlight) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkPage(h.Page); err != nil {
		return err
	}
	if h.ID == "" {
		return stlerr.Errorf("highlight without id")
	}
	h.Rects = append([]dto.Rect(nil), h.Rects...)
	s.highlights[h.ID] = h
	return nil
}

func (s *Session) CurrentPage() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentPage
}

func (s *Session) NumPages() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.numPages
}

// SetNumPages 文档加载完成后更新页数
func (s *Session) SetNumPages(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.numPages = n
	if n > 0 && s.currentPage > n {
		s.currentPage = n
	}
}

// Highlights 某页的高亮，按ID排序；page<=0返回全部
func (s *Session) Highlights(page int) []dto.Highlight {
	s.lock.RLock()
	defer s.lock.RUnlock()

	all := maps.Values(s.highlights)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if page <= 0 {
		return all
	}
	return stlslices.Filter(all, func(_ int, h dto.Highlight) bool {
		return h.Page == page
	})
}

func (s *Session) ClearHighlights() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.highlights = make(map[string]dto.Highlight)
}

func (s *Session) checkPage(page int) error {
	if page < 1 || (s.numPages > 0 && page > s.numPages) {
		return stlerr.ErrorWrap(fmt.Errorf("%w: %d not in [1,%d]", ErrPageOutOfRange, page, s.numPages))
	}
	return nil
}
