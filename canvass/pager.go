package canvass

const (
	DefaultItemsPerPage      = 10
	DefaultMaxDisplayedPages = 10
)

// Pager is a windowed pagination view over a slice. Every mutating call
// recomputes the whole state; the exported fields are read-only.
type Pager[T any] struct {
	Items                   []T
	CurrentPage             int
	ItemsPerPage            int
	MaxDisplayedPageNumbers int

	TotalItems           int
	TotalPages           int
	WindowStartPage      int
	WindowEndPage        int
	StartIndex           int
	EndIndex             int
	DisplayedPageNumbers []int
	PageItems            []T
}

// NewPager builds a pager; non-positive arguments take the defaults
// (page 1, DefaultItemsPerPage, DefaultMaxDisplayedPages).
func NewPager[T any](items []T, currentPage, itemsPerPage, maxDisplayed int) *Pager[T] {
	p := &Pager[T]{
		Items:                   []T{},
		CurrentPage:             1,
		ItemsPerPage:            DefaultItemsPerPage,
		MaxDisplayedPageNumbers: DefaultMaxDisplayedPages,
	}
	p.Configure(items, currentPage, itemsPerPage, maxDisplayed)
	return p
}

// Configure replaces the given settings; a nil items slice or a
// non-positive number keeps the previous value. The current page is
// clamped into [1, TotalPages].
func (p *Pager[T]) Configure(items []T, currentPage, itemsPerPage, maxDisplayed int) {
	if items != nil {
		p.Items = items
	}
	if currentPage > 0 {
		p.CurrentPage = currentPage
	}
	if itemsPerPage > 0 {
		p.ItemsPerPage = itemsPerPage
	}
	if maxDisplayed > 0 {
		p.MaxDisplayedPageNumbers = maxDisplayed
	}
	p.recount()
	p.CurrentPage = clamp(p.CurrentPage, 1, max(1, p.TotalPages))
	if p.TotalPages == 0 {
		p.empty()
		return
	}
	p.SetPage(p.CurrentPage)
}

func (p *Pager[T]) recount() {
	p.TotalItems = len(p.Items)
	p.TotalPages = (p.TotalItems + p.ItemsPerPage - 1) / p.ItemsPerPage
}

func (p *Pager[T]) empty() {
	p.WindowStartPage, p.WindowEndPage = 0, 0
	p.StartIndex, p.EndIndex = 0, -1
	p.DisplayedPageNumbers = []int{}
	p.PageItems = []T{}
}

// SetPage moves to page n. It is a no-op, returning false, when n is
// outside [1, TotalPages].
func (p *Pager[T]) SetPage(n int) bool {
	if n < 1 || n > p.TotalPages {
		return false
	}
	p.CurrentPage = n
	p.WindowStartPage, p.WindowEndPage = p.window(n)
	p.DisplayedPageNumbers = make([]int, 0, p.WindowEndPage-p.WindowStartPage+1)
	for i := p.WindowStartPage; i <= p.WindowEndPage; i++ {
		p.DisplayedPageNumbers = append(p.DisplayedPageNumbers, i)
	}
	p.StartIndex = (n - 1) * p.ItemsPerPage
	p.EndIndex = min(p.StartIndex+p.ItemsPerPage, p.TotalItems) - 1
	p.PageItems = p.Items[p.StartIndex : p.EndIndex+1]
	return true
}

// window centres the displayed page numbers on n without running past
// the first or last page.
func (p *Pager[T]) window(n int) (start, end int) {
	if p.TotalPages <= p.MaxDisplayedPageNumbers {
		return 1, p.TotalPages
	}
	start = n - p.MaxDisplayedPageNumbers/2
	if start < 1 {
		start = 1
	}
	end = start + p.MaxDisplayedPageNumbers - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - p.MaxDisplayedPageNumbers + 1
	}
	return start, end
}

// SetItemsPerPage changes the page size and moves to the page holding
// the first item of the current page.
func (p *Pager[T]) SetItemsPerPage(n int) bool {
	if n < 1 {
		return false
	}
	first := p.StartIndex
	p.ItemsPerPage = n
	p.recount()
	if p.TotalPages == 0 {
		p.CurrentPage = 1
		p.empty()
		return false
	}
	return p.SetPage(clamp(first/n+1, 1, p.TotalPages))
}

// SetMaxDisplayedPageNumbers changes the window size.
func (p *Pager[T]) SetMaxDisplayedPageNumbers(n int) bool {
	if n < 1 {
		return false
	}
	p.MaxDisplayedPageNumbers = n
	return p.SetPage(p.CurrentPage)
}

// StepPage moves delta pages, stopping at the first or last page.
func (p *Pager[T]) StepPage(delta int) bool {
	if p.TotalPages == 0 {
		return false
	}
	return p.SetPage(clamp(p.CurrentPage+delta, 1, p.TotalPages))
}

func (p *Pager[T]) NextPage() bool { return p.StepPage(1) }
func (p *Pager[T]) PrevPage() bool { return p.StepPage(-1) }

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
