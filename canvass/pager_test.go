package canvass

import "testing"

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPagerExample(t *testing.T) {
	p := NewPager(seq(23), 1, 10, 0)
	if p.TotalPages != 3 {
		t.Fatalf("TotalPages = %d", p.TotalPages)
	}
	if !p.SetPage(2) {
		t.Fatalf("SetPage(2) refused")
	}
	if p.StartIndex != 10 || p.EndIndex != 19 || len(p.PageItems) != 10 || p.PageItems[0] != 11 {
		t.Fatalf("page 2: start=%d end=%d items=%v", p.StartIndex, p.EndIndex, p.PageItems)
	}
	if p.SetPage(5) || p.CurrentPage != 2 {
		t.Fatalf("SetPage(5) should be a no-op, page=%d", p.CurrentPage)
	}
	p.SetPage(3)
	if len(p.PageItems) != 3 || p.EndIndex != 22 {
		t.Fatalf("last page: %v", p.PageItems)
	}
}

func TestPagerInvariant(t *testing.T) {
	for total := 0; total <= 23; total++ {
		for per := 1; per <= 7; per++ {
			p := NewPager(seq(total), 1, per, 3)
			for page := 1; page <= max(1, p.TotalPages); page++ {
				p.SetPage(page)
				if p.CurrentPage < 1 || p.CurrentPage > max(1, p.TotalPages) {
					t.Fatalf("total=%d per=%d: page %d out of range", total, per, p.CurrentPage)
				}
				want := 0
				if total > 0 {
					want = min(per, total-p.StartIndex)
				}
				if len(p.PageItems) != want {
					t.Fatalf("total=%d per=%d page=%d: %d items, want %d", total, per, page, len(p.PageItems), want)
				}
				for i := 1; i < len(p.DisplayedPageNumbers); i++ {
					if p.DisplayedPageNumbers[i] != p.DisplayedPageNumbers[i-1]+1 {
						t.Fatalf("window not contiguous: %v", p.DisplayedPageNumbers)
					}
				}
				if len(p.DisplayedPageNumbers) > 3 {
					t.Fatalf("window too wide: %v", p.DisplayedPageNumbers)
				}
			}
		}
	}
}

func TestPagerWindow(t *testing.T) {
	p := NewPager(seq(100), 1, 5, 5)
	cases := []struct {
		page       int
		start, end int
	}{
		{1, 1, 5},
		{2, 1, 5},
		{10, 8, 12},
		{19, 16, 20},
		{20, 16, 20},
	}
	for _, c := range cases {
		p.SetPage(c.page)
		if p.WindowStartPage != c.start || p.WindowEndPage != c.end {
			t.Fatalf("page %d: window %d-%d, want %d-%d", c.page, p.WindowStartPage, p.WindowEndPage, c.start, c.end)
		}
	}
}

func TestPagerConfigureKeepsSettings(t *testing.T) {
	p := NewPager(seq(50), 4, 10, 0)
	p.Configure(nil, 0, 0, 0)
	if p.CurrentPage != 4 || p.ItemsPerPage != 10 || p.TotalItems != 50 {
		t.Fatalf("settings lost: %+v", p)
	}
	p.Configure(seq(12), 0, 0, 0)
	if p.CurrentPage != 2 {
		t.Fatalf("current page not clamped: %d", p.CurrentPage)
	}
	p.Configure([]int{}, 0, 0, 0)
	if p.CurrentPage != 1 || p.TotalPages != 0 || len(p.PageItems) != 0 {
		t.Fatalf("empty: %+v", p)
	}
}

func TestPagerSteps(t *testing.T) {
	p := NewPager(seq(30), 1, 10, 0)
	p.NextPage()
	p.NextPage()
	p.NextPage()
	if p.CurrentPage != 3 {
		t.Fatalf("NextPage past end: %d", p.CurrentPage)
	}
	p.StepPage(-10)
	if p.CurrentPage != 1 {
		t.Fatalf("StepPage clamp: %d", p.CurrentPage)
	}
	p.SetPage(3)
	p.SetItemsPerPage(4)
	if p.CurrentPage != 6 || p.PageItems[0] != 21 {
		t.Fatalf("SetItemsPerPage: page=%d items=%v", p.CurrentPage, p.PageItems)
	}
	p.PrevPage()
	if p.CurrentPage != 5 {
		t.Fatalf("PrevPage: %d", p.CurrentPage)
	}
}
