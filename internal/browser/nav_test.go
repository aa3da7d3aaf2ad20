package browser

import "testing"

func TestNavMoveUpAtZeroIsNoop(t *testing.T) {
	n := NavState{TotalCount: 10, ViewportRows: 5}
	n.MoveUp()
	if n.SelectedIndex != 0 {
		t.Fatalf("expected 0, got %d", n.SelectedIndex)
	}
}

func TestNavMoveDownAtLastIsNoop(t *testing.T) {
	n := NavState{TotalCount: 10, ViewportRows: 5, SelectedIndex: 9}
	n.MoveDown()
	if n.SelectedIndex != 9 {
		t.Fatalf("expected 9, got %d", n.SelectedIndex)
	}
}

func TestNavHomeAndEnd(t *testing.T) {
	n := NavState{TotalCount: 10, ViewportRows: 5, SelectedIndex: 4}
	n.End()
	if n.SelectedIndex != 9 {
		t.Fatalf("expected End to select 9, got %d", n.SelectedIndex)
	}
	n.Home()
	if n.SelectedIndex != 0 {
		t.Fatalf("expected Home to select 0, got %d", n.SelectedIndex)
	}
}

// TestNavBrowserNavigationScenario covers a 1000-row history with a
// 20-row viewport, starting at scroll=0 selected=0.
func TestNavBrowserNavigationScenario(t *testing.T) {
	n := NavState{TotalCount: 1000, ViewportRows: 20}

	n.End()
	if n.SelectedIndex != 999 || n.ScrollOffset != 980 {
		t.Fatalf("after End: selected=%d scroll=%d, want 999/980", n.SelectedIndex, n.ScrollOffset)
	}

	n.PageUp()
	if n.SelectedIndex != 979 || n.ScrollOffset != 960 {
		t.Fatalf("after PageUp: selected=%d scroll=%d, want 979/960", n.SelectedIndex, n.ScrollOffset)
	}

	n.Home()
	if n.SelectedIndex != 0 || n.ScrollOffset != 0 {
		t.Fatalf("after Home: selected=%d scroll=%d, want 0/0", n.SelectedIndex, n.ScrollOffset)
	}
}

func TestNavScrollClampsSelectedIntoView(t *testing.T) {
	n := NavState{TotalCount: 100, ViewportRows: 10, SelectedIndex: 0, ScrollOffset: 0}
	for i := 0; i < 15; i++ {
		n.MoveDown()
	}
	if n.SelectedIndex != 15 {
		t.Fatalf("expected selected 15, got %d", n.SelectedIndex)
	}
	if n.ScrollOffset != 6 {
		t.Fatalf("expected scroll 6 (15-10+1), got %d", n.ScrollOffset)
	}
}

func TestNavSetTotalCountReclampsSelection(t *testing.T) {
	n := NavState{TotalCount: 100, ViewportRows: 10, SelectedIndex: 50}
	n.SetTotalCount(5)
	if n.SelectedIndex != 4 {
		t.Fatalf("expected selection clamped to 4, got %d", n.SelectedIndex)
	}
}

func TestNavFilterModeResetsScrollOnEnterAndExit(t *testing.T) {
	n := NavState{TotalCount: 100, ViewportRows: 10, SelectedIndex: 50, ScrollOffset: 40}
	n.EnterFilterMode()
	if n.SelectedIndex != 0 || n.ScrollOffset != 0 || !n.InFilterMode {
		t.Fatalf("expected filter mode with reset scroll, got %+v", n)
	}
	n.SelectedIndex = 3
	n.ExitFilterMode()
	if n.SelectedIndex != 0 || n.ScrollOffset != 0 || n.InFilterMode {
		t.Fatalf("expected browse mode with reset scroll, got %+v", n)
	}
}

func TestNavResolveRowIndex(t *testing.T) {
	n := NavState{TotalCount: 100, ViewportRows: 10, SelectedIndex: 25, ScrollOffset: 20}
	if got := n.ResolveRowIndex(); got != 5 {
		t.Fatalf("browse mode: expected 5, got %d", got)
	}

	n.InFilterMode = true
	if got := n.ResolveRowIndex(); got != 25 {
		t.Fatalf("filter mode: expected 25, got %d", got)
	}
}
