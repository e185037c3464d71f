package editor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"lesbin/internal/logger"
	"lesbin/internal/nav"
	"lesbin/internal/prefetch"
	"lesbin/internal/search"
)

type searchMsg nav.SearchResult

type countMsg struct {
	gen uint64
	n   int
	err error
}

type prefetchMsg prefetch.Result

func (m *Model) cancelSearch() {
	if m.searchCancel != nil {
		m.searchCancel()
		m.searchCancel = nil
	}
}

// startSearch cancels any running search and starts req over a snapshot
// of the buffer. The match count runs alongside it.
func (m *Model) startSearch(req nav.SearchRequest) tea.Cmd {
	m.cancelSearch()
	ctx, cancel := context.WithCancel(context.Background())
	m.searchCancel = cancel
	m.searchGen = req.Gen
	m.matches = -1
	snap := m.buf.Snapshot()

	find := func() tea.Msg {
		off, found, err := search.Find(ctx, snap, req.Pattern, req.Start, req.Backward)
		return searchMsg{Gen: req.Gen, Offset: off, Found: found, Err: err}
	}
	count := func() tea.Msg {
		n, err := search.Count(ctx, snap, req.Pattern)
		return countMsg{gen: req.Gen, n: n, err: err}
	}
	return tea.Batch(find, count)
}

// prefetchCmd resolves rows around the viewport in the background. It
// returns nil when prefetching is off or already running for this state.
func (m *Model) prefetchCmd() tea.Cmd {
	if !m.config.Editor.Prefetch || m.height == 0 {
		return nil
	}
	vp := m.ctl.Viewport()
	stamp := prefetch.Stamp{Generation: vp.Generation(), Revision: m.buf.Revision()}
	if !m.cache.Begin(stamp) {
		return nil
	}

	extra := int64(m.config.Editor.PrefetchRows * vp.BytesPerRow())
	start := max(vp.Base()-extra, 0)
	n := int(vp.End() + extra - start)
	snap := m.buf.Snapshot()
	logger.DebugTagf("prefetch", "gen=%d rev=%d [0x%X, +%d)", stamp.Generation, stamp.Revision, start, n)

	return func() tea.Msg {
		return prefetchMsg(prefetch.Fetch(context.Background(), snap, stamp, start, n))
	}
}
