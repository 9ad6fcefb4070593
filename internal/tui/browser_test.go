package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zcc135820/reqpipe/sdk/api"
	"github.com/zcc135820/reqpipe/sdk/client"
)

type fakeSource struct {
	total    int
	lists    []api.PageQuery
	searches []api.TableSearch
	err      error
}

func (f *fakeSource) page(q api.PageQuery) api.Page[api.TableItem] {
	out := api.Page[api.TableItem]{Total: f.total, Page: q.Page, PageSize: q.PageSize}
	start := (q.Page - 1) * q.PageSize
	for i := start; i < start+q.PageSize && i < f.total; i++ {
		out.List = append(out.List, api.TableItem{ID: i, Name: "user", Status: "active"})
	}
	return out
}

func (f *fakeSource) List(_ context.Context, q api.PageQuery, _ ...client.RequestOption) (api.Page[api.TableItem], error) {
	f.lists = append(f.lists, q)
	if f.err != nil {
		return api.Page[api.TableItem]{}, f.err
	}
	return f.page(q), nil
}

func (f *fakeSource) Search(_ context.Context, q api.TableSearch, _ ...client.RequestOption) (api.Page[api.TableItem], error) {
	f.searches = append(f.searches, q)
	if f.err != nil {
		return api.Page[api.TableItem]{}, f.err
	}
	return f.page(q.PageQuery), nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step applies msg and, when it started a fetch, runs the fetch synchronously.
func step(t *testing.T, b Browser, msg tea.Msg) Browser {
	t.Helper()
	m, cmd := b.Update(msg)
	b = m.(Browser)
	if cmd == nil || !b.loading {
		return b
	}
	if loaded, ok := cmd().(pageLoadedMsg); ok {
		m, _ = b.Update(loaded)
		b = m.(Browser)
	}
	return b
}

func start(t *testing.T, src *fakeSource) Browser {
	t.Helper()
	b := NewBrowser(context.Background(), src, 10, nil)
	loaded, ok := b.Init()().(pageLoadedMsg)
	if !ok {
		t.Fatalf("Init did not produce a page message")
	}
	m, _ := b.Update(loaded)
	return m.(Browser)
}

func TestBrowserLoadsFirstPage(t *testing.T) {
	src := &fakeSource{total: 25}
	b := start(t, src)
	if b.loading {
		t.Fatalf("still loading after first page")
	}
	if got := len(b.table.Rows()); got != 10 {
		t.Fatalf("rows = %d, want 10", got)
	}
	if b.pages() != 3 {
		t.Fatalf("pages = %d, want 3", b.pages())
	}
	if !strings.Contains(b.View(), "page 1/3  total 25") {
		t.Fatalf("view missing page state:\n%s", b.View())
	}
}

func TestBrowserPaging(t *testing.T) {
	src := &fakeSource{total: 25}
	b := start(t, src)

	b = step(t, b, key("n"))
	b = step(t, b, key("n"))
	if b.page != 3 || len(b.table.Rows()) != 5 {
		t.Fatalf("page = %d rows = %d, want 3 and 5", b.page, len(b.table.Rows()))
	}
	calls := len(src.lists)
	b = step(t, b, key("n"))
	if b.page != 3 || len(src.lists) != calls {
		t.Fatalf("paged past the last page")
	}
	b = step(t, b, key("p"))
	if b.page != 2 {
		t.Fatalf("page = %d, want 2", b.page)
	}
	if last := src.lists[len(src.lists)-1]; last.Page != 2 || last.PageSize != 10 {
		t.Fatalf("last query = %+v", last)
	}
}

func TestBrowserIgnoresStaleResponses(t *testing.T) {
	src := &fakeSource{total: 25}
	b := start(t, src)

	m, first := b.Update(key("n"))
	b = m.(Browser)
	m, second := b.Update(key("r"))
	b = m.(Browser)

	staleMsg := first()
	m, _ = b.Update(staleMsg)
	b = m.(Browser)
	if !b.loading {
		t.Fatalf("stale response cleared the loading state")
	}
	m, _ = b.Update(second())
	b = m.(Browser)
	if b.loading {
		t.Fatalf("current response not applied")
	}
}

func TestBrowserKeywordSearch(t *testing.T) {
	src := &fakeSource{total: 25}
	b := start(t, src)

	b = step(t, b, key("/"))
	if !b.searching {
		t.Fatalf("search input not opened")
	}
	for _, r := range "user" {
		b = step(t, b, key(string(r)))
	}
	b = step(t, b, key("enter"))
	if b.searching || b.keyword != "user" {
		t.Fatalf("searching = %t keyword = %q", b.searching, b.keyword)
	}
	if len(src.searches) != 1 || src.searches[0].Keyword != "user" || src.searches[0].Page != 1 {
		t.Fatalf("searches = %+v", src.searches)
	}

	b = step(t, b, key("s"))
	if got := src.searches[len(src.searches)-1]; got.Status != "active" || got.Keyword != "user" {
		t.Fatalf("status search = %+v", got)
	}

	lists := len(src.lists)
	b = step(t, b, key("c"))
	if b.keyword != "" || b.status != "" || len(src.lists) != lists+1 {
		t.Fatalf("clear did not return to the plain listing")
	}
}

func TestBrowserShowsNormalizedError(t *testing.T) {
	src := &fakeSource{total: 25, err: &client.Error{Code: 401, Message: "unauthorized"}}
	b := start(t, src)
	if b.err != "unauthorized (code 401)" {
		t.Fatalf("err = %q", b.err)
	}
	if !strings.Contains(b.View(), "unauthorized (code 401)") {
		t.Fatalf("view missing error line")
	}
}

func TestBrowserQuit(t *testing.T) {
	b := start(t, &fakeSource{total: 1})
	_, cmd := b.Update(key("q"))
	if cmd == nil {
		t.Fatalf("quit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestNextStatusCycles(t *testing.T) {
	if nextStatus("") != "active" || nextStatus("active") != "banned" || nextStatus("banned") != "" {
		t.Fatalf("unexpected status cycle")
	}
}
