package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zcc135820/reqpipe/sdk/api"
	"github.com/zcc135820/reqpipe/sdk/client"
)

// TableSource fetches table pages. *api.TableAPI implements it.
type TableSource interface {
	List(ctx context.Context, q api.PageQuery, opts ...client.RequestOption) (api.Page[api.TableItem], error)
	Search(ctx context.Context, q api.TableSearch, opts ...client.RequestOption) (api.Page[api.TableItem], error)
}

// statusFilters is the cycle applied by the status key.
var statusFilters = []string{"", "active", "banned"}

const defaultPageSize = 10

// Browser is the bubbletea model paging through the table resource.
type Browser struct {
	ctx    context.Context
	source TableSource
	hook   *LogHook

	table     table.Model
	search    textinput.Model
	searching bool

	keyword  string
	status   string
	page     int
	pageSize int
	total    int

	// seq identifies the latest fetch; older responses are ignored.
	seq     int
	loading bool
	err     string
	lastLog string

	width  int
	height int
}

type pageLoadedMsg struct {
	seq  int
	page api.Page[api.TableItem]
	err  error
}

type logLineMsg string

// NewBrowser creates the browser model. hook may be nil.
func NewBrowser(ctx context.Context, source TableSource, pageSize int, hook *LogHook) Browser {
	if ctx == nil {
		ctx = context.Background()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	ti := textinput.New()
	ti.Placeholder = "keyword"
	ti.CharLimit = 64
	ti.Prompt = "/ "

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 16},
			{Title: "Age", Width: 5},
			{Title: "Num", Width: 8},
			{Title: "Status", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(pageSize),
		table.WithStyles(tableStyles()),
	)

	return Browser{
		ctx:      ctx,
		source:   source,
		hook:     hook,
		table:    t,
		search:   ti,
		page:     1,
		pageSize: pageSize,
		seq:      1,
		loading:  true,
	}
}

// Init implements tea.Model.
func (b Browser) Init() tea.Cmd {
	if b.hook == nil {
		return b.fetch(b.seq)
	}
	return tea.Batch(b.fetch(b.seq), b.waitForLog)
}

// load advances the sequence and returns the command fetching the current page.
func (b *Browser) load() tea.Cmd {
	b.seq++
	b.loading = true
	return b.fetch(b.seq)
}

func (b Browser) fetch(seq int) tea.Cmd {
	source := b.source
	ctx := b.ctx
	q := api.PageQuery{Page: b.page, PageSize: b.pageSize}
	keyword, status := b.keyword, b.status
	return func() tea.Msg {
		opts := []client.RequestOption{client.WithoutLoading(), client.WithoutErrorDisplay()}
		var (
			page api.Page[api.TableItem]
			err  error
		)
		if keyword != "" || status != "" {
			page, err = source.Search(ctx, api.TableSearch{PageQuery: q, Keyword: keyword, Status: status}, opts...)
		} else {
			page, err = source.List(ctx, q, opts...)
		}
		return pageLoadedMsg{seq: seq, page: page, err: err}
	}
}

func (b Browser) waitForLog() tea.Msg {
	line, ok := <-b.hook.Chan()
	if !ok {
		return nil
	}
	return logLineMsg(line)
}

// Update implements tea.Model.
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		if h := msg.Height - 8; h > 3 {
			b.table.SetHeight(min(h, b.pageSize+1))
		}
		return b, nil
	case pageLoadedMsg:
		if msg.seq != b.seq {
			return b, nil
		}
		b.loading = false
		if msg.err != nil {
			b.err = describe(msg.err)
			return b, nil
		}
		b.err = ""
		b.total = msg.page.Total
		b.table.SetRows(rows(msg.page.List))
		b.table.SetCursor(0)
		return b, nil
	case logLineMsg:
		b.lastLog = string(msg)
		return b, b.waitForLog
	case tea.KeyMsg:
		if b.searching {
			return b.updateSearch(msg)
		}
		return b.updateKeys(msg)
	}
	return b, nil
}

func (b Browser) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return b, tea.Quit
	case tea.KeyEsc:
		b.searching = false
		b.search.Blur()
		b.search.SetValue(b.keyword)
		b.table.Focus()
		return b, nil
	case tea.KeyEnter:
		b.searching = false
		b.search.Blur()
		b.table.Focus()
		b.keyword = strings.TrimSpace(b.search.Value())
		b.page = 1
		return b, b.load()
	}
	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	return b, cmd
}

func (b Browser) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return b, tea.Quit
	case "n", "right":
		if b.page < b.pages() {
			b.page++
			return b, b.load()
		}
		return b, nil
	case "p", "left":
		if b.page > 1 {
			b.page--
			return b, b.load()
		}
		return b, nil
	case "r":
		return b, b.load()
	case "s":
		b.status = nextStatus(b.status)
		b.page = 1
		return b, b.load()
	case "/":
		b.searching = true
		b.table.Blur()
		b.search.SetValue(b.keyword)
		b.search.CursorEnd()
		return b, b.search.Focus()
	case "c":
		if b.keyword == "" && b.status == "" {
			return b, nil
		}
		b.keyword, b.status = "", ""
		b.search.SetValue("")
		b.page = 1
		return b, b.load()
	}
	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// pages is the number of pages for the current total, at least one.
func (b Browser) pages() int {
	if b.total <= 0 {
		return 1
	}
	return (b.total + b.pageSize - 1) / b.pageSize
}

// View implements tea.Model.
func (b Browser) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Table"))
	sb.WriteString("\n")

	var filters []string
	if b.keyword != "" {
		filters = append(filters, "keyword="+b.keyword)
	}
	if b.status != "" {
		filters = append(filters, "status="+b.status)
	}
	if len(filters) > 0 {
		sb.WriteString(filterStyle.Render(strings.Join(filters, "  ")))
		sb.WriteString("\n")
	}
	if b.searching {
		sb.WriteString(b.search.View())
		sb.WriteString("\n")
	}

	sb.WriteString(sectionStyle.Render(b.table.View()))
	sb.WriteString("\n")

	state := fmt.Sprintf("page %d/%d  total %d", b.page, b.pages(), b.total)
	if b.loading {
		state += "  loading..."
	}
	sb.WriteString(statusBarStyle.Render(state))
	sb.WriteString("\n")
	if b.err != "" {
		sb.WriteString(errorStyle.Render("✗ " + b.err))
		sb.WriteString("\n")
	} else if b.lastLog != "" {
		sb.WriteString(helpStyle.Render(truncate(b.lastLog, b.width)))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("[n/p] page  [↑/↓] move  [/] keyword  [s] status  [c] clear  [r] reload  [q] quit"))
	return sb.String()
}

func rows(items []api.TableItem) []table.Row {
	out := make([]table.Row, 0, len(items))
	for _, it := range items {
		out = append(out, table.Row{
			strconv.Itoa(it.ID),
			it.Name,
			strconv.Itoa(it.Age),
			strconv.Itoa(it.Num),
			statusStyle(it.Status).Render(it.Status),
		})
	}
	return out
}

func nextStatus(current string) string {
	for i, s := range statusFilters {
		if s == current {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return statusFilters[0]
}

func describe(err error) string {
	if e, ok := client.AsError(err); ok {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return err.Error()
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) < width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Run starts the browser on the alternate screen until the user quits or ctx is cancelled.
// output specifies where bubbletea renders. If nil, defaults to os.Stdout.
func Run(ctx context.Context, source TableSource, pageSize int, hook *LogHook, output io.Writer) error {
	if output == nil {
		output = os.Stdout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(NewBrowser(ctx, source, pageSize, hook), tea.WithAltScreen(), tea.WithOutput(output), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
