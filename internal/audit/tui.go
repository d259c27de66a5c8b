package audit

import (
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/staywatch/internal/filter"
	"github.com/amishk599/staywatch/internal/model"
)

// Lines per listing in the list view (title + subtitle + blank separator).
const listingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Check is the outcome of one rule against one listing.
type Check struct {
	Rule   string
	Pass   bool
	Detail string
}

// RuleChecks explains how each rule judged l. Absent fields pass.
func RuleChecks(l model.Listing, r model.Rules) []Check {
	var checks []Check

	price := Check{Rule: "total price", Pass: true, Detail: "not shown"}
	if l.PriceTotal != nil {
		p := *l.PriceTotal
		price.Pass = p >= r.MinTotalPrice && p <= r.MaxTotalPrice
		price.Detail = fmt.Sprintf("%s within [%s, %s]", humanize.Comma(p), humanize.Comma(r.MinTotalPrice), maxLabel(r.MaxTotalPrice))
	}
	checks = append(checks, price)

	rating := Check{Rule: "rating", Pass: true, Detail: "not shown"}
	if l.Rating != nil {
		rating.Pass = *l.Rating >= r.MinRating
		rating.Detail = fmt.Sprintf("%s >= %s", formatFloat(*l.Rating), formatFloat(r.MinRating))
	}
	checks = append(checks, rating)

	cancel := Check{Rule: "free cancel", Pass: true, Detail: "not required"}
	if r.RequireFreeCancel {
		cancel.Pass = l.FreeCancel != model.No
		cancel.Detail = "required, listing says " + l.FreeCancel.String()
	}
	checks = append(checks, cancel)

	return checks
}

func maxLabel(v int64) string {
	if v == math.MaxInt64 {
		return "∞"
	}
	return humanize.Comma(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type auditModel struct {
	allListings     []model.Listing
	matchedListings []model.Listing
	rules           model.Rules
	seen            model.IDSet
	leftViewport    viewport.Model
	rightViewport   viewport.Model
	activePane      int // 0=left, 1=right
	leftCursor      int
	rightCursor     int
	width           int
	height          int
	ready           bool

	view           viewState
	detailListing  model.Listing
	detailViewport viewport.Model

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailListing.URL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allListings)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.matchedListings)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * listingItemHeight
	cursorBottom := cursorTop + listingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	listings := m.activeListings()
	if len(listings) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailListing = listings[m.activeCursor()]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderListings(m.allListings, m.seen, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderListings(m.matchedListings, m.seen, m.rightCursor, m.activePane == 1))
}

func (m auditModel) activeListings() []model.Listing {
	if m.activePane == 0 {
		return m.allListings
	}
	return m.matchedListings
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Listings (%d)", len(m.allListings))
	rightHeader := fmt.Sprintf(" Matching Rules (%d)", len(m.matchedListings))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	unseen := 0
	for _, l := range m.matchedListings {
		if !m.seen.Has(l.ID) {
			unseen++
		}
	}
	statusText := fmt.Sprintf(" %d total | %d matched | %d would notify    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.allListings), len(m.matchedListings), unseen)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Listing Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	l := m.detailListing
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", l.Title)
	addField("Site", l.Provider)
	addField("Location", l.Location)
	addField("Listing ID", l.ID)
	if m.seen.Has(l.ID) {
		addField("Status", "already notified")
	} else {
		addField("Status", "new")
	}

	b.WriteByte('\n')
	addField("Total Price", priceLabel(l))
	if l.Rating != nil {
		addField("Rating", formatFloat(*l.Rating))
	}
	if l.Reviews != nil {
		addField("Reviews", humanize.Comma(int64(*l.Reviews)))
	}
	addField("Free Cancel", l.FreeCancel.String())

	b.WriteByte('\n')
	for _, c := range RuleChecks(l, m.rules) {
		mark := passStyle.Render("✓")
		if !c.Pass {
			mark = failStyle.Render("✗")
		}
		addField(c.Rule, mark+" "+c.Detail)
	}

	b.WriteByte('\n')
	addField("URL", l.URL)

	return b.String()
}

func priceLabel(l model.Listing) string {
	if l.PriceTotal == nil {
		return "n/a"
	}
	return "₩" + humanize.Comma(*l.PriceTotal)
}

func renderListings(listings []model.Listing, seen model.IDSet, cursor int, isActive bool) string {
	if len(listings) == 0 {
		return "  (no listings)"
	}

	var b strings.Builder
	for i, l := range listings {
		isSelected := isActive && i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(l.Title))
		b.WriteByte('\n')

		rating := "n/a"
		if l.Rating != nil {
			rating = formatFloat(*l.Rating)
		}
		sub := fmt.Sprintf("%s · ★ %s", priceLabel(l), rating)
		if seen.Has(l.ID) {
			sub += " · seen"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(listings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sortListingsByPrice orders cheapest first; listings without a price go last.
func sortListingsByPrice(listings []model.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		pi, pj := listings[i].PriceTotal, listings[j].PriceTotal
		if pi == nil || pj == nil {
			return pi != nil && pj == nil
		}
		return *pi < *pj
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

func newAuditModel(listings []model.Listing, rules model.Rules, seen model.IDSet) auditModel {
	if seen == nil {
		seen = model.NewIDSet()
	}
	all := append([]model.Listing(nil), listings...)
	var matched []model.Listing
	for _, l := range all {
		if filter.Match(l, rules) {
			matched = append(matched, l)
		}
	}
	sortListingsByPrice(all)
	sortListingsByPrice(matched)
	return auditModel{
		allListings:     all,
		matchedListings: matched,
		rules:           rules,
		seen:            seen,
	}
}

// RunAuditTUI launches the split-pane view of all extracted listings next to
// the ones that pass rules. seen may be nil.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunAuditTUI(listings []model.Listing, rules model.Rules, seen model.IDSet) (bool, error) {
	p := tea.NewProgram(newAuditModel(listings, rules, seen), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
