package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/drag"
	"github.com/fishalchemy/reel/internal/store"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 35
	headerLines    = 2  // title line + hints line
	pageJumpSize   = 10 // Number of items to jump with Ctrl+D/U
	indicatorWidth = 2
)

// Styles for the board view - base styles without width/height (set dynamically)
var (
	columnHeaderStyle = lipgloss.NewStyle().Bold(true)

	cardStyle         = textStyle
	selectedCardStyle = selectedStyle
	draggedCardStyle  = lipgloss.NewStyle().Background(colorTide).Foreground(colorInk)
)

// BoardModel is the kanban board of one project. Tickets are shown in four
// columns, one per state, and can be dragged between them with the keyboard
// or the mouse. Moves are shown at once and reconciled when the server
// answers.
type BoardModel struct {
	// Dependencies
	store  *store.Store
	drag   *drag.Controller
	client *api.Client
	ctx    context.Context
	logger *slog.Logger

	// UI components
	keymap      KeyMap
	help        helpOverlay
	spinner     spinner.Model
	filterInput textinput.Model
	form        *FormModel

	// Board state
	columns        []domain.TicketState
	filtered       map[domain.TicketState][]domain.Ticket
	selectedColumn int
	columnOffset   int // first visible column index
	selectedCard   map[domain.TicketState]int
	scrollOffset   map[domain.TicketState]int

	// View state
	width        int
	height       int
	showHelp     bool
	filterMode   bool
	filterText   string
	filterMyOnly bool
	moveMode     bool
	sortMenu     bool
	dragging     bool // keyboard drag in progress
	mouseDrag    bool // left button held on a ticket
	loading      bool
}

// NewBoardModel creates a board over a store that already holds the
// project's tickets.
func NewBoardModel(s *store.Store, client *api.Client, ctx context.Context, logger *slog.Logger) BoardModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorTide)

	ti := textinput.New()
	ti.Placeholder = "Search, or #12 for a ticket number..."
	ti.Prompt = "/ "

	m := BoardModel{
		store:        s,
		drag:         drag.New(s),
		client:       client,
		ctx:          ctx,
		logger:       logger,
		keymap:       DefaultKeyMap(),
		help:         newHelpOverlay("Board keys", DefaultKeyMap()),
		spinner:      sp,
		filterInput:  ti,
		columns:      domain.TicketStates,
		filtered:     make(map[domain.TicketState][]domain.Ticket),
		selectedCard: make(map[domain.TicketState]int),
		scrollOffset: make(map[domain.TicketState]int),
	}
	m.applyFilter()
	return m
}

// Init starts the spinner and asks for the terminal size.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.adjustColumnScroll()
		return m, nil

	case resumedMsg:
		m.applyFilter()
		return m, nil

	case ticketMovedMsg:
		if !m.store.Owns(msg.mutation) {
			// Begun on a board that has since been closed or reloaded.
			m.logger.Debug("Ignored move for a previous board", "ticket", msg.mutation.TicketID)
			return m, nil
		}
		m.reconcileMove(msg)
		return m, nil

	case ticketCreatedMsg:
		return m.handleCreated(msg)

	case ticketChangedMsg:
		if err := m.store.Update(msg.ticket); err != nil {
			m.store.Add(msg.ticket)
		}
		m.applyFilter()
		return m, nil

	case projectChangedMsg:
		if p := m.store.Project(); p != nil && p.ID == msg.project.ID {
			merged := mergeProject(*p, msg.project)
			m.store.SetProject(&merged)
		}
		return m, nil

	case ticketDeletedMsg:
		_ = m.store.Remove(msg.id)
		m.applyFilter()
		return m, nil

	case boardRefreshedMsg:
		m.loading = false
		project, ok := msg.res.Value()
		if msg.err != nil || !ok {
			reportFailure(m.logger, "Could not refresh the board", msg.res.Status(), msg.res.Message(), msg.err)
			return m, nil
		}
		m.reload(project)
		return m, nil

	case formSubmittedMsg:
		if m.form == nil || msg.id != m.form.ID() {
			return m, nil
		}
		return m, m.createTicket(msg.values)

	case formCancelledMsg:
		m.form = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.form != nil {
		form, cmd := m.form.Update(msg)
		m.form = &form
		return m, cmd
	}

	// Help overlay
	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Quit, m.keymap.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			m.applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	if m.dragging {
		return m.handleDragKeys(msg)
	}
	if m.moveMode {
		return m.handleMoveMode(msg)
	}
	if m.sortMenu {
		return m.handleSortMenu(msg)
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		return m, func() tea.Msg { return backMsg{} }
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
		return m, textinput.Blink
	case "h", "left":
		m.selectColumn(m.selectedColumn - 1)
	case "l", "right":
		m.selectColumn(m.selectedColumn + 1)
	case "j", "down":
		m.moveCardSelection(1)
	case "k", "up":
		m.moveCardSelection(-1)
	case "home":
		m.jumpToCard(0)
	case "G", "end":
		m.jumpToCard(-1)
	case "ctrl+d":
		m.moveCardSelection(pageJumpSize)
	case "ctrl+u":
		m.moveCardSelection(-pageJumpSize)
	case " ":
		if t, ok := m.selectedTicket(); ok {
			if err := m.drag.Start(t.ID); err != nil {
				m.logger.Error("Could not pick up ticket", "err", err)
				return m, nil
			}
			m.dragging = true
		}
	case "m":
		if _, ok := m.selectedTicket(); ok {
			m.moveMode = true
		}
	case "s":
		m.sortMenu = true
	case "S", "R":
		m.store.Reverse()
		m.applyFilter()
	case "a":
		m.filterMyOnly = !m.filterMyOnly
		m.applyFilter()
	case "n":
		form := newTicketForm()
		m.form = &form
		return m, form.Init()
	case "o":
		m.openInBrowser()
	case "g":
		if p := m.store.Project(); p != nil {
			project := *p
			return m, func() tea.Msg { return openGraphsMsg{project: project} }
		}
	case "P":
		if p := m.store.Project(); p != nil {
			project := *p
			return m, func() tea.Msg { return openProjectMsg{project: project} }
		}
	case "r":
		if m.store.InFlight() > 0 {
			m.logger.Warn("Wait for pending moves to finish before refreshing")
			return m, nil
		}
		m.loading = true
		return m, m.refresh()
	case "enter":
		if t, ok := m.selectedTicket(); ok {
			return m, func() tea.Msg { return openDetailMsg{ticket: t} }
		}
	}

	return m, nil
}

// handleDragKeys moves the ticket in hand. h/l hover the neighbouring
// column, j/k reorder within it, enter drops and esc puts it back.
func (m BoardModel) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id, _ := m.drag.Active()
	switch msg.String() {
	case "esc":
		_, _ = m.drag.End(nil)
		m.dragging = false
	case "h", "left", "l", "right":
		delta := 1
		if msg.String() == "h" || msg.String() == "left" {
			delta = -1
		}
		pos, err := m.store.Position(id)
		if err != nil {
			m.dragging = false
			m.drag.Cancel()
			return m, nil
		}
		col := pos.State.Index() + delta
		if col < 0 || col >= len(m.columns) {
			return m, nil
		}
		if err := m.drag.Over(m.columns[col]); err != nil {
			m.dragging = false
			m.logger.Error("Could not move ticket", "err", err)
		}
	case "j", "down":
		_ = m.drag.Reorder(1)
	case "k", "up":
		_ = m.drag.Reorder(-1)
	case "enter", " ":
		m.dragging = false
		target := m.columns[m.selectedColumn]
		if pos, err := m.store.Position(id); err == nil {
			target = pos.State
		}
		cmd := m.drop(target)
		m.applyFilter()
		m.follow(id)
		return m, cmd
	default:
		return m, nil
	}
	m.applyFilter()
	m.follow(id)
	return m, nil
}

// handleMoveMode handles key presses in move mode
func (m BoardModel) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.moveMode = false
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.Runes[0] - '1')
		if idx < 0 || idx >= len(m.columns) {
			return m, nil
		}
		m.moveMode = false
		t, ok := m.selectedTicket()
		if !ok {
			return m, nil
		}
		if err := m.drag.Start(t.ID); err != nil {
			m.logger.Error("Could not move ticket", "err", err)
			return m, nil
		}
		cmd := m.drop(m.columns[idx])
		m.applyFilter()
		m.follow(t.ID)
		return m, cmd
	}
	return m, nil
}

func (m BoardModel) handleSortMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "s":
		m.sortMenu = false
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.Runes[0] - '1')
		if idx < len(store.BoardSortKeys) {
			m.sortMenu = false
			m.store.Sort(store.BoardSortKeys[idx], true)
			m.applyFilter()
		}
	}
	return m, nil
}

// handleMouse implements pointer dragging: press on a ticket picks it up,
// motion previews it over the hovered column and release drops it. A
// release outside the board puts the ticket back.
func (m BoardModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.form != nil || m.showHelp || m.filterMode {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.moveCardSelection(1)
	case msg.Button == tea.MouseButtonWheelUp:
		m.moveCardSelection(-1)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		col, card, ok := m.hitTest(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		m.selectColumn(col)
		if card < 0 {
			return m, nil
		}
		tickets := m.filtered[m.columns[col]]
		m.selectedCard[m.columns[col]] = card
		if m.dragging {
			m.drag.Cancel()
			m.dragging = false
		}
		if err := m.drag.Start(tickets[card].ID); err != nil {
			m.logger.Error("Could not pick up ticket", "err", err)
			return m, nil
		}
		m.mouseDrag = true

	case msg.Action == tea.MouseActionMotion && m.mouseDrag:
		col, _, ok := m.hitTest(msg.X, msg.Y)
		id, _ := m.drag.Active()
		pos, err := m.store.Position(id)
		if !ok || err != nil || col == pos.State.Index() {
			return m, nil
		}
		if err := m.drag.Over(m.columns[col]); err != nil {
			m.mouseDrag = false
			m.logger.Error("Could not move ticket", "err", err)
		}
		m.applyFilter()
		m.follow(id)

	case msg.Action == tea.MouseActionRelease && m.mouseDrag:
		m.mouseDrag = false
		id, _ := m.drag.Active()
		col, _, ok := m.hitTest(msg.X, msg.Y)
		var cmd tea.Cmd
		if ok {
			cmd = m.drop(m.columns[col])
		} else {
			_, _ = m.drag.End(nil)
		}
		m.applyFilter()
		m.follow(id)
		return m, cmd
	}
	return m, nil
}

// drop ends the active drag on target and sends the change if the ticket
// left its confirmed column.
func (m *BoardModel) drop(target domain.TicketState) tea.Cmd {
	mut, err := m.drag.End(&target)
	if err != nil {
		m.logger.Error("Could not move ticket", "err", err)
		return nil
	}
	if mut == nil {
		return nil
	}
	return m.persistMove(*mut)
}

func (m BoardModel) persistMove(mut store.Mutation) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		res, err := client.ChangeTicketState(ctx, mut.TicketID, mut.State)
		return ticketMovedMsg{mutation: mut, res: res, err: err}
	}
}

func (m *BoardModel) reconcileMove(msg ticketMovedMsg) {
	ticket, ok := msg.res.Value()
	var outcome store.Outcome
	if msg.err == nil && ok {
		outcome = m.store.ReconcileSuccess(msg.mutation, ticket)
	} else {
		outcome = m.store.ReconcileFailure(msg.mutation)
		reportFailure(m.logger, "Could not move ticket", msg.res.Status(), msg.res.Message(), msg.err)
	}
	m.logger.Debug("Move reconciled",
		"ticket", msg.mutation.TicketID,
		"state", msg.mutation.State,
		"version", msg.mutation.Version,
		"outcome", outcome,
	)
	sel, hasSel := m.selectedTicket()
	m.applyFilter()
	if hasSel {
		m.follow(sel.ID)
	}
}

func (m BoardModel) createTicket(values map[string]string) tea.Cmd {
	p := m.store.Project()
	if p == nil {
		return nil
	}
	client, ctx, projectID := m.client, m.ctx, p.ID
	req := api.TicketRequest{
		Name:        strings.TrimSpace(values["name"]),
		Description: values["description"],
		GithubURL:   strings.TrimSpace(values["github_url"]),
	}
	return func() tea.Msg {
		res, err := client.CreateTicket(ctx, projectID, req)
		return ticketCreatedMsg{res: res, err: err}
	}
}

// handleCreated appends the server's ticket. Nothing is shown before the
// server assigns an id.
func (m BoardModel) handleCreated(msg ticketCreatedMsg) (tea.Model, tea.Cmd) {
	ticket, ok := msg.res.Value()
	if msg.err != nil || !ok {
		if m.form != nil && msg.err == nil {
			m.form.SetErrors(msg.res.Errors())
			return m, nil
		}
		if m.form != nil {
			m.form.SetBusy(false)
		}
		reportFailure(m.logger, "Could not create ticket", msg.res.Status(), msg.res.Message(), msg.err)
		return m, nil
	}
	m.form = nil
	m.store.Add(ticket)
	m.applyFilter()
	m.follow(ticket.ID)
	m.logger.Info("Ticket created", "ticket", ticket.ID)
	return m, nil
}

func (m BoardModel) refresh() tea.Cmd {
	p := m.store.Project()
	if p == nil {
		return nil
	}
	client, ctx, id := m.client, m.ctx, p.ID
	return func() tea.Msg {
		res, err := client.GetProject(ctx, id)
		return boardRefreshedMsg{res: res, err: err}
	}
}

// reload replaces the board contents, keeping the chosen order.
func (m *BoardModel) reload(project domain.Project) {
	sel, hasSel := m.selectedTicket()
	m.drag.Cancel()
	m.dragging, m.mouseDrag = false, false
	m.store.SetProject(&project)
	m.store.Load(project.Tickets)
	if sk, asc := m.store.SortOrder(); sk != store.SortNone {
		m.store.Sort(sk, asc)
	}
	m.applyFilter()
	if hasSel {
		m.follow(sel.ID)
	}
}

func (m BoardModel) openInBrowser() {
	url := ""
	if t, ok := m.selectedTicket(); ok && t.GithubURL != "" {
		url = t.GithubURL
	} else if p := m.store.Project(); p != nil {
		url = p.GithubURL
	}
	if url == "" {
		m.logger.Warn("No GitHub link for this ticket")
		return
	}
	if err := browser.OpenURL(url); err != nil {
		m.logger.Error("Could not open browser", "err", err)
	}
}

func newTicketForm() FormModel {
	return NewForm("ticket", "New ticket",
		FormField{Key: "name", Label: "Name", Placeholder: "Mend the nets"},
		FormField{Key: "description", Label: "Description"},
		FormField{Key: "github_url", Label: "GitHub URL", Placeholder: "https://github.com/..."},
	)
}

// View renders the board - fills entire terminal exactly
func (m BoardModel) View() string {
	width, height := m.size()

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderSecondHeader(width))
	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}
	if banner := m.banner(); banner != "" {
		sections = append(sections, banner)
	}

	boardHeight := height - m.boardTop()
	if boardHeight < 5 {
		boardHeight = 5
	}

	var mainContent string
	switch {
	case m.form != nil:
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, m.form.View(min(60, width)))
	case m.showHelp:
		helpLines := strings.Split(m.help.View(width), "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	case m.store.Project() == nil:
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading...")
	default:
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BoardModel) size() (int, int) {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	return width, height
}

// boardTop is the first screen row of the columns.
func (m BoardModel) boardTop() int {
	top := headerLines
	if m.filterMode {
		top++
	}
	if m.banner() != "" {
		top++
	}
	return top
}

func (m BoardModel) banner() string {
	switch {
	case m.dragging:
		return badgeStyle.Render("DRAG") + " h/l:column j/k:reorder enter:drop esc:cancel"
	case m.moveMode:
		return badgeStyle.Render("MOVE") + " Press 1-4 to select column, ESC to cancel"
	case m.sortMenu:
		parts := make([]string, len(store.BoardSortKeys))
		for i, k := range store.BoardSortKeys {
			parts[i] = fmt.Sprintf("%d:%s", i+1, k)
		}
		return badgeStyle.Render("SORT") + " " + strings.Join(parts, " ") + " esc:cancel"
	}
	return ""
}

// renderSecondHeader renders navigation hints and position info
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:col j/k:ticket space:drag enter:view n:new"

	right := ""
	if len(m.columns) > 0 {
		state := m.columns[m.selectedColumn]
		tickets := m.filtered[state]
		colPos := fmt.Sprintf("col %d/%d", m.selectedColumn+1, len(m.columns))
		if len(tickets) > 0 {
			right = fmt.Sprintf("%s | ticket %d/%d", colPos, m.selectedCard[state]+1, len(tickets))
		} else {
			right = colPos
		}
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderHeader renders a single header line with title on left and status on right
func (m BoardModel) renderHeader(width int) string {
	project := m.store.Project()
	if project == nil {
		return ""
	}

	title := project.Name
	if project.Group.Name != "" {
		title = fmt.Sprintf("%s / %s", project.Group.Name, project.Name)
	}

	var statusParts []string
	if m.loading || m.store.InFlight() > 0 {
		statusParts = append(statusParts, m.spinner.View()+"saving")
	}

	total := 0
	for _, tickets := range m.filtered {
		total += len(tickets)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d tickets", total))

	if sk, asc := m.store.SortOrder(); sk != store.SortNone {
		arrow := "↑"
		if !asc {
			arrow = "↓"
		}
		statusParts = append(statusParts, fmt.Sprintf("by %s %s", sk, arrow))
	}
	if m.filterMyOnly {
		statusParts = append(statusParts, "@me")
	}
	if m.filterText != "" {
		statusParts = append(statusParts, "/"+m.filterText)
	}
	statusParts = append(statusParts, "[?]help")

	status := strings.Join(statusParts, " | ")
	padding := width - len(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// boardLayout is the column geometry shared by rendering and hit testing.
type boardLayout struct {
	colWidth      int
	innerWidth    int
	contentHeight int // lines inside a column's border
	startCol      int
	endCol        int
}

func (m BoardModel) layout(totalWidth, totalHeight int) boardLayout {
	numCols := len(m.columns)

	// Border adds 2 lines to the content height.
	contentHeight := totalHeight - 2
	if contentHeight < 3 {
		contentHeight = 3
	}

	visibleCols := totalWidth / minColumnWidth
	if visibleCols < 1 {
		visibleCols = 1
	}
	if visibleCols > numCols {
		visibleCols = numCols
	}

	colWidth := totalWidth / max(visibleCols, 1)
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// 2 border + 2 padding
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = max(endCol-visibleCols, 0)
	}

	return boardLayout{
		colWidth:      colWidth,
		innerWidth:    innerWidth,
		contentHeight: contentHeight,
		startCol:      startCol,
		endCol:        endCol,
	}
}

// renderBoard renders the kanban columns within the given dimensions
// Implements horizontal scrolling (carousel) when columns overflow
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	if len(m.columns) == 0 {
		return ""
	}
	l := m.layout(totalWidth, totalHeight)

	columnViews := make([]string, 0, l.endCol-l.startCol+2)
	if l.startCol > 0 {
		columnViews = append(columnViews, m.scrollIndicator("◀", l.contentHeight))
	}
	for i := l.startCol; i < l.endCol; i++ {
		columnViews = append(columnViews, m.renderColumn(i, l))
	}
	if l.endCol < len(m.columns) {
		columnViews = append(columnViews, m.scrollIndicator("▶", l.contentHeight))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

func (m BoardModel) scrollIndicator(arrow string, contentHeight int) string {
	return lipgloss.NewStyle().
		Width(indicatorWidth).
		Height(contentHeight+2).
		Foreground(colorTide).
		Align(lipgloss.Center, lipgloss.Center).
		Render(arrow)
}

// visibleRange returns the slice of tickets a column shows and whether the
// scroll indicators are drawn.
func (m BoardModel) visibleRange(state domain.TicketState, contentHeight int) (start, end int, up, down bool) {
	tickets := m.filtered[state]
	start = m.scrollOffset[state]
	slots := contentHeight - 1 // header line
	if slots < 1 {
		slots = 1
	}
	up = start > 0
	if up {
		slots--
	}
	end = min(start+slots, len(tickets))
	if end < len(tickets) {
		down = true
		slots--
		end = min(start+slots, len(tickets))
	}
	return start, end, up, down
}

// renderColumn renders a single column with proper sizing
func (m BoardModel) renderColumn(idx int, l boardLayout) string {
	state := m.columns[idx]
	tickets := m.filtered[state]
	selected := idx == m.selectedColumn
	dragID, dragActive := m.drag.Active()

	headerText := fmt.Sprintf("[%d] %s (%d)", idx+1, state.Title(), len(tickets))
	if len(headerText) > l.innerWidth {
		headerText = headerText[:l.innerWidth-1] + "…"
	}

	start, end, up, down := m.visibleRange(state, l.contentHeight)

	var lines []string
	lines = append(lines, columnHeaderStyle.Foreground(stateColor(state)).Render(headerText))
	if up {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", start)))
	}

	for i := start; i < end; i++ {
		t := tickets[i]
		text := m.formatCardText(t, l.innerWidth-3) // "> " prefix
		switch {
		case dragActive && t.ID == dragID:
			lines = append(lines, draggedCardStyle.Render("≡ "+text))
		case selected && i == m.selectedCard[state]:
			lines = append(lines, selectedCardStyle.Render("> "+text))
		default:
			lines = append(lines, cardStyle.Render("  "+text))
		}
	}

	if remaining := len(tickets) - end; down && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(tickets) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	borderColor := colorRock
	if selected {
		borderColor = colorTide
	}

	// Height is the content area; the border adds 2 more lines.
	// DO NOT use MaxHeight - it truncates the border!
	colStyle := lipgloss.NewStyle().
		Width(l.colWidth-2).
		Height(l.contentHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(strings.Join(lines, "\n"))
}

// formatCardText formats a ticket for display with max width.
// The ticket number is right-aligned.
func (m BoardModel) formatCardText(t domain.Ticket, maxWidth int) string {
	title := t.Name
	suffix := ""
	if t.Number > 0 {
		suffix = fmt.Sprintf("#%d", t.Number)
	}

	suffixLen := len(suffix)
	if suffixLen == 0 {
		if len(title) > maxWidth {
			title = title[:maxWidth-1] + "…"
		}
		return title
	}

	availableForTitle := maxWidth - suffixLen - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}
	if len(title) > availableForTitle {
		title = title[:availableForTitle-1] + "…"
	}

	padding := maxWidth - len(title) - suffixLen
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// hitTest maps a screen cell to a column and a ticket index within the
// column's filtered list. card is -1 when the cell is in a column but not
// on a ticket. ok is false outside the columns.
func (m BoardModel) hitTest(x, y int) (col, card int, ok bool) {
	width, height := m.size()
	top := m.boardTop()
	boardHeight := max(height-top, 5)
	l := m.layout(width, boardHeight)

	if y < top || y >= top+l.contentHeight+2 {
		return 0, 0, false
	}
	left := 0
	if l.startCol > 0 {
		left = indicatorWidth
	}
	if x < left {
		return 0, 0, false
	}
	col = l.startCol + (x-left)/l.colWidth
	if col >= l.endCol {
		return 0, 0, false
	}

	state := m.columns[col]
	start, end, up, _ := m.visibleRange(state, l.contentHeight)
	row := y - top - 2 // top border and column header
	if up {
		row--
	}
	card = start + row
	if row < 0 || card >= end {
		card = -1
	}
	return col, card, true
}

// applyFilter rebuilds the visible ticket lists from the store.
func (m *BoardModel) applyFilter() {
	m.filtered = m.store.Filter(m.filterText)
	if m.filterMyOnly {
		viewer := m.store.Viewer()
		for state, tickets := range m.filtered {
			m.filtered[state] = store.AssignedTo(tickets, viewer)
		}
	}

	for _, state := range m.columns {
		n := len(m.filtered[state])
		if m.selectedCard[state] >= n {
			m.selectedCard[state] = max(n-1, 0)
		}
		if m.scrollOffset[state] > m.selectedCard[state] {
			m.scrollOffset[state] = m.selectedCard[state]
		}
	}
}

// follow selects the ticket with id wherever it now is.
func (m *BoardModel) follow(id int) {
	for ci, state := range m.columns {
		for i, t := range m.filtered[state] {
			if t.ID == id {
				m.selectedColumn = ci
				m.selectedCard[state] = i
				m.adjustScroll(state)
				m.adjustColumnScroll()
				return
			}
		}
	}
}

func (m *BoardModel) selectColumn(col int) {
	if col < 0 || col >= len(m.columns) {
		return
	}
	m.selectedColumn = col
	m.adjustColumnScroll()
}

// moveCardSelection moves the card selection up or down by delta
func (m *BoardModel) moveCardSelection(delta int) {
	if len(m.columns) == 0 {
		return
	}
	state := m.columns[m.selectedColumn]
	n := len(m.filtered[state])
	if n == 0 {
		return
	}
	idx := m.selectedCard[state] + delta
	idx = max(0, min(idx, n-1))
	m.selectedCard[state] = idx
	m.adjustScroll(state)
}

// jumpToCard jumps to a specific card index. Use -1 to jump to last card.
func (m *BoardModel) jumpToCard(idx int) {
	if len(m.columns) == 0 {
		return
	}
	state := m.columns[m.selectedColumn]
	n := len(m.filtered[state])
	if n == 0 {
		return
	}
	if idx < 0 || idx >= n {
		idx = n - 1
	}
	m.selectedCard[state] = idx
	m.adjustScroll(state)
}

// adjustScroll ensures the selected card is visible
func (m *BoardModel) adjustScroll(state domain.TicketState) {
	_, height := m.size()
	contentHeight := height - m.boardTop() - 2 // column borders
	visible := contentHeight - 3               // header + scroll indicators
	if visible < 3 {
		visible = 3
	}

	sel := m.selectedCard[state]
	if sel < m.scrollOffset[state] {
		m.scrollOffset[state] = sel
	}
	if sel >= m.scrollOffset[state]+visible {
		m.scrollOffset[state] = sel - visible + 1
	}
}

// adjustColumnScroll ensures the selected column is visible (horizontal carousel)
func (m *BoardModel) adjustColumnScroll() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}
	visibleCols := m.width / minColumnWidth
	if visibleCols < 1 {
		visibleCols = 1
	}
	if visibleCols > len(m.columns) {
		visibleCols = len(m.columns)
	}
	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

// selectedTicket returns the highlighted ticket.
func (m BoardModel) selectedTicket() (domain.Ticket, bool) {
	if len(m.columns) == 0 {
		return domain.Ticket{}, false
	}
	state := m.columns[m.selectedColumn]
	tickets := m.filtered[state]
	if len(tickets) == 0 {
		return domain.Ticket{}, false
	}
	idx := m.selectedCard[state]
	if idx >= len(tickets) {
		idx = 0
	}
	return tickets[idx], true
}

// Messages owned by the board. They are routed back to it even when the
// detail screen is in front.
type (
	ticketMovedMsg struct {
		mutation store.Mutation
		res      api.Result[domain.Ticket]
		err      error
	}
	ticketCreatedMsg struct {
		res api.Result[domain.Ticket]
		err error
	}
	boardRefreshedMsg struct {
		res api.Result[domain.Project]
		err error
	}
)

func (ticketMovedMsg) screen() AppScreen    { return ScreenBoard }
func (ticketCreatedMsg) screen() AppScreen  { return ScreenBoard }
func (boardRefreshedMsg) screen() AppScreen { return ScreenBoard }
