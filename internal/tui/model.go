// Package tui is the terminal kanban board. Cards move with the keyboard:
// space picks a card up, left/right carries it, enter drops it.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statusTTL      = 4 * time.Second
	minColumnWidth = 18
)

// actionKeys binds card actions to keys; assign and edit open the picker
var actionKeys = map[workflow.Action]string{
	workflow.ActionAssignToMe:     "a",
	workflow.ActionStartWork:      "s",
	workflow.ActionMarkRepaired:   "r",
	workflow.ActionMarkScrap:      "x",
	workflow.ActionAssign:         "t",
	workflow.ActionEditAssignment: "t",
}

type (
	loadedMsg  struct{ err error }
	mutatedMsg struct{ err error }
	expireMsg  struct{ seq int }
	techsMsg   struct {
		requestID string
		action    workflow.Action
		techs     []domain.Technician
		err       error
	}
)

// carry is a card picked up with space
type carry struct {
	id   string
	from int
	to   int
}

type picker struct {
	requestID string
	action    workflow.Action
	techs     []domain.Technician
	cursor    int
}

// Model is the bubbletea model of the board
type Model struct {
	ctx    context.Context
	ctrl   *workflow.Controller
	styles styles
	now    func() time.Time

	board   workflow.Board
	col     int
	rows    []int
	carry   *carry
	picker  *picker
	confirm *confirmMsg
	loading bool
	loadErr error

	status    string
	level     workflow.Level
	statusSeq int

	width  int
	height int
}

// NewModel creates a board model over ctrl
func NewModel(ctx context.Context, ctrl *workflow.Controller) Model {
	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		styles:  newStyles(),
		now:     time.Now,
		board:   workflow.NewBoard(),
		rows:    make([]int, len(domain.Stages)),
		loading: true,
	}
}

// Init loads the board
func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Reload(ctx)}
	}
}

func (m Model) moveCmd(id string, to domain.Stage) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, err := ctrl.HandleDragEnd(ctx, workflow.DragEnd{
			CardID: id,
			Target: &workflow.DropTarget{Column: to},
		})
		return mutatedMsg{err: err}
	}
}

func (m Model) actionCmd(id string, req workflow.ActionRequest) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, err := ctrl.Perform(ctx, id, req)
		return mutatedMsg{err: err}
	}
}

func (m Model) techsCmd(r domain.MaintenanceRequest, action workflow.Action) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		techs, err := ctrl.AvailableTechnicians(ctx, r.TeamID)
		return techsMsg{requestID: r.ID, action: action, techs: techs, err: err}
	}
}

// Update handles messages and key presses
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case loadedMsg:
		m.loading = false
		m.loadErr = msg.err
		m.syncBoard()
		if msg.err != nil {
			return m, m.setStatus(workflow.LevelError, fmt.Sprintf("Could not load the board: %v (R to retry)", msg.err))
		}
		return m, nil

	case mutatedMsg:
		m.syncBoard()
		if errors.Is(msg.err, workflow.ErrMutationInFlight) || errors.Is(msg.err, workflow.ErrTechnicianRequired) {
			return m, m.setStatus(workflow.LevelError, msg.err.Error())
		}
		return m, nil

	case techsMsg:
		if msg.err != nil {
			return m, m.setStatus(workflow.LevelError, fmt.Sprintf("Could not load technicians: %v", msg.err))
		}
		if len(msg.techs) == 0 {
			return m, m.setStatus(workflow.LevelInfo, "No technicians available")
		}
		m.picker = &picker{requestID: msg.requestID, action: msg.action, techs: msg.techs}
		return m, nil

	case notifyMsg:
		return m, m.setStatus(msg.level, msg.text)

	case confirmMsg:
		if m.confirm != nil {
			// one prompt at a time; the older question is declined
			m.confirm.reply <- false
		}
		m.confirm = &msg
		return m, nil

	case expireMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirm != nil {
		switch key {
		case "y", "Y":
			m.confirm.reply <- true
			m.confirm = nil
		case "n", "N", "esc", "ctrl+c":
			m.confirm.reply <- false
			m.confirm = nil
		}
		return m, nil
	}

	if m.picker != nil {
		return m.handlePickerKey(key)
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "R":
		m.loading = true
		return m, m.loadCmd()
	case "left", "h":
		if m.carry != nil {
			m.carry.to = max(0, m.carry.to-1)
		} else {
			m.col = max(0, m.col-1)
		}
	case "right", "l":
		last := len(domain.Stages) - 1
		if m.carry != nil {
			m.carry.to = min(last, m.carry.to+1)
		} else {
			m.col = min(last, m.col+1)
		}
	case "up", "k":
		if m.carry == nil && m.rows[m.col] > 0 {
			m.rows[m.col]--
		}
	case "down", "j":
		if m.carry == nil && m.rows[m.col] < len(m.column(m.col))-1 {
			m.rows[m.col]++
		}
	case " ":
		if m.carry != nil {
			m.carry = nil
			return m, nil
		}
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !m.ctrl.Draggable(r.ID) {
			return m, m.setStatus(workflow.LevelInfo, "This card cannot be moved")
		}
		m.carry = &carry{id: r.ID, from: m.col, to: m.col}
	case "enter":
		if m.carry == nil {
			return m, nil
		}
		c := *m.carry
		m.carry = nil
		if c.to == c.from {
			return m, nil
		}
		m.col = c.to
		return m, m.moveCmd(c.id, domain.Stages[c.to])
	case "esc":
		m.carry = nil
	case "a", "s", "r", "x", "t":
		return m.runAction(key)
	}
	return m, nil
}

func (m Model) handlePickerKey(key string) (tea.Model, tea.Cmd) {
	p := m.picker
	switch key {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.techs)-1 {
			p.cursor++
		}
	case "enter":
		techID := p.techs[p.cursor].ID
		m.picker = nil
		return m, m.actionCmd(p.requestID, workflow.ActionRequest{Action: p.action, TechnicianID: &techID})
	case "esc", "q", "ctrl+c":
		m.picker = nil
	}
	return m, nil
}

// runAction resolves a key to the selected card's action. Keys for actions
// the card does not offer do nothing.
func (m Model) runAction(key string) (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || m.carry != nil {
		return m, nil
	}
	caps, ok := m.ctrl.Capabilities(r.ID)
	if !ok {
		return m, nil
	}
	for _, action := range caps.Actions() {
		if actionKeys[action] != key {
			continue
		}
		if action == workflow.ActionAssign || action == workflow.ActionEditAssignment {
			return m, m.techsCmd(r, action)
		}
		req := workflow.ActionRequest{Action: action}
		if action == workflow.ActionMarkRepaired {
			req.DurationHours = workflow.AutoDuration
		}
		return m, m.actionCmd(r.ID, req)
	}
	return m, nil
}

func (m *Model) setStatus(level workflow.Level, text string) tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	m.status = text
	m.level = level
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return expireMsg{seq: seq} })
}

// syncBoard takes a fresh snapshot and keeps the cursors in range
func (m *Model) syncBoard() {
	m.board = m.ctrl.Board()
	for i := range m.rows {
		n := len(m.column(i))
		if m.rows[i] >= n {
			m.rows[i] = max(0, n-1)
		}
	}
}

func (m Model) column(i int) []domain.MaintenanceRequest {
	return m.board[domain.Stages[i]]
}

func (m Model) selected() (domain.MaintenanceRequest, bool) {
	cards := m.column(m.col)
	if len(cards) == 0 {
		return domain.MaintenanceRequest{}, false
	}
	return cards[m.rows[m.col]], true
}

// ============================================================
// View
// ============================================================

// View renders the board
func (m Model) View() string {
	var b strings.Builder

	viewer := m.ctrl.Viewer()
	b.WriteString(m.styles.header.Render("GearGuard"))
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("  %s #%d  %d requests", viewer.Role, viewer.UserID, m.board.Count())))
	if m.loading {
		b.WriteString(m.styles.muted.Render("  loading..."))
	}
	b.WriteString("\n")

	if m.loadErr != nil && !m.ctrl.Loaded() {
		b.WriteString(m.styles.error.Render("The board could not be loaded. Press R to retry."))
		b.WriteString("\n")
	}

	cols := make([]string, len(domain.Stages))
	for i := range domain.Stages {
		cols[i] = m.renderColumn(i)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	switch {
	case m.confirm != nil:
		b.WriteString(m.styles.prompt.Render(m.confirm.prompt + " [y/n]"))
	case m.picker != nil:
		b.WriteString(m.renderPicker())
	default:
		b.WriteString(m.renderActions())
	}
	b.WriteString("\n")

	if m.status != "" {
		style := m.styles.info
		if m.level == workflow.LevelError {
			style = m.styles.error
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render("←/→ column  ↑/↓ card  space pick up  enter drop  R reload  q quit"))
	return b.String()
}

func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 28
	}
	// border and padding take four cells per column
	return max(minColumnWidth, m.width/len(domain.Stages)-4)
}

func (m Model) renderColumn(i int) string {
	stage := domain.Stages[i]
	width := m.columnWidth()
	cards := m.column(i)

	title := lipgloss.NewStyle().Bold(true).Foreground(stageColors[stage]).
		Render(fmt.Sprintf("%s (%d)", stageTitle(stage), len(cards)))
	lines := []string{title, ""}

	now := m.now()
	for row, r := range cards {
		text := truncate(r.Subject, width-2)
		if workflow.IsOverdue(&r, now) {
			text = m.styles.overdue.Render("!") + " " + truncate(r.Subject, width-4)
		}
		style := m.styles.card
		switch {
		case m.carry != nil && m.carry.id == r.ID:
			style = m.styles.muted
		case m.carry == nil && i == m.col && row == m.rows[i]:
			style = m.styles.selected
		}
		lines = append(lines, style.Width(width).Render(text))

		detail := "unassigned"
		if r.AssignedTechnicianName != "" {
			detail = r.AssignedTechnicianName
		}
		if r.EquipmentName != "" {
			detail += " · " + r.EquipmentName
		}
		lines = append(lines, m.styles.muted.Render(truncate(detail, width)))
	}

	if m.carry != nil && m.carry.to == i && m.carry.from != i {
		if r, ok := m.board.Find(m.carry.id); ok {
			lines = append(lines, m.styles.carried.Render(truncate("▸ "+r.Subject, width)))
		}
	}

	box := m.styles.column
	switch {
	case m.carry != nil && m.carry.to == i:
		box = m.styles.dropZone
	case m.carry == nil && i == m.col:
		box = m.styles.columnHot
	}
	return box.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderActions() string {
	if m.carry != nil {
		return m.styles.carried.Render(fmt.Sprintf("Moving to %s: enter to drop, esc to cancel", stageTitle(domain.Stages[m.carry.to])))
	}
	r, ok := m.selected()
	if !ok {
		return ""
	}
	caps, ok := m.ctrl.Capabilities(r.ID)
	if !ok {
		return ""
	}
	var parts []string
	for _, action := range caps.Actions() {
		parts = append(parts, fmt.Sprintf("[%s] %s", actionKeys[action], action.Label()))
	}
	if len(parts) == 0 {
		return m.styles.muted.Render("No actions for this card")
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderPicker() string {
	p := m.picker
	lines := []string{m.styles.header.Render("Pick a technician (enter to assign, esc to cancel)")}
	for i, t := range p.techs {
		line := fmt.Sprintf("%s  (%d open)", t.DisplayName(), t.Load)
		if i == p.cursor {
			line = m.styles.selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
