package dash

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// Lines each list item occupies (two text lines plus a separator).
const itemHeight = 3

type tab int

const (
	tabJobs tab = iota
	tabCompanies
	tabSkills
	tabCount
)

var tabNames = [tabCount]string{"Jobs", "Companies", "Skills"}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39")) // bright blue

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(lipgloss.Color("240")) // dim gray

	paneBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

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
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))
)

type dashModel struct {
	jobs      []model.StagedJob
	companies []model.CompanyAggregate
	skills    []model.SkillAggregate
	stats     model.DatasetStats

	activeTab tab
	cursors   [tabCount]int
	viewport  viewport.Model
	width     int
	height    int
	ready     bool
}

func (m dashModel) Init() tea.Cmd {
	return nil
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		case "shift+tab", "left":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			m.recalcContent()
			m.ensureCursorVisible()
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
		}

		// Forward other keys (pgup/pgdn/home/end) to the viewport.
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *dashModel) recalcLayout() {
	paneWidth := max(m.width-2, 40)

	// Tab bar (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.viewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.viewport.Width = paneWidth
		m.viewport.Height = paneHeight
	}

	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *dashModel) recalcContent() {
	switch m.activeTab {
	case tabCompanies:
		m.viewport.SetContent(renderCompanyItems(m.companies, m.cursors[tabCompanies]))
	case tabSkills:
		m.viewport.SetContent(renderSkillItems(m.skills, m.cursors[tabSkills]))
	default:
		m.viewport.SetContent(renderJobItems(m.jobs, m.cursors[tabJobs]))
	}
}

func (m *dashModel) moveCursor(delta int) {
	m.cursors[m.activeTab] = clamp(m.cursors[m.activeTab]+delta, 0, max(m.activeLen()-1, 0))
}

func (m *dashModel) ensureCursorVisible() {
	cursorTop := m.cursors[m.activeTab] * itemHeight
	cursorBottom := cursorTop + itemHeight - 1

	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m dashModel) activeLen() int {
	switch m.activeTab {
	case tabCompanies:
		return len(m.companies)
	case tabSkills:
		return len(m.skills)
	default:
		return len(m.jobs)
	}
}

func (m dashModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	border := paneBorderStyle.Width(m.viewport.Width)
	statusBar := statusBarStyle.Width(m.width).Render(m.statusText())

	return m.renderTabBar() + "\n" + border.Render(m.viewport.View()) + "\n" + statusBar
}

func (m dashModel) renderTabBar() string {
	counts := [tabCount]int{len(m.jobs), len(m.companies), len(m.skills)}

	parts := make([]string, 0, tabCount)
	for i := tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%s (%d)", tabNames[i], counts[i])
		if i == m.activeTab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m dashModel) statusText() string {
	return fmt.Sprintf(" %d jobs | %d companies | %d locations | avg max salary %.0f    ←/→/Tab switch  ↑/↓ cursor  q quit",
		m.stats.TotalJobs, m.stats.UniqueCompanies, m.stats.UniqueLocations, m.stats.AvgMaxSalary)
}

func itemStyles(selected bool) (title, subtitle lipgloss.Style, prefix string) {
	if selected {
		return selectedTitleStyle, selectedSubtitleStyle, "> "
	}
	return itemTitleStyle, itemSubtitleStyle, "  "
}

func renderJobItems(jobs []model.StagedJob, cursor int) string {
	if len(jobs) == 0 {
		return "  (no rows)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := itemStyles(i == cursor)

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(jobSubtitle(j)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func jobSubtitle(j model.StagedJob) string {
	parts := []string{j.Company, jobLocation(j), formatSalary(j.SalaryMin, j.SalaryMax)}
	if j.Seniority != "" {
		parts = append(parts, j.Seniority)
	}
	if j.IsRemote {
		parts = append(parts, "remote")
	}
	if j.PostedDate != "" {
		parts = append(parts, j.PostedDate)
	} else {
		parts = append(parts, "n/a")
	}
	return strings.Join(parts, " · ")
}

// jobLocation prefers the parsed city over the raw display string.
func jobLocation(j model.StagedJob) string {
	if j.City != "" && j.Country != "" {
		return j.City + ", " + j.Country
	}
	if j.City != "" {
		return j.City
	}
	return j.Location
}

func renderCompanyItems(companies []model.CompanyAggregate, cursor int) string {
	if len(companies) == 0 {
		return "  (no rows)"
	}

	var b strings.Builder
	for i, c := range companies {
		titleSt, subtitleSt, prefix := itemStyles(i == cursor)

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(c.Company))
		b.WriteByte('\n')

		span := c.FirstPosted
		if c.LastPosted != "" && c.LastPosted != c.FirstPosted {
			span = c.FirstPosted + " to " + c.LastPosted
		}
		if span == "" {
			span = "n/a"
		}

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%d jobs · avg max %.0f · %s", c.TotalJobs, c.AvgMaxSalary, span)))
		b.WriteByte('\n')

		if i < len(companies)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderSkillItems(skills []model.SkillAggregate, cursor int) string {
	if len(skills) == 0 {
		return "  (no rows)"
	}

	var b strings.Builder
	for i, s := range skills {
		titleSt, subtitleSt, prefix := itemStyles(i == cursor)

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(s.Skill))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %d jobs · avg salary %.0f", s.Seniority, s.JobCount, s.AvgSalary)))
		b.WriteByte('\n')

		if i < len(skills)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatSalary(lo, hi float64) string {
	switch {
	case lo > 0 && hi > 0 && lo != hi:
		return fmt.Sprintf("%.0f-%.0f", lo, hi)
	case hi > 0:
		return fmt.Sprintf("%.0f", hi)
	default:
		return "n/a"
	}
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

// Run launches the interactive dashboard over rows read from the analytic
// views and blocks until the user quits.
func Run(jobs []model.StagedJob, companies []model.CompanyAggregate, skills []model.SkillAggregate, stats model.DatasetStats) error {
	m := dashModel{
		jobs:      jobs,
		companies: companies,
		skills:    skills,
		stats:     stats,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
