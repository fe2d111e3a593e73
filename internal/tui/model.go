package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notionrag/internal/domain"
)

// SearchPort is the TUI-facing subset of the retrieval service.
type SearchPort interface {
	Search(query string, topK int) ([]domain.SearchResult, error)
	Format(results []domain.SearchResult) string
	Status() domain.IndexStatus
}

// Model is the Bubble Tea model for the interactive search console.
type Model struct {
	service SearchPort
	input   textinput.Model
	vp      viewport.Model
	results []domain.SearchResult
	topK    int
	status  string
	cursor  int
	ready   bool
}

// New creates a new search console model.
func New(service SearchPort, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	st := service.Status()
	status := fmt.Sprintf("Index ready: %d chunks, %d embedded. Type to search.", st.ChunkCount, st.EmbeddingCount)
	if !st.Ready {
		status = "Index empty. Rebuild with -pages before searching."
	}
	return Model{service: service, input: ti, vp: vp, topK: topK, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.vp.Width = max(20, msg.Width)
		m.vp.Height = max(3, vh-rh)
		m.vp.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.service.Search(q, m.topK)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					m.status = fmt.Sprintf("%d results for %q", len(res), q)
					m.results = res
					m.cursor = 0
				}
				m.vp.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.vp.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.vp.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "ctrl+a":
			// Dump the full formatted context block, as the QA prompt would see it.
			m.vp.SetContent(m.service.Format(m.results))
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Page Search")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.vp.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	meta := r.Chunk.Metadata
	head := fmt.Sprintf("Result %d/%d  %s  (%.1f%%)", m.cursor+1, len(m.results), meta.Title, r.Score*100)
	src := fmt.Sprintf("source=%s chunk=%d/%d", meta.SourceID, meta.ChunkIndex+1, meta.TotalChunks)
	if meta.URL != "" {
		src += "  " + meta.URL
	}
	return head + "\n" + dimStyle.Render(src) + "\n\n" + r.Chunk.Content
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
