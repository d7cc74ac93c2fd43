package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragqa/internal/domain"
)

// QAPort is the TUI-facing subset of the QA service.
type QAPort interface {
	Answer(ctx context.Context, query string) (domain.QueryResult, error)
}

const (
	titleText       = "🌱 தமிழ் விவசாய உதவியாளர்"
	introText       = "விவசாயம் சார்ந்த உங்கள் கேள்விகளை இங்கே உள்ளிடவும்"
	placeholderText = "விவசாயம் பற்றிய கேள்வியை இங்கே தட்டச்சு செய்க..."
	answerLabel     = "பதில்:"
	matchLabel      = "பொருத்தம்:"
	confidenceLabel = "நம்பகத்தன்மை"
	askHelpful      = "இந்த பதில் உதவியாக இருந்ததா?  ctrl+y ஆம் / ctrl+n இல்லை"
	emptyQuestion   = "தயவு செய்து ஒரு கேள்வியை உள்ளிடவும்"
	errorText       = "ஒரு பிழை ஏற்பட்டது"
	thanksText      = "நன்றி! உங்கள் கருத்து பதிவு செய்யப்பட்டது"
	readyText       = "Enter: பதிலைப் பெறுக · ctrl+c: வெளியேறு"
)

type answerMsg struct {
	query  string
	result domain.QueryResult
	err    error
}

type feedbackMsg struct {
	helpful bool
	err     error
}

// Model is the Bubble Tea model for the question/answer screen.
type Model struct {
	ctx      context.Context
	service  QAPort
	feedback domain.FeedbackRecorder
	input    textinput.Model
	viewport viewport.Model
	bar      progress.Model
	result   *domain.QueryResult
	query    string
	status   string
	info     string
	busy     bool
	voted    bool
	ready    bool
}

// New creates a new TUI model. feedback may be nil, in which case votes are
// not offered.
func New(ctx context.Context, service QAPort, feedback domain.FeedbackRecorder, info string) Model {
	ti := textinput.New()
	ti.Prompt = "உங்கள் கேள்வி: "
	ti.Placeholder = placeholderText
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		service:  service,
		feedback: feedback,
		input:    ti,
		viewport: viewport.New(0, 0),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		status:   readyText,
		info:     info,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and service events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + qh + 1
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.bar.Width = max(10, min(40, msg.Width-20))
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorText + ": " + msg.err.Error()
			return m, nil
		}
		res := msg.result
		m.result = &res
		m.query = msg.query
		m.voted = false
		m.status = readyText
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case feedbackMsg:
		if msg.err != nil {
			m.status = errorText + ": " + msg.err.Error()
			m.voted = false
			return m, nil
		}
		m.status = thanksText
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.ask()
		case tea.KeyCtrlY:
			return m.vote(true)
		case tea.KeyCtrlN:
			return m.vote(false)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		m.status = emptyQuestion
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = "..."
	ctx, svc := m.ctx, m.service
	return m, func() tea.Msg {
		res, err := svc.Answer(ctx, q)
		return answerMsg{query: q, result: res, err: err}
	}
}

func (m Model) vote(helpful bool) (tea.Model, tea.Cmd) {
	if m.feedback == nil || m.result == nil || m.voted {
		return m, nil
	}
	m.voted = true
	fb := domain.Feedback{
		Query:      m.query,
		Position:   m.result.Position,
		Similarity: m.result.Similarity,
		Helpful:    helpful,
		CreatedAt:  time.Now(),
	}
	ctx, rec := m.ctx, m.feedback
	return m, func() tea.Msg {
		return feedbackMsg{helpful: helpful, err: rec.RecordFeedback(ctx, fb)}
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(titleText)
	intro := dimStyle.Render(introText)
	if m.info != "" {
		intro += dimStyle.Render("  (" + m.info + ")")
	}
	answer := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + intro + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.result == nil {
		return dimStyle.Render("இன்னும் பதில் இல்லை.")
	}
	r := m.result
	var b strings.Builder
	b.WriteString(labelStyle.Render(answerLabel))
	b.WriteString("\n")
	b.WriteString(answerStyle.Render(r.Entry.Answer))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(r.Entry.Question))
	b.WriteString("\n\n")
	b.WriteString(matchLabel + " " + m.bar.ViewAs(Confidence(r.Similarity)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s: %.2f", confidenceLabel, r.Similarity))
	if m.feedback != nil {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(askHelpful))
	}
	return b.String()
}

// Confidence clamps a cosine similarity into the [0, 1] range of a progress bar.
func Confidence(similarity float64) float64 {
	return min(1, max(0, similarity))
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
