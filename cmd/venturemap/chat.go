// This file implements the interactive journey chat using bubbletea.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"venturemap/internal/catalog"
	"venturemap/internal/generation"
	"venturemap/internal/journey"
	"venturemap/internal/plan"
	"venturemap/internal/store"
)

// chatStyles collects the lipgloss styles of the chat view.
type chatStyles struct {
	title      lipgloss.Style
	user       lipgloss.Style
	ai         lipgloss.Style
	system     lipgloss.Style
	suggestion lipgloss.Style
	status     lipgloss.Style
	errText    lipgloss.Style
	prompt     lipgloss.Style
}

func defaultChatStyles() chatStyles {
	return chatStyles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		user:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		ai:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		system:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),
		suggestion: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("178")).Padding(0, 1),
		status:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		errText:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		prompt:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}

// chatModel is the bubbletea model for the journey chat.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    chatStyles
	renderer  *glamour.TermRenderer

	// Backend
	engine      *journey.Engine
	projects    *store.Store
	projectID   string
	projectName string

	// State
	isLoading bool
	status    string
	err       error
	width     int
	height    int
	ready     bool
}

// Messages for tea updates
type (
	intentDoneMsg struct{ err error }
	exportDoneMsg struct {
		dir string
		err error
	}
)

func initChatModel(eng *journey.Engine, s *store.Store, projectID, projectName string) chatModel {
	styles := defaultChatStyles()

	ti := textinput.New()
	ti.Placeholder = "Type your answer... (/help for commands, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.PromptStyle = styles.prompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.prompt

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return chatModel{
		textinput:   ti,
		viewport:    vp,
		spinner:     sp,
		styles:      styles,
		renderer:    renderer,
		engine:      eng,
		projects:    s,
		projectID:   projectID,
		projectName: projectName,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
		}
		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 4
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(msg.Width-8, 20)),
		)
		m.refresh()

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case intentDoneMsg:
		m.isLoading = false
		m.status = ""
		if msg.err != nil {
			m.status = m.intentStatus(msg.err)
		}
		m.refresh()
		return m, m.spinner.Tick

	case exportDoneMsg:
		m.isLoading = false
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.dir
		}
		m.refresh()
		return m, m.spinner.Tick
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// intentStatus maps engine sentinels to one-line notices; real failures are
// already reported inside the transcript as system messages.
func (m *chatModel) intentStatus(err error) string {
	switch {
	case errors.Is(err, journey.ErrBusy):
		return "still working on the previous step"
	case errors.Is(err, journey.ErrInvalidTransition):
		return "that move is not allowed from here"
	case errors.Is(err, journey.ErrSuggestionOpen):
		return "a suggestion is already open (/accept or /close it first)"
	case errors.Is(err, journey.ErrNoDataKey):
		return "that stage has no editable field"
	default:
		return err.Error()
	}
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}
	m.textinput.SetValue("")
	m.status = ""

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	snap := m.engine.Snapshot()
	if snap.EditingStage != "" {
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.UpdateStageData(ctx, snap.EditingStage, input)
		})
	}
	return m.runIntent(func(ctx context.Context) error {
		return m.engine.SendMessage(ctx, input)
	})
}

func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd, rest := fields[0], strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/help":
		m.status = "commands: /suggest /refine <how> /accept [text] /close /next /edit <stage> /cancel /jump <stage> /gaps /restart /quit"
		m.refresh()
		return m, nil

	case "/suggest":
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.RequestSuggestion(ctx)
		})

	case "/refine":
		if rest == "" {
			m.status = "usage: /refine <instruction>"
			m.refresh()
			return m, nil
		}
		snap := m.engine.Snapshot()
		if snap.SuggestionOpen {
			return m.runIntent(func(ctx context.Context) error {
				return m.engine.RefineSuggestion(ctx, snap.Suggestion, rest)
			})
		}
		if snap.EditingStage != "" {
			return m.runIntent(func(ctx context.Context) error {
				return m.engine.RefineEditedStage(ctx, snap.EditingStage, rest)
			})
		}
		m.status = "nothing to refine: open a suggestion (/suggest) or an edit (/edit) first"
		m.refresh()
		return m, nil

	case "/accept":
		snap := m.engine.Snapshot()
		if !snap.SuggestionOpen {
			m.status = "no suggestion open"
			m.refresh()
			return m, nil
		}
		text := rest
		if text == "" {
			text = snap.Suggestion
		}
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.AcceptSuggestion(ctx, text)
		})

	case "/close":
		m.engine.CloseSuggestion()
		m.refresh()
		return m, nil

	case "/next":
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.ProceedToNextSection(ctx)
		})

	case "/edit":
		stage, ok := parseStage(rest)
		if !ok {
			m.status = "usage: /edit <STAGE_NAME>"
			m.refresh()
			return m, nil
		}
		if err := m.engine.EditStage(stage); err != nil {
			m.status = m.intentStatus(err)
		} else {
			m.status = fmt.Sprintf("editing %s: type the new value, or /refine <how>, or /cancel", stage)
		}
		m.refresh()
		return m, nil

	case "/cancel":
		m.engine.CancelEdit()
		m.status = "edit cancelled"
		m.refresh()
		return m, nil

	case "/jump":
		stage, ok := parseStage(rest)
		if !ok {
			m.status = "usage: /jump <STAGE_NAME>"
			m.refresh()
			return m, nil
		}
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.JumpToStage(ctx, stage)
		})

	case "/gaps":
		if gap, ok := m.engine.FirstUncompletedStage(); ok {
			m.status = fmt.Sprintf("first unanswered stage: %s", gap)
		} else {
			m.status = "no gaps so far"
		}
		m.refresh()
		return m, nil

	case "/export":
		dir := rest
		if dir == "" {
			dir = "."
		}
		m.isLoading = true
		m.refresh()
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			written, err := exportProject(context.Background(), m.projects, m.projectID, dir, "all")
			return exportDoneMsg{dir: written, err: err}
		})

	case "/restart":
		return m.runIntent(func(ctx context.Context) error {
			return m.engine.Restart(ctx)
		})

	case "/quit":
		return m, tea.Quit

	default:
		m.status = fmt.Sprintf("unknown command %s (/help)", cmd)
		m.refresh()
		return m, nil
	}
}

// runIntent executes an engine intent off the UI goroutine.
func (m chatModel) runIntent(fn func(context.Context) error) (tea.Model, tea.Cmd) {
	m.isLoading = true
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return intentDoneMsg{err: fn(context.Background())}
	})
}

func parseStage(arg string) (catalog.Stage, bool) {
	s := catalog.Stage(strings.ToUpper(strings.TrimSpace(arg)))
	if arg == "" || !catalog.Known(s) {
		return "", false
	}
	return s, true
}

// refresh re-renders the transcript into the viewport and scrolls to the
// bottom.
func (m *chatModel) refresh() {
	snap := m.engine.Snapshot()
	var b strings.Builder

	for _, msg := range snap.Messages {
		switch msg.Sender {
		case plan.SenderUser:
			b.WriteString(m.styles.user.Render("You: " + msg.Text))
			b.WriteString("\n")
		case plan.SenderAI:
			text := msg.Text
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(msg.Text); err == nil {
					text = strings.TrimRight(rendered, "\n")
				}
			}
			b.WriteString(m.styles.ai.Render(text))
			b.WriteString("\n")
			for _, src := range msg.Sources {
				b.WriteString(m.styles.system.Render(fmt.Sprintf("  source: %s (%s)", src.Title, src.URI)))
				b.WriteString("\n")
			}
		case plan.SenderSystem:
			b.WriteString(m.styles.system.Render("· " + msg.Text))
			b.WriteString("\n")
		}
	}

	if snap.SuggestionOpen {
		body := snap.Suggestion
		if body == "" {
			body = "thinking..."
		}
		b.WriteString(m.styles.suggestion.Render("Suggestion:\n" + body + "\n\n/accept to use it, /refine <how> to rework it, /close to dismiss"))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if !m.ready {
		return "loading..."
	}

	snap := m.engine.Snapshot()
	header := m.styles.title.Render(fmt.Sprintf("venturemap · %s", m.projectName))
	stageLine := m.styles.status.Render(fmt.Sprintf("stage %s · %.0f%% complete", snap.Stage, m.engine.Progress()*100))

	var footer string
	switch {
	case m.isLoading:
		footer = m.spinner.View() + " working..."
	case m.err != nil:
		footer = m.styles.errText.Render(m.err.Error())
	case m.status != "":
		footer = m.styles.status.Render(m.status)
	case snap.ReadyForNextSection:
		footer = m.styles.status.Render("section complete: /next to generate its summary")
	case m.engine.IsComplete():
		footer = m.styles.status.Render("journey complete: run `venturemap export` for the final plan")
	}

	return fmt.Sprintf("%s\n%s\n%s\n\n%s\n%s",
		header, stageLine, m.viewport.View(), m.textinput.View(), footer)
}

// runChat opens the chat TUI for a project. An empty id opens the most
// recently touched project.
func runChat(ctx context.Context, projectID string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if projectID == "" {
		projects, err := s.List(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			return fmt.Errorf("no projects yet: start one with `venturemap new <name> <idea>`")
		}
		projectID = projects[0].ID
	}

	p, err := s.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("project %s not found", projectID)
		}
		return err
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no Gemini API key: set GEMINI_API_KEY or llm.api_key in the config file")
	}
	gen, err := generation.New(ctx, generation.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	eng := journey.New(journey.Config{
		Store:        s,
		Generator:    gen,
		Locale:       plan.Locale(cfg.Journey.Locale),
		Logger:       logger,
		SummaryPause: cfg.Journey.SummaryPause,
	})
	if err := eng.Open(ctx, projectID); err != nil {
		return err
	}

	program := tea.NewProgram(initChatModel(eng, s, projectID, p.Name), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
