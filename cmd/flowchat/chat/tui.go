package chatcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/flowchat/pkg/chat"
	"github.com/papercomputeco/flowchat/pkg/cliui"
	"github.com/papercomputeco/flowchat/pkg/conversation"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

const (
	// chromeHeight is the number of rows used outside the transcript:
	// title, status line, input and help.
	chromeHeight = 6

	defaultWidth = 80
)

var (
	chatTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	chatMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chatDividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	chatPromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
)

type chatKeyMap struct {
	Submit     key.Binding
	NextPrompt key.Binding
	Prompts    key.Binding
	Clear      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextPrompt, k.Prompts, k.Clear, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.NextPrompt, k.Prompts}, {k.ScrollUp, k.ScrollDown, k.Clear, k.Quit}}
}

func defaultKeyMap() chatKeyMap {
	return chatKeyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NextPrompt: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "sample prompt")),
		Prompts:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prompts")),
		Clear:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// exchangeDoneMsg carries the result of a Submit run off the UI loop.
type exchangeDoneMsg struct {
	exchange *chat.Exchange
	err      error
}

type chatModel struct {
	ctx     context.Context
	session *chat.Session
	catalog *prompts.Catalog
	logger  *slog.Logger
	title   string

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	keys     chatKeyMap
	help     help.Model

	width  int
	height int

	pending     bool
	pendingText string
	// pendingBase is the transcript length when the pending message was sent.
	// While it is unchanged the user turn has not been recorded yet.
	pendingBase int

	showPrompts  bool
	promptCursor int
	status       string
	statusIsErr  bool

	// rendered caches markdown output of assistant turns by transcript index.
	rendered      map[int]string
	renderedWidth int
}

func runChatTUI(ctx context.Context, session *chat.Session, catalog *prompts.Catalog, title string, logger *slog.Logger) error {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	model := newChatModel(ctx, session, catalog, title, logger)
	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newChatModel(ctx context.Context, session *chat.Session, catalog *prompts.Catalog, title string, logger *slog.Logger) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question, or press tab for a sample prompt"
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Width = defaultWidth - 4
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	m := chatModel{
		ctx:          ctx,
		session:      session,
		catalog:      catalog,
		logger:       logger,
		title:        title,
		input:        ti,
		spinner:      sp,
		viewport:     viewport.New(defaultWidth, 20),
		keys:         defaultKeyMap(),
		help:         help.New(),
		width:        defaultWidth,
		promptCursor: -1,
		rendered:     map[int]string{},
	}
	m.refresh()
	return m
}

func (m chatModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight-m.promptsHeight(), 1)
		m.input.Width = max(msg.Width-4, 10)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case exchangeDoneMsg:
		m.pending = false
		m.pendingText = ""
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.status = fmt.Sprintf("answered in %s", cliui.FormatDuration(msg.exchange.Duration))
			m.statusIsErr = false
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keys.NextPrompt):
		if m.catalog.Len() == 0 {
			return m, nil
		}
		m.promptCursor = (m.promptCursor + 1) % m.catalog.Len()
		text, err := m.catalog.Lookup(m.promptCursor + 1)
		if err == nil {
			m.input.SetValue(text)
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.Prompts):
		m.showPrompts = !m.showPrompts
		return m.resized(), nil

	case key.Matches(msg, m.keys.Clear):
		if m.pending {
			return m, nil
		}
		m.clear()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
		return m, nil
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput handles enter. Keystrokes that would submit are ignored while
// a request is in flight.
func (m chatModel) submitInput() (bubbletea.Model, bubbletea.Cmd) {
	if m.pending {
		return m, nil
	}

	in := parseInput(m.input.Value())
	m.input.Reset()
	m.promptCursor = -1

	switch in.kind {
	case inputEmpty:
		return m, nil
	case inputExit:
		return m, bubbletea.Quit
	case inputClear:
		m.clear()
		return m, nil
	case inputListPrompts:
		m.showPrompts = true
		return m.resized(), nil
	case inputHelp:
		m.status = strings.ReplaceAll(commandHelp, "\n", "  ")
		m.statusIsErr = false
		return m, nil
	case inputUnknownCommand:
		m.status = fmt.Sprintf("unknown command %s (try /help)", in.text)
		m.statusIsErr = true
		return m, nil
	case inputPrompt:
		text, err := m.catalog.Lookup(in.index)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m.send(text)
	default:
		return m.send(in.text)
	}
}

func (m chatModel) send(text string) (bubbletea.Model, bubbletea.Cmd) {
	m.pending = true
	m.pendingText = text
	m.pendingBase = m.session.Len()
	m.status = ""
	m.statusIsErr = false
	m.refresh()
	return m, bubbletea.Batch(m.spinner.Tick, m.submit(text))
}

func (m chatModel) submit(text string) bubbletea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() bubbletea.Msg {
		ex, err := session.Submit(ctx, text)
		return exchangeDoneMsg{exchange: ex, err: err}
	}
}

func (m *chatModel) clear() {
	m.session.Clear()
	m.rendered = map[int]string{}
	m.status = "conversation cleared"
	m.statusIsErr = false
	m.refresh()
}

func (m *chatModel) setError(err error) {
	m.statusIsErr = true
	if exErr, ok := chat.AsExchangeError(err); ok {
		m.status = exErr.Describe()
		m.logger.Debug("exchange failed", "kind", exErr.Kind, "error", exErr.Cause)
		return
	}
	m.status = err.Error()
}

func (m chatModel) resized() chatModel {
	if m.height > 0 {
		m.viewport.Height = max(m.height-chromeHeight-m.promptsHeight(), 1)
	}
	m.refresh()
	return m
}

func (m chatModel) promptsHeight() int {
	if !m.showPrompts {
		return 0
	}
	return m.catalog.Len() + len(m.catalog.Categories())
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *chatModel) refresh() {
	if m.renderedWidth != m.width {
		m.rendered = map[int]string{}
		m.renderedWidth = m.width
	}

	var b strings.Builder
	turns := m.session.History()
	for i, turn := range turns {
		b.WriteString(m.renderTurn(i, turn))
		b.WriteString("\n")
	}

	if m.pending {
		if m.session.Len() == m.pendingBase {
			b.WriteString(m.renderTurn(-1, conversation.NewUserTurn(m.pendingText)))
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), chatMutedStyle.Render("Processing...")))
	}

	if len(turns) == 0 && !m.pending {
		b.WriteString(chatMutedStyle.Render("No messages yet."))
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderTurn(index int, turn conversation.Turn) string {
	if turn.Role == conversation.RoleUser {
		return cliui.UserStyle.Render("You") + "\n" + turn.Content + "\n"
	}

	out, ok := m.rendered[index]
	if !ok {
		var err error
		out, err = cliui.RenderMarkdownWidth(answerText(turn.Content), max(m.width-4, 20))
		if err != nil {
			m.logger.Debug("markdown rendering failed", "error", err)
		}
		out = strings.Trim(out, "\n")
		m.rendered[index] = out
	}
	return cliui.AssistantStyle.Render("Assistant") + "\n" + out + "\n"
}

func (m chatModel) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(chatTitleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(chatDividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.showPrompts {
		b.WriteString(m.promptsView(width))
	}

	status := m.status
	if status != "" {
		status = ansi.Truncate(status, width, "…")
		if m.statusIsErr {
			status = cliui.ErrorStyle.Render(status)
		} else {
			status = chatMutedStyle.Render(status)
		}
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m chatModel) promptsView(width int) string {
	var b strings.Builder
	for _, cat := range m.catalog.Categories() {
		b.WriteString(cliui.NameStyle.Render(cat.Name))
		b.WriteString("\n")
		for _, e := range m.catalog.Entries() {
			if e.Category != cat.Name {
				continue
			}
			line := fmt.Sprintf("  /%d %s", e.Index, e.Prompt)
			line = ansi.Truncate(line, width, "…")
			if e.Index-1 == m.promptCursor {
				b.WriteString(chatPromptStyle.Render(line))
			} else {
				b.WriteString(chatMutedStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
