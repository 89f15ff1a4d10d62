package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/scanner"
	"github.com/mossridge/ytup/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FolderListView ViewState = iota
	ConfirmView
	UploadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.UploadEngine
	root         string
	width        int
	height       int
	folderList   list.Model
	folders      []scanner.Folder
	selected     *scanner.Folder
	plan         *tasks.RunPlan
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	bar          progress.Model
	summary      *models.RunSummary
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

// folderItem wraps [scanner.Folder] to implement list.Item.
type folderItem struct {
	folder scanner.Folder
	count  int
}

func (i folderItem) FilterValue() string { return i.folder.Name }
func (i folderItem) Title() string       { return i.folder.Name }
func (i folderItem) Description() string {
	return fmt.Sprintf("%d media files", i.count)
}

type foldersLoadedMsg struct {
	folders []scanner.Folder
	counts  map[string]int
	err     error
}

type planReadyMsg struct {
	plan *tasks.RunPlan
	err  error
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	summary *models.RunSummary
	err     error
}

// NewModel creates a new TUI model rooted at the master folder.
func NewModel(ctx context.Context, engine *tasks.UploadEngine, root string) *Model {
	return &Model{
		ctx:    ctx,
		view:   FolderListView,
		engine: engine,
		root:   root,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by scanning the master folder.
func (m *Model) Init() tea.Cmd {
	return m.loadFolders()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.folderList.Width() == 0 {
			m.folderList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FolderListView:
			return m.handleFolderListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case foldersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.folders = msg.folders
		items := make([]list.Item, len(msg.folders))
		for i, folder := range msg.folders {
			items[i] = folderItem{folder: folder, count: msg.counts[folder.Path]}
		}
		m.folderList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.folderList.Title = "Local Collections"
		m.folderList.SetSize(m.width-4, m.height-8)
		return m, nil

	case planReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = FolderListView
			return m, nil
		}
		m.plan = msg.plan
		m.view = ConfirmView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case FolderListView:
		return m.renderFolderList()
	case ConfirmView:
		return m.renderConfirm()
	case UploadView:
		return m.renderUpload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleFolderListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.folderList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(folderItem); ok {
				m.selected = &item.folder
				return m, m.buildPlan(item.folder.Path)
			}
		}
	}

	var cmd tea.Cmd
	m.folderList, cmd = m.folderList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "n":
		m.view = FolderListView
		m.plan = nil
		return m, nil
	case "y", "enter":
		m.view = UploadView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = FolderListView
		m.selected = nil
		m.plan = nil
		m.summary = nil
		m.err = nil
		return m, m.loadFolders()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == FolderListView {
		m.folderList, cmd = m.folderList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadFolders() tea.Cmd {
	return func() tea.Msg {
		folders, err := scanner.ListFolders(m.root)
		if err != nil {
			return foldersLoadedMsg{err: err}
		}
		counts := make(map[string]int, len(folders))
		for _, folder := range folders {
			items, err := scanner.ListItems(folder.Path)
			if err != nil {
				return foldersLoadedMsg{err: err}
			}
			counts[folder.Path] = len(items)
		}
		return foldersLoadedMsg{folders: folders, counts: counts}
	}
}

func (m *Model) buildPlan(folder string) tea.Cmd {
	return func() tea.Msg {
		plan, err := m.engine.Plan(m.ctx, folder)
		return planReadyMsg{plan: plan, err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.engine.SetProgressChannel(m.progressChan)
	progressChan := m.progressChan

	go func() {
		summary, err := m.engine.Run(m.ctx, m.selected.Path)
		m.summary = summary
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderFolderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.folderList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Upload '%s'?", m.plan.Collection))

	target := m.plan.CollectionID
	if target == "" {
		target = "(new playlist)"
	}
	info := fmt.Sprintf(
		"\nCollection: %s\nItems: %d total, %d pending, %d already uploaded\n",
		target, m.plan.TotalItems, len(m.plan.Pending), m.plan.Skipped,
	)
	if n := len(m.plan.DataErrors); n > 0 {
		info += styles.warn.Render(fmt.Sprintf("%d duplicate-key files will be skipped\n", n))
	}
	if n := len(m.plan.CaptionRepairs) + len(m.plan.ListingRepairs); n > 0 {
		info += fmt.Sprintf("%d repairs from previous runs\n", n)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderUpload() string {
	title := styles.title.Render(fmt.Sprintf("Uploading '%s'", m.selected.Name))

	var phase string
	switch m.progress.Phase {
	case tasks.ScanLocal:
		phase = "Scanning local folder..."
	case tasks.ResolveCollection:
		phase = "Resolving remote playlist..."
	case tasks.FetchRemote:
		phase = "Fetching remote entries..."
	case tasks.Reconciling:
		phase = "Reconciling..."
	case tasks.Transferring:
		phase = fmt.Sprintf("Transferring (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Captioning:
		phase = "Attaching captions..."
	case tasks.Listing:
		phase = "Updating playlist..."
	case tasks.Repairing:
		phase = "Repairing earlier failures..."
	case tasks.Halted:
		phase = styles.warn.Render("Quota exhausted, stopping...")
	default:
		phase = "Processing..."
	}

	bar := ""
	if m.progress.Phase == tasks.Transferring {
		bar = "\n" + m.bar.ViewAs(m.progress.Percent/100)
	}

	return fmt.Sprintf("%s\n\n%s%s\n%s", title, phase, bar, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress r to restart, q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No summary available\n\nPress r to restart, q to quit")
	}

	title := styles.ok.Render("✓ Run Complete")
	if m.summary.Halted {
		title = styles.warn.Render("Run halted: upload quota exhausted")
	}

	info := fmt.Sprintf(
		"\nCollection: %s\nUploaded: %d of %d pending (%d bytes)\nSkipped: %d already present",
		m.summary.Collection,
		m.summary.UploadedCount,
		m.summary.PendingItems,
		m.summary.UploadedBytes,
		m.summary.SkippedCount,
	)

	var failed string
	if n := m.summary.FailureCount(); n > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d failures recorded:", n)))
		for _, f := range m.summary.TransferFailures {
			failed += fmt.Sprintf("\n  • transfer: %s", f.Key)
		}
		for _, f := range m.summary.CaptionFailures {
			failed += fmt.Sprintf("\n  • caption: %s", f.Key)
		}
		for _, f := range m.summary.PlaylistFailures {
			failed += fmt.Sprintf("\n  • playlist: %s", f.Key)
		}
		for _, f := range m.summary.DataErrors {
			failed += fmt.Sprintf("\n  • duplicate: %s", f.Path)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
