package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/services"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/desertthunder/tmx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DayListView ViewState = iota
	RecipeListView
	ConfirmView
	SyncView
	ResultView
)

// ModelOpts contains the dependencies of the TUI.
//
// A nil Snapshot starts a sync on launch; Save persists every fresh sync result.
type ModelOpts struct {
	Service  services.Service
	Engine   tasks.SyncEngine
	Snapshot *models.WeekplanSnapshot
	Save     func(*models.WeekplanSnapshot) error
	Open     func(url string) error
	Days     int
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	service    services.Service
	engine     tasks.SyncEngine
	save       func(*models.WeekplanSnapshot) error
	open       func(string) error
	days       int
	snapshot   *models.WeekplanSnapshot
	width      int
	height     int
	dayList    list.Model
	recipeList list.Model
	day        models.DayRecord
	recipe     models.RecipeRecord
	progress   tasks.ProgressUpdate
	progressCh chan tasks.ProgressUpdate
	doneCh     chan syncCompleteMsg
	status     string
	result     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	open := opts.Open
	if open == nil {
		open = shared.OpenBrowser
	}
	days := opts.Days
	if days <= 0 {
		days = 14
	}

	m := &Model{
		ctx:     ctx,
		view:    DayListView,
		service: opts.Service,
		engine:  opts.Engine,
		save:    opts.Save,
		open:    open,
		days:    days,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.dayList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.recipeList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.setSnapshot(opts.Snapshot)
	return m
}

// Init starts a sync when no stored snapshot was given.
func (m *Model) Init() tea.Cmd {
	if m.snapshot == nil {
		return m.startSync()
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.dayList.SetSize(msg.Width-4, msg.Height-8)
		m.recipeList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DayListView:
			return m.handleDayListKeys(msg)
		case RecipeListView:
			return m.handleRecipeListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case syncProgressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, waitForProgress(m.progressCh, m.doneCh)

	case syncCompleteMsg:
		m.progressCh, m.doneCh = nil, nil
		if msg.err != nil {
			m.err = msg.err
			m.result = ""
			m.view = ResultView
			return m, nil
		}
		m.setSnapshot(msg.snapshot)
		m.status = fmt.Sprintf("Synced %d days with %d recipes", len(msg.snapshot.Days()), msg.snapshot.RecipeCount())
		m.view = DayListView
		return m, nil

	case actionCompleteMsg:
		m.result = msg.message
		m.err = msg.err
		m.view = ResultView
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.status = styles.err.Render(msg.err.Error())
		} else {
			m.status = msg.text
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DayListView:
		return m.renderDayList()
	case RecipeListView:
		return m.renderRecipeList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) setSnapshot(snap *models.WeekplanSnapshot) {
	m.snapshot = snap
	m.dayList.SetItems(dayItems(snap))
	m.dayList.Title = "Weekplan"
	if snap != nil {
		m.dayList.Title = fmt.Sprintf("Weekplan since %s", snap.SinceDate)
		for i, d := range snap.Days() {
			if d.IsToday {
				m.dayList.Select(i)
				break
			}
		}
	}
}

func (m *Model) handleDayListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dayList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.sync):
		return m, m.startSync()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.dayList.SelectedItem().(dayItem); ok {
			m.day = item.day
			m.recipeList.SetItems(recipeItems(item.day))
			m.recipeList.Title = formatter.DayLabel(item.day)
			m.recipeList.Select(0)
			m.status = ""
			m.view = RecipeListView
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleRecipeListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.recipeList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	item, selected := m.recipeList.SelectedItem().(recipeItem)
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.status = ""
		m.view = DayListView
		return m, nil
	case selected && (key.Matches(msg, m.keys.open) || key.Matches(msg, m.keys.enter)):
		return m, m.openRecipe(item.recipe)
	case selected && key.Matches(msg, m.keys.remove):
		m.recipe = item.recipe
		m.view = ConfirmView
		return m, nil
	case selected && key.Matches(msg, m.keys.shop):
		m.status = "Adding to shopping list..."
		return m, m.addToShoppingList(item.recipe)
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = RecipeListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.status = "Removing..."
		m.view = RecipeListView
		return m, m.removeFromPlan(m.recipe, m.day.Date)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.view = DayListView
		m.result = ""
		m.err = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.sync):
		m.result = ""
		m.err = nil
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DayListView:
		m.dayList, cmd = m.dayList.Update(msg)
	case RecipeListView:
		m.recipeList, cmd = m.recipeList.Update(msg)
	}
	return m, cmd
}

// startSync runs the engine in a goroutine and streams its progress back as messages.
func (m *Model) startSync() tea.Cmd {
	if m.engine == nil {
		return func() tea.Msg {
			return syncCompleteMsg{err: fmt.Errorf("%w: sync engine not configured", shared.ErrServiceUnavailable)}
		}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan syncCompleteMsg, 1)
	m.progressCh, m.doneCh = progress, done
	m.progress = tasks.ProgressUpdate{}
	m.status = ""
	m.view = SyncView

	engine, save, ctx, days := m.engine, m.save, m.ctx, m.days
	go func() {
		snap, err := engine.Sync(ctx, progress, "", days)
		if err == nil && save != nil {
			if serr := save(snap); serr != nil {
				snap, err = nil, fmt.Errorf("failed to save weekplan: %w", serr)
			}
		}
		close(progress)
		done <- syncCompleteMsg{snapshot: snap, err: err}
	}()

	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan syncCompleteMsg) tea.Cmd {
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return syncProgressMsg(update)
	}
}

func (m *Model) openRecipe(r models.RecipeRecord) tea.Cmd {
	open := m.open
	return func() tea.Msg {
		if err := open(r.URL); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Opened " + r.Title}
	}
}

func (m *Model) removeFromPlan(r models.RecipeRecord, date string) tea.Cmd {
	svc, ctx := m.service, m.ctx
	return func() tea.Msg {
		if svc == nil {
			return actionCompleteMsg{err: fmt.Errorf("%w: service not configured", shared.ErrServiceUnavailable)}
		}
		msg, err := svc.RemoveRecipeFromPlan(ctx, r.ID, date)
		return actionCompleteMsg{message: fmt.Sprintf("%s: %s", r.Title, msg), err: err}
	}
}

func (m *Model) addToShoppingList(r models.RecipeRecord) tea.Cmd {
	svc, ctx := m.service, m.ctx
	return func() tea.Msg {
		if svc == nil {
			return actionCompleteMsg{err: fmt.Errorf("%w: service not configured", shared.ErrServiceUnavailable)}
		}
		msg, err := svc.AddRecipesToShoppingList(ctx, []string{r.ID})
		return actionCompleteMsg{message: fmt.Sprintf("%s: %s", r.Title, msg), err: err}
	}
}

func (m *Model) renderDayList() string {
	return m.withStatus(m.dayList.View(), m.keys.forView(DayListView))
}

func (m *Model) renderRecipeList() string {
	return m.withStatus(m.recipeList.View(), m.keys.forView(RecipeListView))
}

func (m *Model) withStatus(body string, helpKeys []key.Binding) string {
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status == "" {
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}
	return fmt.Sprintf("%s\n%s\n%s", body, styles.help.Render(m.status), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove '%s' from the plan?", m.recipe.Title))
	info := fmt.Sprintf("\nDay: %s\nRecipe: %s\n", formatter.DayLabel(m.day), m.recipe.ID)

	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(m.keys.forView(ConfirmView)))
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Weekplan")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchWeek:
		if m.progress.Total > 0 {
			phase = fmt.Sprintf("Fetching weeks (%d/%d)", m.progress.Step, m.progress.Total)
		} else {
			phase = "Fetching weeks..."
		}
	case tasks.MergeDays:
		phase = "Merging days..."
	case tasks.Done:
		phase = "Saving..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.forView(ResultView))

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("✗ %v", m.err)), helpView)
	}
	return fmt.Sprintf("%s\n%s\n\n%s", styles.ok.Render("✓ "+m.result), styles.warn.Render("Press s to sync the plan"), helpView)
}
