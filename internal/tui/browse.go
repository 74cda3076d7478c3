// Package tui is a read-only tabbed browser over the catalog's selection
// lists. It re-reads the store on start and whenever r is pressed.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"library-catalog/library"
)

// Source provides the list projections shown in the tabs.
type Source interface {
	ListAvailableBooks() ([]*library.Book, error)
	ListUsers() ([]*library.User, error)
	ListOpenBorrows() ([]*library.OpenBorrow, error)
}

// Tab identifies one page of the browser.
type Tab int

const (
	TabAvailable Tab = iota
	TabUsers
	TabBorrows
	TabInfo
)

var tabNames = []string{"Available books", "Users", "Open borrows", "Info"}

func (t Tab) String() string { return tabNames[t] }

type item struct {
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + " " + i.desc }

// Messages
type dataLoadedMsg struct {
	books   []*library.Book
	users   []*library.User
	borrows []*library.OpenBorrow
}

type errorMsg struct {
	err error
}

// Model is the Bubbletea model for the browser.
type Model struct {
	src    Source
	info   []string
	active Tab
	lists  [TabInfo]list.Model
	err    error
	width  int
	height int
}

// NewModel creates a browser over src. info is shown on the Info tab.
func NewModel(src Source, info []string) Model {
	m := Model{src: src, info: info}
	for i := range m.lists {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = tabNames[i]
		l.Styles.Title = titleStyle
		l.SetShowStatusBar(true)
		l.SetFilteringEnabled(true)
		l.SetShowHelp(false)
		m.lists[i] = l
	}
	return m
}

// Active returns the selected tab.
func (m Model) Active() Tab { return m.active }

// Err returns the last load error, if any.
func (m Model) Err() error { return m.err }

// Items returns the items currently shown on a list tab.
func (m Model) Items(t Tab) []list.Item {
	if t >= TabInfo {
		return nil
	}
	return m.lists[t].Items()
}

func loadCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		books, err := src.ListAvailableBooks()
		if err != nil {
			return errorMsg{err: fmt.Errorf("load books: %w", err)}
		}
		users, err := src.ListUsers()
		if err != nil {
			return errorMsg{err: fmt.Errorf("load users: %w", err)}
		}
		borrows, err := src.ListOpenBorrows()
		if err != nil {
			return errorMsg{err: fmt.Errorf("load borrows: %w", err)}
		}
		return dataLoadedMsg{books: books, users: users, borrows: borrows}
	}
}

// Init loads the lists.
func (m Model) Init() tea.Cmd {
	return loadCmd(m.src)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case dataLoadedMsg:
		m.err = nil
		m.lists[TabAvailable].SetItems(bookItems(msg.books))
		m.lists[TabUsers].SetItems(userItems(msg.users))
		m.lists[TabBorrows].SetItems(borrowItems(msg.borrows))
		return m, nil

	case errorMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % Tab(len(tabNames))
			return m, nil
		case "shift+tab", "left", "h":
			m.active = (m.active + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			return m, nil
		case "r":
			return m, loadCmd(m.src)
		}
	}

	if m.active < TabInfo {
		var cmd tea.Cmd
		m.lists[m.active], cmd = m.lists[m.active].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) filtering() bool {
	return m.active < TabInfo && m.lists[m.active].FilterState() == list.Filtering
}

// View renders the UI
func (m Model) View() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = inactiveTabStyle.Render(name)
		}
	}

	var body string
	if m.active == TabInfo {
		body = boxStyle.Render(strings.Join(m.info, "\n"))
	} else {
		body = m.lists[m.active].View()
	}

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, tabs...), body}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Error: "+m.err.Error()))
	}
	parts = append(parts, helpStyle.Render(
		FormatKey("tab/←/→", "switch") + " • " +
			FormatKey("/", "filter") + " • " +
			FormatKey("r", "refresh") + " • " +
			FormatKey("q", "quit"),
	))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func bookItems(books []*library.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = item{
			title: fmt.Sprintf("%s - %s", b.ISBN, b.Title),
			desc:  fmt.Sprintf("#%d · %s · %s", b.ID, b.Author, b.Genre),
		}
	}
	return items
}

func userItems(users []*library.User) []list.Item {
	items := make([]list.Item, len(users))
	for i, u := range users {
		items[i] = item{title: u.Name, desc: fmt.Sprintf("user #%d", u.ID)}
	}
	return items
}

func borrowItems(borrows []*library.OpenBorrow) []list.Item {
	items := make([]list.Item, len(borrows))
	for i, b := range borrows {
		items[i] = item{
			title: b.Title,
			desc:  fmt.Sprintf("borrow #%d · book #%d · user #%d", b.BorrowID, b.BookID, b.UserID),
		}
	}
	return items
}

// Run starts the browser in the alternate screen.
func Run(src Source, info []string) error {
	p := tea.NewProgram(NewModel(src, info), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
