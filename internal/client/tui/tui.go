// Package tui 基于 bubbletea 的终端待办界面
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tasklet/backend/internal/client/apiclient"
	"github.com/tasklet/backend/internal/client/viewmodel"
)

// todoItem 适配 list.Item
type todoItem struct {
	todo apiclient.Todo
}

func (i todoItem) Title() string       { return i.todo.Title }
func (i todoItem) Description() string { return "" }
func (i todoItem) FilterValue() string { return i.todo.Title }

// itemDelegate 单行渲染
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s\n", prefix, box, text)
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// 异步操作结果
type (
	opDoneMsg       struct{ err error }
	changeMsg       struct{ event apiclient.ChangeEvent }
	streamClosedMsg struct{}
)

// Model 终端界面状态
type Model struct {
	ctx    context.Context
	vm     *viewmodel.ViewModel
	events <-chan apiclient.ChangeEvent

	list   list.Model
	input  textinput.Model
	mode   mode
	editID int64
	width  int
	height int
}

var (
	addKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename"))
	toggleKey = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	reloadKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
)

// NewModel 创建界面模型，events 为 nil 时不接收实时推送
func NewModel(ctx context.Context, vm *viewmodel.ViewModel, events <-chan apiclient.ChangeEvent) Model {
	l := list.New(nil, itemDelegate{}, 76, 18)
	l.Title = "Todos"
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	bindings := func() []key.Binding {
		return []key.Binding{addKey, editKey, toggleKey, deleteKey, reloadKey}
	}
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	return Model{
		ctx:    ctx,
		vm:     vm,
		events: events,
		list:   l,
		input:  ti,
		width:  80,
		height: 24,
	}
}

// Init 首次加载并开始监听推送
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run(m.vm.Load), m.waitForEvent())
}

// run 在后台执行视图模型操作
func (m Model) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(m.ctx)}
	}
}

// waitForEvent 读取下一条推送
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return changeMsg{event: event}
	}
}

// selected 当前选中的待办
func (m Model) selected() (apiclient.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return apiclient.Todo{}, false
	}
	return it.todo, true
}

// refresh 以视图模型为准重建列表
func (m *Model) refresh() tea.Cmd {
	todos := m.vm.Items()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, todoItem{todo: t})
	}
	m.list.Title = fmt.Sprintf("Todos   %s %d  %s %d",
		pendingStyle.Render("•"), viewmodel.Remaining(todos),
		successStyle.Render("✔"), len(todos)-viewmodel.Remaining(todos),
	)
	return m.list.SetItems(items)
}

// Update 实现 tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil
	case opDoneMsg:
		return m, m.refresh()
	case changeMsg:
		m.vm.Apply(msg.event)
		return m, tea.Batch(m.refresh(), m.waitForEvent())
	case streamClosedMsg:
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.mode = modeAdd
			m.input.SetValue("")
			m.input.Placeholder = "What needs to be done?"
			return m, m.input.Focus()
		case "e":
			if todo, ok := m.selected(); ok {
				m.mode = modeEdit
				m.editID = todo.ID
				m.input.SetValue(todo.Title)
				m.input.CursorEnd()
				m.input.Placeholder = "New title"
				return m, m.input.Focus()
			}
			return m, nil
		case " ":
			if todo, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error {
					return m.vm.Toggle(ctx, todo.ID, todo.Completed)
				})
			}
			return m, nil
		case "d":
			if todo, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error {
					return m.vm.Delete(ctx, todo.ID)
				})
			}
			return m, nil
		case "r":
			return m, m.run(m.vm.Load)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput 处理新增或重命名输入
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		current, id := m.mode, m.editID
		m.mode = modeBrowse
		m.input.Blur()
		m.input.SetValue("")

		if current == modeAdd {
			return m, m.run(func(ctx context.Context) error {
				return m.vm.Add(ctx, value)
			})
		}
		return m, m.run(func(ctx context.Context) error {
			return m.vm.Rename(ctx, id, value)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View 实现 tea.Model
func (m Model) View() string {
	if m.vm.Loading() {
		return panelStyle.Render("Loading...")
	}

	var b strings.Builder
	if errMsg := m.vm.Err(); errMsg != "" {
		b.WriteString(errorStyle.Render(errMsg))
		b.WriteString("\n")
	}

	if m.vm.Total() == 0 {
		b.WriteString(mutedStyle.Render("No todos yet. Press a to add one!"))
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("%d of %d tasks remaining", m.vm.Remaining(), m.vm.Total())))
	}

	switch m.mode {
	case modeAdd:
		b.WriteString("\n" + panelStyle.Render("Add todo\n"+m.input.View()))
	case modeEdit:
		b.WriteString("\n" + panelStyle.Render("Rename todo\n"+m.input.View()))
	}
	return panelStyle.Render(b.String())
}

// Run 启动终端界面，并在后台订阅实时推送
func Run(ctx context.Context, client *apiclient.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan apiclient.ChangeEvent, 16)
	go func() {
		defer close(events)
		// 推送不可用时界面仍可使用，只是不会自动刷新
		_ = client.Subscribe(ctx, func(event apiclient.ChangeEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		})
	}()

	vm := viewmodel.New(client)
	p := tea.NewProgram(NewModel(ctx, vm, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
