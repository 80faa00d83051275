// Package ui provides the interactive terminal prompts used by the
// configuration wizard: list selection, confirmation, and free-text input.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type selectModel struct {
	title  string
	items  []string
	cursor int
	choice int
	done   bool
}

func newSelectModel(title string, items []string) selectModel {
	return selectModel{title: title, items: items, choice: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		m.choice = m.cursor
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n\n")
	for i, item := range m.items {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(item) + "\n")
		} else {
			b.WriteString("  " + item + "\n")
		}
	}
	b.WriteString(helpStyle.Render("\nenter select • q cancel\n"))
	return b.String()
}

// Select shows a list and returns the index of the chosen item,
// or -1 when the user cancels.
func Select(title string, items []string) (int, error) {
	final, err := tea.NewProgram(newSelectModel(title, items)).Run()
	if err != nil {
		return -1, fmt.Errorf("run selection: %w", err)
	}
	return final.(selectModel).choice, nil
}

type confirmModel struct {
	title  string
	prompt string
	answer bool
	done   bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.answer = false
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	return titleStyle.Render(m.title) + "\n\n" + m.prompt + " " + helpStyle.Render("(y/n)") + "\n"
}

// Confirm shows a yes/no dialog. Anything but an explicit yes is no.
func Confirm(title, prompt string) (bool, error) {
	final, err := tea.NewProgram(confirmModel{title: title, prompt: prompt}).Run()
	if err != nil {
		return false, fmt.Errorf("run confirmation: %w", err)
	}
	return final.(confirmModel).answer, nil
}

type inputModel struct {
	prompt string
	input  textinput.Model
	done   bool
}

func newInputModel(prompt, placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	return inputModel{prompt: prompt, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.input.SetValue("")
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return titleStyle.Render(m.prompt) + "\n\n" + m.input.View() + "\n"
}

// Input prompts for one line of text. The placeholder doubles as the
// value hint; an empty return means the user accepted the default or
// cancelled.
func Input(prompt, placeholder string) (string, error) {
	final, err := tea.NewProgram(newInputModel(prompt, placeholder)).Run()
	if err != nil {
		return "", fmt.Errorf("run input: %w", err)
	}
	return final.(inputModel).input.Value(), nil
}
