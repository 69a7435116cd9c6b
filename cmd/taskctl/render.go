package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

var (
	idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Strikethrough(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func renderTask(task taskstore.Task) string {
	box := "[ ]"
	desc := task.Description
	if task.Completed {
		box = "[x]"
		desc = doneStyle.Render(desc)
	}
	return fmt.Sprintf("%s %s %s", box, idStyle.Render(fmt.Sprintf("#%d", task.ID)), desc)
}

func renderTasks(tasks []taskstore.Task) string {
	if len(tasks) == 0 {
		return dimStyle.Render("No tasks") + "\n"
	}
	var b strings.Builder
	remaining := 0
	for _, task := range tasks {
		if !task.Completed {
			remaining++
		}
		b.WriteString(renderTask(task))
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d of %d remaining", remaining, len(tasks))))
	b.WriteByte('\n')
	return b.String()
}
