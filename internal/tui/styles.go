package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)

	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	feedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).PaddingTop(1)
)
