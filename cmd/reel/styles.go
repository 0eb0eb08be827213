package main

import "github.com/charmbracelet/lipgloss"

// Colors used in rendered output.
var (
	colorAccent = lipgloss.Color("62")  // Purple
	colorMuted  = lipgloss.Color("241") // Gray
	colorGood   = lipgloss.Color("78")  // Green
	colorWarn   = lipgloss.Color("214") // Orange
)

// headerStyle heads each rendered block.
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorAccent)

// sectionStyle marks script section names.
var sectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorGood)

// sourceStyle renders source names and other secondary detail.
var sourceStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// degradedStyle flags scripts saved outside the word bounds.
var degradedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWarn)
