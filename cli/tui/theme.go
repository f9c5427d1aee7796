package tui

import "github.com/charmbracelet/lipgloss"

// Theme collects the styles used by the browser. Every style that is
// rendered on the first two lines must stay a single line high, since
// mouse handling maps those rows directly.
type Theme struct {
	TabStyle       lipgloss.Style
	ActiveTabStyle lipgloss.Style
	AddressStyle   lipgloss.Style
	PromptStyle    lipgloss.Style

	SuggestionStyle        lipgloss.Style
	HoveredSuggestionStyle lipgloss.Style

	BorderStyle        lipgloss.Style
	FocusedBorderStyle lipgloss.Style
	DirectoryStyle     lipgloss.Style
	FileStyle          lipgloss.Style
	SelectedItemStyle  lipgloss.Style
	ActiveItemStyle    lipgloss.Style

	TitleStyle     lipgloss.Style
	ContentStyle   lipgloss.Style
	NotFoundStyle  lipgloss.Style
	StatusBarStyle lipgloss.Style
	SavingStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	HelpStyle      lipgloss.Style
	CommandStyle   lipgloss.Style
}

func DefaultTheme() *Theme {
	return &Theme{
		TabStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("7")),
		ActiveTabStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")),
		AddressStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")),
		PromptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")),

		SuggestionStyle: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("7")),
		HoveredSuggestionStyle: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")),

		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		FocusedBorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")),
		DirectoryStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("4")),
		FileStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")),
		SelectedItemStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")),
		ActiveItemStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("2")),

		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")),
		ContentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")),
		NotFoundStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("3")),
		StatusBarStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("8")),
		SavingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		ErrorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")),
		HelpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		CommandStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")),
	}
}
