package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/reformat/cmd/internal/cliutils"
	"github.com/lexcodex/reformat/framework"
)

var (
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")

	filePathStyle = lipgloss.NewStyle().
			Bold(true)

	replacedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorError)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

func renderResult(res cliutils.FileResult, wrote bool) string {
	path := filePathStyle.Render(res.Path)
	if res.Err != nil {
		return fmt.Sprintf("%s %s %s", path, failedStyle.Render("error"), dimStyle.Render(res.Err.Error()))
	}
	out := res.Outcome
	switch out.Kind {
	case framework.OutcomeReplaced:
		switch {
		case out.Reload:
			return fmt.Sprintf("%s %s", path, replacedStyle.Render("reformatted on disk"))
		case !res.Modified():
			return fmt.Sprintf("%s %s", path, dimStyle.Render("unchanged"))
		case wrote:
			return fmt.Sprintf("%s %s", path, replacedStyle.Render("reformatted"))
		default:
			return fmt.Sprintf("%s %s", path, skippedStyle.Render("would reformat"))
		}
	case framework.OutcomeSkipped:
		return fmt.Sprintf("%s %s %s", path, skippedStyle.Render("skipped"), dimStyle.Render(out.Reason))
	default:
		return fmt.Sprintf("%s %s %s", path, failedStyle.Render("failed"), dimStyle.Render(framework.FirstLine(out.Reason)))
	}
}

func renderStatus(status string) string {
	switch status {
	case "ok":
		return replacedStyle.Render(status)
	case "missing":
		return failedStyle.Render(status)
	default:
		return skippedStyle.Render(status)
	}
}

func renderKind(kind framework.OutcomeKind) string {
	switch kind {
	case framework.OutcomeReplaced:
		return replacedStyle.Render(string(kind))
	case framework.OutcomeSkipped:
		return skippedStyle.Render(string(kind))
	default:
		return failedStyle.Render(string(kind))
	}
}
