package render

import (
	"fmt"
	"strings"

	"onboarding-cli/internal/model"
)

// Dashboard renders the dashboard catalog with completion marks and the summary percentage.
func Dashboard(items []model.DashboardItem, isComplete func(model.ItemID) bool, percent int, width int) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Onboarding progress"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %3d%%\n\n", ProgressBar(percent, width), percent))
	for _, it := range items {
		line := fmt.Sprintf("%s %d  %s", check(isComplete(it.ID)), it.ID, it.Title)
		if d := strings.TrimSpace(it.Description); d != "" {
			line += "  " + MutedStyle.Render(d)
		}
		sb.WriteString(line + "\n")
	}
	if len(items) == 0 {
		sb.WriteString(MutedStyle.Render("No onboarding items.") + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
