package render

import (
	"fmt"
	"strings"

	"onboarding-cli/internal/model"
)

// Journal renders journal events oldest-first.
func Journal(evs []model.Event) string {
	if len(evs) == 0 {
		return MutedStyle.Render("No events.")
	}
	var sb strings.Builder
	for _, ev := range evs {
		sb.WriteString(fmt.Sprintf("%s  %-20s %-10s %s\n",
			MutedStyle.Render(ev.TS.Local().Format("2006-01-02 15:04:05")), ev.Type, ev.Context, ev.EntityID))
	}
	return strings.TrimRight(sb.String(), "\n")
}
