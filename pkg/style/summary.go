package style

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazbak/hazbak/pkg/types"
)

// RenderSummary formats a run result for the terminal. Plain means no
// lipgloss styling, for pipes and NO_COLOR environments.
func RenderSummary(result *types.RunResult, plain bool) string {
	var b strings.Builder

	title := "Backup run"
	if result.DryRun {
		title = "Backup run (dry run)"
	}
	writeStyled(&b, TitleStyle, plain, title)
	b.WriteString("\n")

	for _, m := range result.Mappings {
		b.WriteString("\n")
		writeStyled(&b, PathStyle, plain, m.Mapping.String())
		b.WriteString("\n")

		if m.Err != nil {
			writeStyled(&b, ErrorStyle, plain, fmt.Sprintf("  %s %v", indicator(ErrorIndicator, "x", plain), m.Err))
			b.WriteString("\n")
			continue
		}

		fmt.Fprintf(&b, "  %s %d copied, %d unchanged, %d flagged deleted\n",
			indicator(SuccessIndicator, "+", plain), m.Copied, m.Unchanged, m.Deleted)
		if m.Failed > 0 {
			writeStyled(&b, ErrorStyle, plain,
				fmt.Sprintf("  %s %d failed after retries, see failure log", indicator(ErrorIndicator, "x", plain), m.Failed))
			b.WriteString("\n")
		}
		if m.Warnings > 0 {
			writeStyled(&b, WarningStyle, plain,
				fmt.Sprintf("  %s %d warnings", indicator(WarningIndicator, "!", plain), m.Warnings))
			b.WriteString("\n")
		}
	}

	copied, failed, unchanged, deleted, _ := result.Totals()
	b.WriteString("\n")
	summary := fmt.Sprintf("%d copied, %d failed, %d unchanged, %d flagged deleted in %s",
		copied, failed, unchanged, deleted, result.Duration.Round(10*time.Millisecond))
	writeStyled(&b, MutedStyle, plain, summary)
	b.WriteString("\n")

	return b.String()
}

func writeStyled(b *strings.Builder, style interface{ Render(...string) string }, plain bool, s string) {
	if plain {
		b.WriteString(s)
		return
	}
	b.WriteString(style.Render(s))
}

func indicator(styled, fallback string, plain bool) string {
	if plain {
		return fallback
	}
	return styled
}
