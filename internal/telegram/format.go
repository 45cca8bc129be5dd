package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mathly/internal/graph"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/solution"
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatSolution(sol solution.Solution) string {
	var sb strings.Builder
	sb.WriteString("✅ *Solution*\n")
	sb.WriteString(escape(sol.OriginalProblem))
	sb.WriteString("\n\n")

	for _, s := range sol.Steps {
		sb.WriteString(fmt.Sprintf("*Step %d*: %s\n", s.Index, escape(s.Description)))
		if s.Calculation != "" || s.Result != "" {
			sb.WriteString(fmt.Sprintf("    %s → %s\n", escape(s.Calculation), escape(s.Result)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n🎯 *Answer:* %s", escape(sol.FinalAnswer)))
	return sb.String()
}

func formatWordProblem(wp solution.WordProblem) string {
	if wp.Solution == nil {
		text := "⚠️ *Could not solve this problem.*"
		if wp.ExtractedEquation != "" {
			text += "\nEquation found: " + escape(wp.ExtractedEquation)
		}
		return text
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📖 *Equation:* %s\n\n", escape(wp.ExtractedEquation)))
	sb.WriteString(formatSolution(*wp.Solution))
	return sb.String()
}

func formatCalories(a nutrition.CaloriesAnalysis) string {
	var sb strings.Builder
	sb.WriteString("🍽 *Calories*\n")
	for _, f := range a.Breakdown {
		sb.WriteString(fmt.Sprintf("• %s (%s): %.0f kcal\n", escape(f.Name), escape(f.Serving), f.Calories))
	}
	sb.WriteString(fmt.Sprintf("\n*Total:* %.0f kcal\n", a.TotalCalories))

	if len(a.Exercises) > 0 {
		sb.WriteString("\n🏃 *Burn it off*\n")
		for _, e := range a.Exercises {
			sb.WriteString(fmt.Sprintf("• %s, %s: %.0f kcal\n", escape(e.Name), escape(e.Duration), e.CaloriesBurned))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatGraph(g graph.Graph, points []graph.Point) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 *Graph:* y = %s on [%g, %g]\n", escape(g.Expression), g.XMin, g.XMax))
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("• x = %.3g, y = %.4g\n", p.X, p.Y))
	}
	sb.WriteString(fmt.Sprintf("\nGraph id: %s", escape(g.ID)))
	return sb.String()
}

func formatHistory(sols []solution.Solution) string {
	if len(sols) == 0 {
		return "🗂 _No solutions yet_"
	}
	var sb strings.Builder
	sb.WriteString("🗂 *Recent Solutions*\n\n")
	for _, s := range sols {
		sb.WriteString(fmt.Sprintf("• %s → %s\n", escape(s.OriginalProblem), escape(s.FinalAnswer)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s", health.DataDiskSize))
	return sb.String()
}
