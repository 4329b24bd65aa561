package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/history"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

const (
	defaultReportWidth = 90
	targetColumnWidth  = 48
)

// FormatActionSummary renders a scan result: aggregate numbers first,
// then the safety and category breakdown, then the biggest proposals.
func FormatActionSummary(summary types.CleaningSummary, actions []types.CleaningAction, limit int) string {
	width := reportWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Scan Summary") + "\n")
	b.WriteString(divider(width) + "\n")

	if summary.TotalActions == 0 {
		b.WriteString(mutedStyle.Render("Nothing to clean.") + "\n")
		return b.String()
	}

	size := humanize.IBytes(uint64(summary.TotalBytes))
	b.WriteString(fmt.Sprintf("Proposed: %d actions, est. %s reclaimable\n", summary.TotalActions, sizeStyle.Render(size)))
	b.WriteString(fmt.Sprintf("Reversible: %d\n", summary.ReversibleActions))
	if summary.Largest != nil {
		b.WriteString(fmt.Sprintf("Largest: %s (%s)\n",
			truncateText(summary.Largest.Target, width-24),
			humanize.IBytes(uint64(summary.Largest.EstimatedBytes))))
	}

	b.WriteString("\n" + sectionStyle.Render("By safety") + "\n")
	for _, level := range []types.SafetyLevel{types.SafetyLevelSafe, types.SafetyLevelModerate, types.SafetyLevelRisky} {
		stat, ok := summary.BySafety[level]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("%s %-10s %4d  %10s\n",
			safetyDot(level), string(level), stat.Count, humanize.IBytes(uint64(stat.Bytes))))
	}

	b.WriteString("\n" + sectionStyle.Render("By category") + "\n")
	for _, category := range sortedCategories(summary.ByCategory) {
		stat := summary.ByCategory[category]
		b.WriteString(fmt.Sprintf("  %-24s %4d  %10s\n",
			truncateText(category, 24), stat.Count, humanize.IBytes(uint64(stat.Bytes))))
	}

	if limit > 0 && len(actions) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Top proposals") + "\n")
		for _, action := range topByEstimate(actions, limit) {
			b.WriteString(fmt.Sprintf("%s %-*s %10s\n",
				safetyDot(action.Safety),
				targetColumnWidth, truncateText(action.Target, targetColumnWidth),
				humanize.IBytes(uint64(action.EstimatedBytes))))
		}
	}

	return b.String()
}

// FormatDuplicateReport renders detection results, biggest waste first.
func FormatDuplicateReport(report types.DuplicateReport, limit int) string {
	width := reportWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Duplicate Report") + "\n")
	b.WriteString(divider(width) + "\n")

	if report.GroupCount == 0 {
		b.WriteString(mutedStyle.Render("No duplicate files found.") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Groups: %d  Files: %d  Wasted: %s\n",
		report.GroupCount, report.FileCount, sizeStyle.Render(humanize.IBytes(uint64(report.WastedBytes)))))

	if limit <= 0 || limit > len(report.Groups) {
		limit = len(report.Groups)
	}
	for i := 0; i < limit; i++ {
		group := report.Groups[i]
		b.WriteString(fmt.Sprintf("\n%d. %s wasted, %d copies of %s  %s\n",
			i+1,
			sizeStyle.Render(humanize.IBytes(uint64(group.WastedBytes))),
			len(group.Paths),
			humanize.IBytes(uint64(group.FileSize)),
			mutedStyle.Render(shortDigest(group.Digest))))
		for _, path := range group.Paths {
			b.WriteString(mutedStyle.Render("   - "+truncateText(path, width-5)) + "\n")
		}
	}
	if limit < len(report.Groups) {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("\n... and %d more groups\n", len(report.Groups)-limit)))
	}

	return b.String()
}

// FormatExecutionReport renders executor output.
func FormatExecutionReport(report types.ExecutionReport, dryRun bool) string {
	width := reportWidth()

	title := "Cleaning Report"
	freedLabel := "Recovered"
	if dryRun {
		title = "Dry Run Report"
		freedLabel = "Freed (dry-run)"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(divider(width) + "\n")

	if len(report.Results) == 0 {
		b.WriteString(mutedStyle.Render("Nothing was executed.") + "\n")
		return b.String()
	}

	for _, result := range report.Results {
		b.WriteString(fmt.Sprintf("%s %-14s %-*s %10s\n",
			statusGlyph(result.Success),
			string(result.Action.Kind),
			targetColumnWidth, truncateText(result.Action.Target, targetColumnWidth),
			humanize.IBytes(uint64(result.FreedBytes))))
		if result.ErrorMessage != "" {
			b.WriteString(mutedStyle.Render("  - "+truncateError(result.ErrorMessage, width-4)) + "\n")
		}
		if result.Action.BackupName != "" {
			b.WriteString(mutedStyle.Render("  backup: "+truncateText(result.Action.BackupName, width-10)) + "\n")
		}
	}

	b.WriteString(divider(width) + "\n")
	b.WriteString(fmt.Sprintf("%s: %s\n", freedLabel, sizeStyle.Render(humanize.IBytes(uint64(report.FreedBytes)))))
	b.WriteString(fmt.Sprintf("Succeeded: %s  Failed: %s  Time: %s\n",
		successStyle.Render(strconv.Itoa(report.Succeeded)),
		dangerStyle.Render(strconv.Itoa(report.Failed)),
		mutedStyle.Render(report.Duration.Round(time.Millisecond).String())))

	return b.String()
}

// FormatBackupList renders the backup area inventory, eldest first.
func FormatBackupList(backups []cleaner.Backup) string {
	width := reportWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Backups") + "\n")
	b.WriteString(divider(width) + "\n")

	if len(backups) == 0 {
		b.WriteString(mutedStyle.Render("No backups stored.") + "\n")
		return b.String()
	}

	var total int64
	for _, backup := range backups {
		marker := " "
		if backup.IsDirectory {
			marker = "d"
		}
		b.WriteString(fmt.Sprintf("%s %-*s %10s  %s\n",
			mutedStyle.Render(marker),
			targetColumnWidth, truncateText(backup.Name, targetColumnWidth),
			humanize.IBytes(uint64(backup.SizeBytes)),
			mutedStyle.Render(humanize.Time(backup.CreatedAt))))
		total += backup.SizeBytes
	}
	b.WriteString(divider(width) + "\n")
	b.WriteString(fmt.Sprintf("Total: %s in %d backups\n", sizeStyle.Render(humanize.IBytes(uint64(total))), len(backups)))

	return b.String()
}

// FormatHistory renders recent scans and cleanings with the lifetime
// freed total.
func FormatHistory(scans []history.ScanRecord, cleanings []history.CleaningRecord, totalFreed int64) string {
	width := reportWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("History") + "\n")
	b.WriteString(divider(width) + "\n")

	if len(scans) == 0 && len(cleanings) == 0 {
		b.WriteString(mutedStyle.Render("No history recorded.") + "\n")
		return b.String()
	}

	if len(scans) > 0 {
		b.WriteString(sectionStyle.Render("Recent scans") + "\n")
		for _, scan := range scans {
			b.WriteString(fmt.Sprintf("  %s  %-24s %4d actions  %10s\n",
				scan.CreatedAt.Format("2006-01-02 15:04"),
				truncateText(scan.Root, 24),
				scan.ActionCount,
				humanize.IBytes(uint64(scan.TotalBytes))))
		}
	}

	if len(cleanings) > 0 {
		if len(scans) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render("Recent cleanings") + "\n")
		for _, record := range cleanings {
			b.WriteString(fmt.Sprintf("  %s %s %-14s %-*s %10s\n",
				statusGlyph(record.Success),
				record.CreatedAt.Format("2006-01-02 15:04"),
				string(record.Kind),
				32, truncateText(record.Target, 32),
				humanize.IBytes(uint64(record.FreedBytes))))
			if record.Error != "" {
				b.WriteString(mutedStyle.Render("    - "+truncateError(record.Error, width-6)) + "\n")
			}
		}
	}

	b.WriteString(divider(width) + "\n")
	b.WriteString(fmt.Sprintf("Freed to date: %s\n", sizeStyle.Render(humanize.IBytes(uint64(totalFreed)))))

	return b.String()
}

// FormatTrends renders per-day cleaning activity.
func FormatTrends(stats []history.DailyStat) string {
	width := reportWidth()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Cleaning Trends") + "\n")
	b.WriteString(divider(width) + "\n")

	if len(stats) == 0 {
		b.WriteString(mutedStyle.Render("No cleaning activity in this window.") + "\n")
		return b.String()
	}

	for _, stat := range stats {
		b.WriteString(fmt.Sprintf("  %s  %4d actions  %10s\n",
			stat.Day, stat.Actions, humanize.IBytes(uint64(stat.FreedBytes))))
	}

	return b.String()
}

func sortedCategories(byCategory map[string]types.BucketStat) []string {
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if byCategory[categories[i]].Bytes != byCategory[categories[j]].Bytes {
			return byCategory[categories[i]].Bytes > byCategory[categories[j]].Bytes
		}
		return categories[i] < categories[j]
	})
	return categories
}

func topByEstimate(actions []types.CleaningAction, limit int) []types.CleaningAction {
	top := make([]types.CleaningAction, len(actions))
	copy(top, actions)
	sort.Slice(top, func(i, j int) bool {
		if top[i].EstimatedBytes != top[j].EstimatedBytes {
			return top[i].EstimatedBytes > top[j].EstimatedBytes
		}
		return top[i].Target < top[j].Target
	})
	if limit < len(top) {
		top = top[:limit]
	}
	return top
}

func shortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}

func reportWidth() int {
	if env := os.Getenv("COLUMNS"); env != "" {
		if value, err := strconv.Atoi(env); err == nil && value > 0 {
			if value > defaultReportWidth {
				return defaultReportWidth
			}
			return value
		}
	}
	if size, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ); err == nil {
		if size.Col > 0 {
			if size.Col > defaultReportWidth {
				return defaultReportWidth
			}
			return int(size.Col)
		}
	}
	return defaultReportWidth
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	if width <= 3 {
		return string([]rune(text)[:width])
	}
	target := width - 3
	var b strings.Builder
	current := 0
	for _, r := range text {
		w := lipgloss.Width(string(r))
		if current+w > target {
			break
		}
		b.WriteRune(r)
		current += w
	}
	return b.String() + "..."
}

// truncateError keeps the tail, where the actionable part usually is.
func truncateError(err string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(err) <= width {
		return err
	}
	if width <= 3 {
		return string([]rune(err)[:width])
	}
	runes := []rune(err)
	return "..." + string(runes[len(runes)-width+3:])
}
