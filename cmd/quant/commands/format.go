package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wonny/themecast/backend/internal/backtest"
	"github.com/wonny/themecast/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// printHeader prints a formatted run header
func printHeader(w io.Writer, title string, rows ...[2]string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
	for _, kv := range rows {
		fmt.Fprintf(w, "  %-10s: %s\n", kv[0], kv[1])
	}
	fmt.Fprintln(w, singleLine)
}

// printRunResult prints per-group summaries, per-prediction verdicts and the tally
func printRunResult(w io.Writer, r *backtest.RunResult) {
	if len(r.Groups) > 0 {
		fmt.Fprintln(w, "[그룹별 수익률]")
	}
	for _, g := range r.Groups {
		fmt.Fprintf(w, "• %s: KOSPI %+.2f%%, 종목 %d/%d (예측 %d건)\n",
			g.Key, g.IndexReturn, g.Evidenced, g.Requested, g.Predictions)
		if len(g.Missing) > 0 {
			fmt.Fprintf(w, "    수익률 없음: %s\n", strings.Join(g.Missing, ", "))
		}
	}

	if len(r.Outcomes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "[판정]")
	}
	for _, o := range r.Outcomes {
		fmt.Fprintln(w, formatOutcome(o))
	}

	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "결과: %s\n", r.Tally())
	if r.Failed > 0 {
		fmt.Fprintf(w, "❌ 기록 실패: %d건\n", r.Failed)
	}
	if r.DryRun {
		fmt.Fprintln(w, "ℹ️  테스트 모드: 저장소에 기록하지 않음")
	}
}

// formatOutcome renders one verdict line
// Example: [hit] #12 반도체 (today, 2026-03-02) 2/3 ≥ 2 | 005930 +3.10%, 000660 N/A
func formatOutcome(o backtest.Outcome) string {
	p := o.Prediction
	date := p.DateKey()
	if date == "" {
		date = contracts.NotAvailable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%s] #%d %s (%s, %s)", o.Verdict.Status, p.ID, p.ThemeName, p.Category, date)
	if o.Verdict.Evidenced > 0 {
		fmt.Fprintf(&b, " %d/%d ≥ %d", o.Verdict.Votes, o.Verdict.Evidenced, o.Verdict.Threshold)
	}
	if o.Verdict.Reason != "" {
		fmt.Fprintf(&b, " | %s", o.Verdict.Reason)
	}
	if perf := formatPerformance(p.Codes(), o.Verdict.Performance); perf != "" {
		fmt.Fprintf(&b, " | %s", perf)
	}
	if o.WriteErr != nil {
		fmt.Fprintf(&b, " | 기록 실패: %v", o.WriteErr)
	}
	return b.String()
}

func formatPerformance(codes []string, perf contracts.Performance) string {
	if len(perf) == 0 {
		return ""
	}

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		switch v := perf[code].(type) {
		case float64:
			parts = append(parts, fmt.Sprintf("%s %+.2f%%", code, v))
		default:
			parts = append(parts, fmt.Sprintf("%s %s", code, contracts.NotAvailable))
		}
	}
	return strings.Join(parts, ", ")
}

// printReport prints the accuracy report
func printReport(w io.Writer, r contracts.AccuracyReport) {
	fmt.Fprintln(w, "[정확도]")
	fmt.Fprintf(w, "  전체: %s\n", formatGroup(r.Overall))
	printBreakdown(w, "신뢰도별", r.ByConfidence)
	printBreakdown(w, "카테고리별", r.ByCategory)
}

func printBreakdown(w io.Writer, label string, groups map[string]contracts.AccuracyGroup) {
	if len(groups) == 0 {
		return
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "  %s:\n", label)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-12s %s\n", k, formatGroup(groups[k]))
	}
}

func formatGroup(g contracts.AccuracyGroup) string {
	return fmt.Sprintf("%d/%d (%.1f%%)", g.Hit, g.Total, g.Accuracy)
}
