package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/themecast/backend/internal/backtest"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/config"
)

// RunSummary 배치 실행 요약 (알림 본문)
type RunSummary struct {
	Title  string
	Result *backtest.RunResult
	Report *contracts.AccuracyReport // dry-run 에서는 nil
}

// Notifier delivers run summaries. 실패는 호출자가 로그만 남긴다.
type Notifier interface {
	Notify(ctx context.Context, summary RunSummary) error
}

// Nop discards notifications
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, RunSummary) error { return nil }

// New returns a Telegram notifier when configured, Nop otherwise
func New(cfg config.TelegramConfig, log zerolog.Logger) Notifier {
	if !cfg.Enabled() {
		return Nop{}
	}

	tg, err := NewTelegram(cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifier disabled")
		return Nop{}
	}
	return tg
}

// Format renders the summary as plain text
func Format(s RunSummary) string {
	var b strings.Builder
	b.WriteString(s.Title)
	if s.Result != nil && len(s.Result.RunID) >= 8 {
		fmt.Fprintf(&b, " (run %s)", s.Result.RunID[:8])
	}
	b.WriteString("\n")

	if s.Result != nil {
		for _, g := range s.Result.Groups {
			fmt.Fprintf(&b, "• %s: KOSPI %+.2f%%, 종목 %d/%d\n", g.Key, g.IndexReturn, g.Evidenced, g.Requested)
		}
		fmt.Fprintf(&b, "결과: %s\n", s.Result.Tally())
		if s.Result.Failed > 0 {
			fmt.Fprintf(&b, "기록 실패: %d건\n", s.Result.Failed)
		}
	}

	if s.Report != nil {
		o := s.Report.Overall
		fmt.Fprintf(&b, "정확도: %d/%d (%.1f%%)\n", o.Hit, o.Total, o.Accuracy)
		writeGroups(&b, "신뢰도", s.Report.ByConfidence)
		writeGroups(&b, "카테고리", s.Report.ByCategory)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeGroups(b *strings.Builder, label string, groups map[string]contracts.AccuracyGroup) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		g := groups[k]
		fmt.Fprintf(b, "  %s %s: %d/%d (%.1f%%)\n", label, k, g.Hit, g.Total, g.Accuracy)
	}
}
