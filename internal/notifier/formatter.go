package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"NavSentinel/internal/model"
)

// label renders "name (code)" escaped for HTML parse mode.
func label(fund model.WatchedFund) string {
	return fmt.Sprintf("%s (%s)", html.EscapeString(fund.DisplayName()), html.EscapeString(fund.Code))
}

// FormatEstimate renders one estimate for a chat reply.
func FormatEstimate(fund model.WatchedFund, prevNAV float64, res model.EstimationResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", label(fund)))
	b.WriteString(fmt.Sprintf("上一净值: %.4f\n", prevNAV))
	b.WriteString(fmt.Sprintf("估算净值: %.4f (%+.2f%%)\n", res.Estimate, res.EstRate))
	b.WriteString(fmt.Sprintf("置信度: %.0f%% | 方法: %s\n", res.Confidence*100, res.Method))
	b.WriteString(fmt.Sprintf("时间: %s", at.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatNoEstimate renders the placeholder shown when the engine abstains.
func FormatNoEstimate(fund model.WatchedFund, reason error) string {
	return fmt.Sprintf("⏸ <b>%s</b>\n暂无估值: %s", label(fund), html.EscapeString(reason.Error()))
}

// FormatFetchError renders a failed history fetch.
func FormatFetchError(fund model.WatchedFund, err error) string {
	return fmt.Sprintf("❌ %s 获取净值历史失败: %s", label(fund), html.EscapeString(err.Error()))
}

// FormatAlert renders a threshold crossing.
func FormatAlert(fund model.WatchedFund, res model.EstimationResult, threshold float64, up bool) string {
	icon, word := "🔺", "涨幅"
	if !up {
		icon, word = "🔻", "跌幅"
	}
	return fmt.Sprintf("%s <b>估值预警</b> | %s\n\n%s达到 %+.2f%%，超过阈值 %.2f%%\n估算净值: %.4f",
		icon, label(fund), word, res.EstRate, threshold, res.Estimate)
}

// FormatWatchlist lists the configured funds and their thresholds.
func FormatWatchlist(funds []model.WatchedFund) string {
	var b strings.Builder
	b.WriteString("📋 <b>关注基金</b>\n\n")
	for _, f := range funds {
		b.WriteString("• " + label(f))
		if f.ThresholdUp > 0 {
			b.WriteString(fmt.Sprintf(" ↑%.2f%%", f.ThresholdUp))
		}
		if f.ThresholdDown > 0 {
			b.WriteString(fmt.Sprintf(" ↓%.2f%%", f.ThresholdDown))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Help lists the supported commands.
const Help = "可用命令:\n• /estimate &lt;基金代码&gt;\n• /funds"
