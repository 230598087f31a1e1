package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/utils"
)

const maxMessageLen = 4090

func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT] 
%s
🔧 %s
⚠️ %s	

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}

// FormatDecisionMessage renders one decision as an HTML chat message.
func FormatDecisionMessage(d *dto.CombinedDecision) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s <b>%s · %s</b>\n", statusIcon(d.Status), d.Pair, strings.ToUpper(string(d.Strategy))))
	sb.WriteString(fmt.Sprintf("📅 %s\n\n", utils.PrettyDate(d.CreatedAt)))

	sb.WriteString(fmt.Sprintf("📌 Status: <b>%s</b>\n", d.Status))
	sb.WriteString(fmt.Sprintf("%s Signal: <b>%s</b>\n", signalIcon(d.Signal), strings.ToUpper(string(d.Signal))))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.0f%%\n\n", d.Confidence*100))

	sb.WriteString(fmt.Sprintf("🧱 %s zone (%s): %s - %s\n", d.PrimaryTimeframe, zoneKind(d.PrimaryZone.ZoneKind),
		formatPrice(d.PrimaryZone.PriceLow), formatPrice(d.PrimaryZone.PriceHigh)))
	if d.EntryZone != nil {
		sb.WriteString(fmt.Sprintf("🎯 %s zone (%s): %s - %s\n", d.EntryTimeframe, zoneKind(d.EntryZone.ZoneKind),
			formatPrice(d.EntryZone.PriceLow), formatPrice(d.EntryZone.PriceHigh)))
	}
	if d.EntryFailure != "" {
		sb.WriteString(fmt.Sprintf("⚠️ %s analysis unavailable: %s\n", d.EntryTimeframe, d.EntryFailure))
	}

	writeIssues(&sb, "❌ <b>Errors</b>", d.Validation.Primary.Errors, entryList(d.Validation.Entry, true))
	writeIssues(&sb, "⚠️ <b>Warnings</b>", d.Validation.Primary.Warnings, entryList(d.Validation.Entry, false))

	return sb.String()
}

// FormatBatchSummaryMessages splits a batch summary into chat sized parts.
func FormatBatchSummaryMessages(summary dto.BatchSummary) []string {
	header := fmt.Sprintf("🗂 *Batch Summary* %d/%d succeeded\n\n", summary.Succeeded, summary.Total)
	if summary.Total == 0 {
		return []string{header + "No jobs were run."}
	}

	var messages []string
	var current strings.Builder
	current.WriteString(header)
	part := 1

	for _, r := range summary.Results {
		var line string
		if r.IsSuccess {
			line = fmt.Sprintf("✅ %s %s: %s\n", r.Pair, r.Strategy, r.Status)
		} else {
			line = fmt.Sprintf("❌ %s %s: %s\n", r.Pair, r.Strategy, r.Error)
		}
		if current.Len()+len(line) > maxMessageLen {
			messages = append(messages, current.String())
			part++
			current.Reset()
			current.WriteString(fmt.Sprintf("---*Batch Summary Part %d*---\n\n", part))
		}
		current.WriteString(line)
	}
	return append(messages, current.String())
}

func writeIssues(sb *strings.Builder, title string, primary, entry []string) {
	if len(primary)+len(entry) == 0 {
		return
	}
	sb.WriteString("\n" + title + "\n")
	for _, msg := range primary {
		sb.WriteString("• " + msg + "\n")
	}
	for _, msg := range entry {
		sb.WriteString("• entry: " + msg + "\n")
	}
}

func entryList(v *dto.ValidationOutcome, errs bool) []string {
	if v == nil {
		return nil
	}
	if errs {
		return v.Errors
	}
	return v.Warnings
}

func statusIcon(status dto.DecisionStatus) string {
	switch status {
	case dto.StatusConfirmed:
		return "✅"
	case dto.StatusWaitBreakout:
		return "⏳"
	default:
		return "🔄"
	}
}

func signalIcon(signal dto.Signal) string {
	switch signal {
	case dto.SignalBuy:
		return "🟢"
	case dto.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func zoneKind(kind dto.ZoneKind) string {
	if kind == "" {
		return string(dto.ZoneNone)
	}
	return string(kind)
}

func formatPrice(v float64) string {
	s := fmt.Sprintf("%.5f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
