package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"oil-sentiment/internal/weekkey"
)

// Notification 封装候选交易周的告警上下文。
type Notification struct {
	Week           weekkey.Key
	WeekStart      time.Time
	TotalScore     decimal.Decimal
	Threshold      decimal.Decimal
	Close          decimal.NullDecimal
	PriceScore     decimal.NullDecimal
	StorageScore   decimal.NullDecimal
	InventoryDlt   decimal.NullDecimal
	BullishBear    decimal.NullDecimal
	PositioningDlt decimal.NullDecimal
	Channels       []string
	AdditionalMsg  string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("week", note.Week.String()).
		Str("total_score", note.TotalScore.String()).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Crude Weekly Sentiment Alert]\n")
	builder.WriteString(fmt.Sprintf("Week: %s (starting %s)\n", note.Week, note.WeekStart.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Total_Score: %s (threshold %s)\n", note.TotalScore.String(), note.Threshold.String()))
	writeScoreLine(&builder, "Close", note.Close)
	writeScoreLine(&builder, "Price Score", note.PriceScore)
	writeScoreLine(&builder, "Absolute Storage Score", note.StorageScore)
	writeScoreLine(&builder, "Delta Inventory Score", note.InventoryDlt)
	writeScoreLine(&builder, "Bullish_Bearish_Score", note.BullishBear)
	writeScoreLine(&builder, "Delta_Score", note.PositioningDlt)
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

func writeScoreLine(builder *strings.Builder, label string, v decimal.NullDecimal) {
	if !v.Valid {
		builder.WriteString(fmt.Sprintf("%s: n/a\n", label))
		return
	}
	builder.WriteString(fmt.Sprintf("%s: %s\n", label, v.Decimal.String()))
}

var _ Notifier = (*TelegramNotifier)(nil)
