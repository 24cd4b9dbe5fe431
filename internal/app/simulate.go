package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"oil-sentiment/internal/alerting"
	"oil-sentiment/internal/weekkey"
)

// SimulateAlert 用给定的 Total_Score 模拟一次候选周告警，验证告警通道配置。
func (a *App) SimulateAlert(ctx context.Context, totalScore decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	week := weekkey.Of(time.Now().UTC())
	note := alerting.Notification{
		Week:          week,
		WeekStart:     week.WeekStart(),
		TotalScore:    totalScore,
		Threshold:     decimal.NewFromFloat(a.Config.Alerting.MinTotalScore),
		Channels:      a.Config.Alerting.Channels,
		AdditionalMsg: "simulated alert",
	}

	return notifier.Notify(ctx, note)
}
