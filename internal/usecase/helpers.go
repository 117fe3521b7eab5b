package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/gebeya/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func round2(v float64) float64 { return dec(v).Round(2).InexactFloat64() }

func clampDec(v decimal.Decimal, lo, hi int64) decimal.Decimal {
	if v.LessThan(decimal.NewFromInt(lo)) {
		return decimal.NewFromInt(lo)
	}
	if v.GreaterThan(decimal.NewFromInt(hi)) {
		return decimal.NewFromInt(hi)
	}
	return v
}

func nowFrom(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

// publish never fails the caller: downstream notification is best effort.
func publish(ctx context.Context, pub domain.EventPublisher, evts ...domain.Event) {
	if pub == nil || len(evts) == 0 {
		return
	}
	if err := pub.Publish(ctx, evts...); err != nil {
		log.Warn().Err(err).Str("event", string(evts[0].Type)).Str("order_id", evts[0].OrderID.String()).Msg("publish event")
	}
}
