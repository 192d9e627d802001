package service

import (
	"fmt"
	"strings"
	"time"

	"checkout/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ConvenienceFeeRate = decimal.RequireFromString("0.02")

	_minorUnits = decimal.NewFromInt(100)
)

type Quote struct {
	Subtotal       decimal.Decimal
	ConvenienceFee decimal.Decimal
	Total          decimal.Decimal
	AmountMinor    int64
}

// PriceCart computes the amount the provider is asked to charge. Every step
// works on decimals; the fee is rounded to paise before it is added.
func PriceCart(items []entity.CartLine) (Quote, error) {
	const op = "service.PriceCart"

	if len(items) == 0 {
		return Quote{}, fmt.Errorf("%s: %w", op, entity.ErrEmptyCart)
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if err := validateStruct(item, nil); err != nil {
			return Quote{}, fmt.Errorf("%s: item %d: %w", op, i, err)
		}
		if item.UnitPrice.IsNegative() {
			return Quote{}, fmt.Errorf("%s: item %d (%s) negative price: %w",
				op, i, item.ID, entity.ErrInvalidData)
		}
		subtotal = subtotal.Add(item.LineTotal())
	}

	fee := subtotal.Mul(ConvenienceFeeRate).Round(2)
	total := subtotal.Add(fee)

	return Quote{
		Subtotal:       subtotal,
		ConvenienceFee: fee,
		Total:          total,
		AmountMinor:    total.Mul(_minorUnits).Round(0).IntPart(),
	}, nil
}

// NewReceiptID returns receipt_<unix millis>_<8 hex chars>.
func NewReceiptID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("receipt_%d_%s", now.UnixMilli(), suffix)
}
