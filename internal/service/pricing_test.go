package service_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"checkout/internal/entity"
	"checkout/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func line(id string, price string, qty int) entity.CartLine {
	return entity.CartLine{ID: id, Name: "item " + id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestPriceCart(t *testing.T) {
	testCases := []struct {
		desc        string
		items       []entity.CartLine
		subtotal    string
		fee         string
		total       string
		amountMinor int64
		wantErr     error
	}{
		{
			desc:        "MixedCart",
			items:       []entity.CartLine{line("1", "199", 2), line("5", "99", 1)},
			subtotal:    "497",
			fee:         "9.94",
			total:       "506.94",
			amountMinor: 50694,
		},
		{
			desc:        "TwoPizzas",
			items:       []entity.CartLine{line("1", "199", 2)},
			subtotal:    "398",
			fee:         "7.96",
			total:       "405.96",
			amountMinor: 40596,
		},
		{
			desc:        "FeeRoundsHalfUp",
			items:       []entity.CartLine{line("x", "0.25", 1)},
			subtotal:    "0.25",
			fee:         "0.01",
			total:       "0.26",
			amountMinor: 26,
		},
		{
			desc:        "FeeRoundsDown",
			items:       []entity.CartLine{line("x", "79", 1)},
			subtotal:    "79",
			fee:         "1.58",
			total:       "80.58",
			amountMinor: 8058,
		},
		{
			desc:        "FractionalPrices",
			items:       []entity.CartLine{line("a", "0.10", 3), line("b", "0.20", 1)},
			subtotal:    "0.5",
			fee:         "0.01",
			total:       "0.51",
			amountMinor: 51,
		},
		{
			desc:    "EmptyCart",
			items:   nil,
			wantErr: entity.ErrEmptyCart,
		},
		{
			desc:    "ZeroQuantity",
			items:   []entity.CartLine{line("1", "199", 0)},
			wantErr: entity.ErrInvalidData,
		},
		{
			desc:    "QuantityAboveLimit",
			items:   []entity.CartLine{line("1", "199", 101)},
			wantErr: entity.ErrInvalidData,
		},
		{
			desc:    "MissingName",
			items:   []entity.CartLine{{ID: "1", UnitPrice: decimal.NewFromInt(199), Quantity: 1}},
			wantErr: entity.ErrInvalidData,
		},
		{
			desc:    "IDTooLong",
			items:   []entity.CartLine{line(strings.Repeat("9", 51), "199", 1)},
			wantErr: entity.ErrInvalidData,
		},
		{
			desc:    "NegativePrice",
			items:   []entity.CartLine{line("1", "-1", 1)},
			wantErr: entity.ErrInvalidData,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			quote, err := service.PriceCart(tc.items)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.True(t, quote.Subtotal.Equal(decimal.RequireFromString(tc.subtotal)), "subtotal %s", quote.Subtotal)
			require.True(t, quote.ConvenienceFee.Equal(decimal.RequireFromString(tc.fee)), "fee %s", quote.ConvenienceFee)
			require.True(t, quote.Total.Equal(decimal.RequireFromString(tc.total)), "total %s", quote.Total)
			require.Equal(t, tc.amountMinor, quote.AmountMinor)
		})
	}
}

func TestPriceCart_AmountIsTotalInMinorUnits(t *testing.T) {
	for price := 1; price <= 500; price += 7 {
		for qty := 1; qty <= 5; qty++ {
			quote, err := service.PriceCart([]entity.CartLine{
				{ID: "p", Name: "Paneer Tikka", UnitPrice: decimal.NewFromInt(int64(price)), Quantity: qty},
			})
			require.NoError(t, err)
			require.Equal(t, quote.Total.Shift(2).IntPart(), quote.AmountMinor)
			require.True(t, quote.Total.Equal(quote.Subtotal.Add(quote.ConvenienceFee)))
		}
	}
}

func TestNewReceiptID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	pattern := regexp.MustCompile(`^receipt_1700000000123_[0-9a-f]{8}$`)

	seen := make(map[string]struct{})
	for range 100 {
		id := service.NewReceiptID(now)
		require.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}
	require.Greater(t, len(seen), 90)
}
