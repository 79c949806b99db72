package model_test

import (
	"testing"

	"github.com/YaganovValera/cart-abandonment-producer/internal/catalog"
	"github.com/YaganovValera/cart-abandonment-producer/internal/generator"
	"github.com/YaganovValera/cart-abandonment-producer/internal/model"
)

// Всё, что выдаёт генератор, должно переживать Encode → Decode без потерь.
func TestEncodeDecode_GeneratedEvents(t *testing.T) {
	for _, policy := range []generator.CustomerPolicy{generator.FreshUnique, generator.FixedPool} {
		t.Run(policy.String(), func(t *testing.T) {
			gen, err := generator.New(catalog.Default(), generator.Options{
				Policy: policy,
				Source: generator.NewSeededSource(42),
			})
			if err != nil {
				t.Fatalf("generator.New: %v", err)
			}
			for n := 0; n < 500; n++ {
				in := gen.Generate()
				b, err := model.Encode(in)
				if err != nil {
					t.Fatalf("#%d Encode: %v", n, err)
				}
				out, err := model.Decode(b)
				if err != nil {
					t.Fatalf("#%d Decode(%s): %v", n, b, err)
				}
				assertSameEvent(t, n, in, out)
			}
		})
	}
}

func assertSameEvent(t *testing.T, n int, in, out model.CartAbandonmentEvent) {
	t.Helper()
	if in.CustomerID != out.CustomerID || in.SellerID != out.SellerID || in.EventTime != out.EventTime {
		t.Fatalf("#%d header: got %s/%s/%d, want %s/%s/%d", n,
			out.CustomerID, out.SellerID, out.EventTime, in.CustomerID, in.SellerID, in.EventTime)
	}
	if len(in.CartItems) != len(out.CartItems) {
		t.Fatalf("#%d items: got %d, want %d", n, len(out.CartItems), len(in.CartItems))
	}
	for i := range in.CartItems {
		a, b := in.CartItems[i], out.CartItems[i]
		if a.ProductName != b.ProductName || a.ProductCode != b.ProductCode || a.Quantity != b.Quantity {
			t.Fatalf("#%d item %d: got %+v, want %+v", n, i, b, a)
		}
		if !a.UnitPrice.Equal(b.UnitPrice) {
			t.Fatalf("#%d item %d price: got %s, want %s", n, i, b.UnitPrice, a.UnitPrice)
		}
	}
	if !in.Total().Equal(out.Total()) {
		t.Fatalf("#%d total: got %s, want %s", n, out.Total(), in.Total())
	}
}
