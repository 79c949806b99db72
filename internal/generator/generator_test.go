package generator

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YaganovValera/cart-abandonment-producer/internal/catalog"
	"github.com/YaganovValera/cart-abandonment-producer/internal/model"
)

// steppingClock отдаёт base, base+step, base+2*step...
func steppingClock(base time.Time, step time.Duration) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)-1) * step)
	}
}

func checkEvent(t *testing.T, cat *catalog.Catalog, ev model.CartAbandonmentEvent) {
	t.Helper()
	if n := len(ev.CartItems); n < 1 || n > cat.Size()-1 {
		t.Fatalf("cart size %d out of [1, %d]", n, cat.Size()-1)
	}
	byCode := make(map[string]catalog.Product, cat.Size())
	for _, p := range cat.Products() {
		byCode[p.Code] = p
	}
	seen := make(map[string]bool)
	for _, it := range ev.CartItems {
		if seen[it.ProductCode] {
			t.Fatalf("duplicate product %s", it.ProductCode)
		}
		seen[it.ProductCode] = true
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			t.Fatalf("quantity %d out of [1, %d]", it.Quantity, MaxQuantity)
		}
		p, ok := byCode[it.ProductCode]
		if !ok {
			t.Fatalf("product %s not in catalog", it.ProductCode)
		}
		if p.Name != it.ProductName || !p.Price.Equal(it.UnitPrice) {
			t.Fatalf("snapshot %+v does not match catalog %+v", it, p)
		}
	}
	found := false
	for _, s := range cat.Sellers() {
		if s == ev.SellerID {
			found = true
		}
	}
	if !found {
		t.Fatalf("seller %q not in pool", ev.SellerID)
	}
}

func TestNew_Errors(t *testing.T) {
	cat := catalog.Default()
	if _, err := New(cat, Options{}); !errors.Is(err, ErrNilSource) {
		t.Fatalf("err = %v; want ErrNilSource", err)
	}
	if _, err := New(nil, Options{Source: DefaultSource()}); err == nil {
		t.Fatal("expected error for nil catalog")
	}
	noPool, err := catalog.New(catalog.DefaultProducts(), catalog.DefaultSellers(), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(noPool, Options{Policy: FixedPool, Source: DefaultSource()}); !errors.Is(err, catalog.ErrNoCustomers) {
		t.Fatalf("err = %v; want ErrNoCustomers", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CustomerPolicy
		wantErr bool
	}{
		{"", FreshUnique, false},
		{"fresh", FreshUnique, false},
		{"POOL", FixedPool, false},
		{"random", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestGenerate_Bounds(t *testing.T) {
	cat := catalog.Default()
	g, err := New(cat, Options{Source: DefaultSource()})
	if err != nil {
		t.Fatal(err)
	}
	sizes := make(map[int]int)
	for i := 0; i < 5000; i++ {
		ev := g.Generate()
		checkEvent(t, cat, ev)
		sizes[len(ev.CartItems)]++
	}
	// все размеры от 1 до size-1 встречаются, полный каталог — никогда
	for n := 1; n < cat.Size(); n++ {
		if sizes[n] == 0 {
			t.Errorf("cart size %d never produced", n)
		}
	}
	if sizes[cat.Size()] != 0 {
		t.Errorf("cart with the whole catalog produced %d times", sizes[cat.Size()])
	}
}

func TestGenerate_TwoProductCatalog(t *testing.T) {
	cat, err := catalog.New([]catalog.Product{
		{Code: "A", Name: "a", Price: decimal.NewFromInt(1)},
		{Code: "B", Name: "b", Price: decimal.NewFromInt(2)},
	}, []string{"S"}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(cat, Options{Source: DefaultSource()})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if n := len(g.Generate().CartItems); n != 1 {
			t.Fatalf("cart size = %d; want 1", n)
		}
	}
}

func TestGenerate_TimestampWindow(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	step := 7 * time.Millisecond
	clock := steppingClock(base, step)

	g, err := New(catalog.Default(), Options{Source: NewSeededSource(42), Now: clock})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		// первый и второй вызов часов внутри Generate
		now1 := base.Add(time.Duration(2*i) * step)
		now2 := now1.Add(step)
		ev := g.Generate()
		lo := now1.Add(-Window).UnixMilli()
		hi := now2.UnixMilli()
		if ev.EventTime < lo || ev.EventTime >= hi {
			t.Fatalf("event %d: time %d outside [%d, %d)", i, ev.EventTime, lo, hi)
		}
	}
}

func TestGenerate_CustomerPolicies(t *testing.T) {
	cat := catalog.Default()

	t.Run("fresh", func(t *testing.T) {
		g, err := New(cat, Options{Policy: FreshUnique, Source: DefaultSource()})
		if err != nil {
			t.Fatal(err)
		}
		seen := make(map[string]bool)
		for i := 0; i < 500; i++ {
			id := g.Generate().CustomerID
			u, err := uuid.Parse(id)
			if err != nil || u.Version() != 4 {
				t.Fatalf("customer id %q is not a UUIDv4", id)
			}
			if seen[id] {
				t.Fatalf("duplicate customer id %q", id)
			}
			seen[id] = true
		}
	})

	t.Run("pool", func(t *testing.T) {
		g, err := New(cat, Options{Policy: FixedPool, Source: DefaultSource()})
		if err != nil {
			t.Fatal(err)
		}
		pool := make(map[string]bool)
		for _, c := range cat.Customers() {
			pool[c] = true
		}
		for i := 0; i < 500; i++ {
			if id := g.Generate().CustomerID; !pool[id] {
				t.Fatalf("customer %q not in pool", id)
			}
		}
	})
}

func TestGenerate_SeededIsReproducible(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := func() []model.CartAbandonmentEvent {
		g, err := New(catalog.Default(), Options{
			Source: NewSeededSource(7),
			Now:    func() time.Time { return base },
		})
		if err != nil {
			t.Fatal(err)
		}
		out := make([]model.CartAbandonmentEvent, 20)
		for i := range out {
			out[i] = g.Generate()
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		ea, _ := model.Encode(a[i])
		eb, _ := model.Encode(b[i])
		if string(ea) != string(eb) {
			t.Fatalf("event %d differs:\n%s\n%s", i, ea, eb)
		}
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	cat := catalog.Default()
	g, err := New(cat, Options{Policy: FixedPool, Source: NewSeededSource(1)})
	if err != nil {
		t.Fatal(err)
	}

	events := make([]model.CartAbandonmentEvent, 1000)
	var wg sync.WaitGroup
	for i := range events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			events[i] = g.Generate()
		}(i)
	}
	wg.Wait()

	for _, ev := range events {
		checkEvent(t, cat, ev)
	}
}
