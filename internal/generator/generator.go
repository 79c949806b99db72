// Package generator собирает случайные, но правдоподобные события брошенной
// корзины из каталога.
package generator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YaganovValera/cart-abandonment-producer/internal/catalog"
	"github.com/YaganovValera/cart-abandonment-producer/internal/model"
)

// ErrNilSource — генератор без источника случайности не создаётся.
var ErrNilSource = errors.New("generator: random source is nil")

// MaxQuantity — верхняя граница количества одного товара в корзине.
const MaxQuantity = 9

// Window — насколько назад от текущего момента может уходить event_time.
const Window = 60 * time.Minute

// CustomerPolicy определяет, откуда берётся customer_id.
type CustomerPolicy int

const (
	// FreshUnique — новый UUIDv4 на каждое событие.
	FreshUnique CustomerPolicy = iota
	// FixedPool — случайный покупатель из пула каталога.
	FixedPool
)

func (p CustomerPolicy) String() string {
	switch p {
	case FreshUnique:
		return "fresh"
	case FixedPool:
		return "pool"
	default:
		return fmt.Sprintf("CustomerPolicy(%d)", int(p))
	}
}

// ParsePolicy разбирает значение generator.customer_policy.
func ParsePolicy(s string) (CustomerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fresh":
		return FreshUnique, nil
	case "pool":
		return FixedPool, nil
	default:
		return 0, fmt.Errorf("generator: unknown customer policy %q (want fresh|pool)", s)
	}
}

// Options — параметры генератора.
type Options struct {
	Policy CustomerPolicy
	Source Source
	Now    func() time.Time // nil → time.Now
}

// Generator не хранит изменяемого состояния между вызовами Generate.
type Generator struct {
	cat    *catalog.Catalog
	policy CustomerPolicy
	src    Source
	now    func() time.Time
	newID  func() string
}

// New проверяет опции. Nil-источник — ошибка конфигурации.
func New(cat *catalog.Catalog, opts Options) (*Generator, error) {
	if opts.Source == nil {
		return nil, ErrNilSource
	}
	if cat == nil {
		return nil, errors.New("generator: catalog is nil")
	}
	if cat.Size() < 2 {
		return nil, catalog.ErrTooFewProducts
	}
	if opts.Policy == FixedPool && len(cat.Customers()) == 0 {
		return nil, catalog.ErrNoCustomers
	}
	if opts.Policy != FreshUnique && opts.Policy != FixedPool {
		return nil, fmt.Errorf("generator: unsupported policy %s", opts.Policy)
	}

	g := &Generator{
		cat:    cat,
		policy: opts.Policy,
		src:    opts.Source,
		now:    opts.Now,
		newID:  uuid.NewString,
	}
	if g.now == nil {
		g.now = time.Now
	}
	if u, ok := opts.Source.(interface{ UUID() string }); ok {
		g.newID = u.UUID
	}
	return g, nil
}

// Policy возвращает активную политику покупателя.
func (g *Generator) Policy() CustomerPolicy { return g.policy }

// Generate строит одно событие. Безопасен для конкурентного вызова.
func (g *Generator) Generate() model.CartAbandonmentEvent {
	sellers := g.cat.Sellers()
	seller := sellers[g.src.IntN(len(sellers))]

	var customer string
	switch g.policy {
	case FixedPool:
		pool := g.cat.Customers()
		customer = pool[g.src.IntN(len(pool))]
	default:
		customer = g.newID()
	}

	// n ∈ [1, size-1]: полный каталог в одну корзину никогда не попадает.
	size := g.cat.Size()
	n := 1 + g.src.IntN(size-1)

	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	items := make([]model.CartItem, 0, n)
	for i := 0; i < n; i++ {
		j := i + g.src.IntN(size-i)
		idx[i], idx[j] = idx[j], idx[i]

		p := g.cat.Product(idx[i])
		items = append(items, model.CartItem{
			ProductName: p.Name,
			ProductCode: p.Code,
			Quantity:    1 + g.src.IntN(MaxQuantity),
			UnitPrice:   p.Price,
		})
	}

	lower := g.now().Add(-Window).UnixMilli()
	upper := g.now().UnixMilli()
	ts := lower
	if upper > lower {
		ts = lower + g.src.Int64N(upper-lower)
	}

	return model.CartAbandonmentEvent{
		CartItems:  items,
		CustomerID: customer,
		SellerID:   seller,
		EventTime:  ts,
	}
}
