// Package catalog хранит статические данные генератора: товары, продавцов
// и пул заранее заготовленных покупателей.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrTooFewProducts — для корзины нужно минимум два товара.
	ErrTooFewProducts = errors.New("catalog: at least 2 products required")
	ErrNoSellers      = errors.New("catalog: seller pool is empty")
	ErrNoCustomers    = errors.New("catalog: customer pool is empty")
)

// Product — неизменяемая запись каталога.
type Product struct {
	Code  string          `mapstructure:"code"`
	Name  string          `mapstructure:"name"`
	Price decimal.Decimal `mapstructure:"price"`
}

// Catalog — проверенный набор данных. После New не меняется и безопасен
// для чтения из нескольких goroutine.
type Catalog struct {
	products  []Product
	sellers   []string
	customers []string
}

// New валидирует данные и копирует их. requireCustomers включается,
// когда генератор берёт покупателей из пула.
func New(products []Product, sellers, customers []string, requireCustomers bool) (*Catalog, error) {
	if len(products) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewProducts, len(products))
	}
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		switch {
		case p.Code == "":
			return nil, fmt.Errorf("catalog: product[%d]: empty code", i)
		case p.Name == "":
			return nil, fmt.Errorf("catalog: product %q: empty name", p.Code)
		case p.Price.IsNegative():
			return nil, fmt.Errorf("catalog: product %q: negative price %s", p.Code, p.Price)
		}
		if _, dup := seen[p.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate product code %q", p.Code)
		}
		seen[p.Code] = struct{}{}
	}
	if len(sellers) == 0 {
		return nil, ErrNoSellers
	}
	for i, s := range sellers {
		if s == "" {
			return nil, fmt.Errorf("catalog: seller[%d] is empty", i)
		}
	}
	if requireCustomers && len(customers) == 0 {
		return nil, ErrNoCustomers
	}

	return &Catalog{
		products:  append([]Product(nil), products...),
		sellers:   append([]string(nil), sellers...),
		customers: append([]string(nil), customers...),
	}, nil
}

// Default возвращает встроенный каталог.
func Default() *Catalog {
	c, err := New(DefaultProducts(), DefaultSellers(), DefaultCustomers(), true)
	if err != nil {
		panic(err)
	}
	return c
}

// Size — число товаров.
func (c *Catalog) Size() int { return len(c.products) }

// Product возвращает i-й товар.
func (c *Catalog) Product(i int) Product { return c.products[i] }

// Products возвращает копию списка товаров.
func (c *Catalog) Products() []Product { return append([]Product(nil), c.products...) }

func (c *Catalog) Sellers() []string   { return c.sellers }
func (c *Catalog) Customers() []string { return c.customers }
