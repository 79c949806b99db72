// Package model описывает событие брошенной корзины и его JSON-представление.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem — снимок товара в момент генерации события.
type CartItem struct {
	ProductName string
	ProductCode string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// wireItem — поля позиции на проводе. Цена уходит числом с точным десятичным текстом.
type wireItem struct {
	ProductName string      `json:"productName"`
	ProductCode string      `json:"productCode"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
}

func (i CartItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireItem{
		ProductName: i.ProductName,
		ProductCode: i.ProductCode,
		Quantity:    i.Quantity,
		Price:       json.Number(i.UnitPrice.String()),
	})
}

func (i *CartItem) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	price, err := decimal.NewFromString(w.Price.String())
	if err != nil {
		return fmt.Errorf("cart item %q: price: %w", w.ProductCode, err)
	}
	*i = CartItem{
		ProductName: w.ProductName,
		ProductCode: w.ProductCode,
		Quantity:    w.Quantity,
		UnitPrice:   price,
	}
	return nil
}

// Subtotal = quantity × unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartAbandonmentEvent — одно сообщение в поток.
type CartAbandonmentEvent struct {
	CartItems  []CartItem `json:"cart_items"`
	CustomerID string     `json:"customer_id"`
	SellerID   string     `json:"seller_id"`
	EventTime  int64      `json:"event_time"` // epoch ms
}

// Total — сумма корзины. В payload не попадает.
func (e CartAbandonmentEvent) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range e.CartItems {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// PartitionKey — ключ партиционирования: записи одного покупателя идут в один шард.
func (e CartAbandonmentEvent) PartitionKey() string { return e.CustomerID }

// Encode сериализует событие в wire JSON.
func Encode(e CartAbandonmentEvent) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

// Decode разбирает wire JSON обратно в событие.
func Decode(b []byte) (CartAbandonmentEvent, error) {
	var e CartAbandonmentEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return CartAbandonmentEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}
