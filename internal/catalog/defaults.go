package catalog

import "github.com/shopspring/decimal"

func DefaultProducts() []Product {
	return []Product{
		{Code: "B002PD61Y4", Name: "ELV Car Mount Adjustable Car Phone Holder - Black", Price: decimal.NewFromInt(999)},
		{Code: "B002SZEOLG", Name: "Parker Vector Camouflage Gift Set - Roller Ball Pen", Price: decimal.NewFromInt(450)},
		{Code: "B003B00484", Name: "Redgear Pro Wireless Gamepad", Price: decimal.NewFromInt(3999)},
		{Code: "B003L62T7W", Name: "Butterfly Smart Mixer Grinder", Price: decimal.NewFromInt(4999)},
		{Code: "B078KRFWQB", Name: "Havells Cista Room Heater, White", Price: decimal.NewFromInt(3945)},
	}
}

func DefaultSellers() []string {
	return []string{"B07B5XJ572", "B07B275VN9", "B07B88KQZ8", "B07CD2BN46", "B07CRL2GY6"}
}

// DefaultCustomers — пул для политики pool.
func DefaultCustomers() []string {
	return []string{
		"0c6b4a3e-6f1d-4a0f-9a57-3f1e5d2b8c01",
		"1f9a2d47-8b3c-4e15-a6d2-7c4b9e0f1a22",
		"2a7e5c90-3d41-4b86-8f0a-5e2c7d1b9f43",
		"3b8d1e62-9a57-4c3f-b2e4-8f6a0c5d2e64",
		"4c2f9b15-7e08-4d6a-9c31-0a8e4f7b3d85",
		"5d6a3c28-1b94-4e7f-a0c5-2e9d6b8f4a06",
		"6e1b8d73-4c29-4f50-8b6e-3a0f7c9d5b27",
		"7f4c2e89-6d1a-4a93-9e7b-5c1d8a0f6e48",
		"8a9d5f34-2e6b-4c18-b7a0-6d3e9f1c7a69",
		"9b3e7a51-8f2c-4d09-a4b6-7e0c2d5f8b80",
	}
}
