package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"
)

// ModuleSupermarket is the registry name of the supermarket sales module.
const ModuleSupermarket = "supermarket"

const (
	// minBasketItems is the smallest basket a customer can check out.
	minBasketItems = 5

	// maxBasketItems is the largest basket a customer can check out.
	maxBasketItems = 15

	// maxItemQuantity is the largest quantity of a single product per sale.
	maxItemQuantity = 4
)

// salesProductHierarchy is the simulated supermarket catalog. Each
// category carries a list of subcategories, each with its products.
var salesProductHierarchy = []salesCategory{
	{"Food", []salesSubcategory{
		{"Canned Goods", []string{"Tomato Soup", "Baked Beans", "Corn", "Peaches"}},
		{"Bakery", []string{"Bread", "Croissant", "Bagel", "Muffin"}},
		{"Deli", []string{"Ham", "Turkey", "Cheese", "Salami"}},
		{"Produce", []string{"Apples", "Bananas", "Carrots", "Lettuce"}},
		{"Frozen", []string{"Ice Cream", "Frozen Pizza", "Frozen Vegetables", "Frozen Dinners"}},
	}},
	{"Beauty", []salesSubcategory{
		{"Skincare", []string{"Moisturizer", "Cleanser", "Sunscreen", "Serum"}},
		{"Makeup", []string{"Lipstick", "Mascara", "Foundation", "Eyeliner"}},
		{"Haircare", []string{"Shampoo", "Conditioner", "Hair Gel", "Hair Spray"}},
		{"Fragrances", []string{"Perfume", "Cologne", "Body Mist"}},
	}},
	{"Healthcare", []salesSubcategory{
		{"Pharmacy", []string{"Pain Reliever", "Cough Syrup", "Antibiotics", "Antihistamines"}},
		{"Vitamins", []string{"Multivitamin", "Vitamin C", "Vitamin D", "Calcium"}},
		{"Medical Supplies", []string{"Bandages", "Antiseptic", "Thermometer", "Gloves"}},
	}},
	{"Cleaning Products", []salesSubcategory{
		{"Household Cleaners", []string{"All-Purpose Cleaner", "Glass Cleaner", "Disinfectant"}},
		{"Laundry", []string{"Detergent", "Fabric Softener", "Stain Remover"}},
		{"Dishwashing", []string{"Dish Soap", "Dishwasher Detergent"}},
	}},
	{"Pets", []salesSubcategory{
		{"Pet Food", []string{"Dog Food", "Cat Food", "Bird Seed", "Fish Flakes"}},
		{"Toys", []string{"Chew Toy", "Catnip Toy", "Interactive Toy"}},
		{"Grooming", []string{"Shampoo", "Comb", "Nail Clippers"}},
	}},
	{"Clothing", []salesSubcategory{
		{"Men", []string{"T-Shirt", "Jeans", "Jacket", "Sneakers"}},
		{"Women", []string{"Dress", "Blouse", "Skirt", "Heels"}},
		{"Children", []string{"Kids T-Shirt", "Kids Jeans", "Kids Jacket"}},
		{"Accessories", []string{"Hat", "Scarf", "Belt", "Sunglasses"}},
	}},
}

type salesCategory struct {
	name          string
	subcategories []salesSubcategory
}

type salesSubcategory struct {
	name     string
	products []string
}

// salesTowns contains simulated store locations.
var salesTowns = []string{
	"Springfield", "Franklin", "Greenville", "Bristol", "Clinton",
	"Fairview", "Salem", "Madison", "Georgetown", "Arlington",
}

// salesStates contains simulated store state abbreviations.
var salesStates = []string{"CA", "TX", "NY", "FL", "IL", "OH", "WA", "CO", "GA", "MA"}

// salesIncomeBands contains customer income band labels.
var salesIncomeBands = []string{"Low", "Medium", "High"}

type salesStore struct {
	Town    string `json:"town"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type salesCustomer struct {
	Age        int    `json:"age"`
	IncomeBand string `json:"income_band"`
}

type salesProduct struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	UnitPrice   float64 `json:"unit_price"`
}

// saleRecord is one product sale within a basket.
type saleRecord struct {
	TransactionID string        `json:"transaction_id"`
	BasketID      string        `json:"basket_id"`
	Timestamp     int64         `json:"timestamp"`
	Store         salesStore    `json:"store"`
	Customer      salesCustomer `json:"customer"`
	Product       salesProduct  `json:"product"`
	Quantity      int           `json:"quantity"`
	TotalPrice    float64       `json:"total_price"`
}

// salesBasket is a single transaction producing multiple sale records.
type salesBasket struct {
	transactionID  string
	basketID       string
	store          salesStore
	customer       salesCustomer
	totalItems     int
	itemsGenerated int
}

// SalesInstance simulates one supermarket checkout lane. Each Generate
// call emits one sale; when the current basket is exhausted a new
// basket is started automatically.
type SalesInstance struct {
	variant int
	id      string
	basket  *salesBasket
	prices  map[string]float64
	total   uint64

	rng *rand.Rand
	now func() time.Time
}

// NewSalesInstances creates one sales instance per variant.
func NewSalesInstances(cfg Config) ([]Instance, error) {
	if cfg.Variants < 1 {
		return nil, fmt.Errorf("variants must be 1 or greater, got %d", cfg.Variants)
	}

	instances := make([]Instance, 0, cfg.Variants)
	for i := 0; i < cfg.Variants; i++ {
		instances = append(instances, &SalesInstance{
			variant: i,
			id:      fmt.Sprintf("LANE%d", i),
			prices:  make(map[string]float64),
			rng:     rand.New(rand.NewSource(cfg.Seed + int64(i))), // #nosec G404
			now:     time.Now,
		})
	}

	return instances, nil
}

// Generate emits the next sale in the current basket, starting a new
// basket when the previous one is exhausted.
func (s *SalesInstance) Generate() (Record, error) {
	if s.basket == nil || s.basket.itemsGenerated >= s.basket.totalItems {
		s.startBasket()
	}
	s.basket.itemsGenerated++
	s.total++

	product := s.pickProduct()
	quantity := 1 + s.rng.Intn(maxItemQuantity) // #nosec G404

	payload, err := json.Marshal(saleRecord{
		TransactionID: s.basket.transactionID,
		BasketID:      s.basket.basketID,
		Timestamp:     s.now().Unix(),
		Store:         s.basket.store,
		Customer:      s.basket.customer,
		Product:       product,
		Quantity:      quantity,
		TotalPrice:    product.UnitPrice * float64(quantity),
	})
	if err != nil {
		return Record{}, fmt.Errorf("marshal sale record: %w", err)
	}

	return Record{Module: ModuleSupermarket, Variant: s.variant, Payload: payload}, nil
}

// Dump summarizes the current basket without mutating it.
func (s *SalesInstance) Dump() Snapshot {
	snapshot := Snapshot{
		Variant: s.variant,
		Columns: []string{"id", "transaction_id", "basket_id", "items_generated", "total_items", "sales_total"},
	}

	if s.basket == nil {
		snapshot.Values = []string{s.id, "", "", "0", "0", fmt.Sprintf("%d", s.total)}
		return snapshot
	}

	snapshot.Values = []string{
		s.id,
		s.basket.transactionID,
		s.basket.basketID,
		fmt.Sprintf("%d", s.basket.itemsGenerated),
		fmt.Sprintf("%d", s.basket.totalItems),
		fmt.Sprintf("%d", s.total),
	}
	return snapshot
}

// startBasket replaces the current basket with a fresh one.
func (s *SalesInstance) startBasket() {
	s.basket = &salesBasket{
		transactionID: fmt.Sprintf("TXN-%08d", s.rng.Intn(100000000)), // #nosec G404
		basketID:      fmt.Sprintf("BASKET-%04d", s.rng.Intn(10000)),  // #nosec G404
		store: salesStore{
			Town:    salesTowns[s.rng.Intn(len(salesTowns))],   // #nosec G404
			State:   salesStates[s.rng.Intn(len(salesStates))], // #nosec G404
			Country: "USA",
		},
		customer: salesCustomer{
			Age:        18 + s.rng.Intn(62),                                 // #nosec G404
			IncomeBand: salesIncomeBands[s.rng.Intn(len(salesIncomeBands))], // #nosec G404
		},
		totalItems: minBasketItems + s.rng.Intn(maxBasketItems-minBasketItems+1), // #nosec G404
	}
}

// pickProduct draws a product from the catalog with a stable unit price.
func (s *SalesInstance) pickProduct() salesProduct {
	category := salesProductHierarchy[s.rng.Intn(len(salesProductHierarchy))]      // #nosec G404
	subcategory := category.subcategories[s.rng.Intn(len(category.subcategories))] // #nosec G404
	name := subcategory.products[s.rng.Intn(len(subcategory.products))]            // #nosec G404

	return salesProduct{
		ProductName: name,
		Category:    category.name,
		Subcategory: subcategory.name,
		UnitPrice:   s.productPrice(category.name, name),
	}
}

// productPrice returns the cached unit price for a product, computing
// and caching it on first use. Prices are deterministic per product and
// rounded to the nearest value ending in .49 or .99.
func (s *SalesInstance) productPrice(category, name string) float64 {
	key := category + "|" + name
	if price, ok := s.prices[key]; ok {
		return price
	}
	price := roundSalesPrice(computeSalesPrice(category, name))
	s.prices[key] = price
	return price
}

// computeSalesPrice derives a raw price from the product name hash,
// scaled into a per-category range.
func computeSalesPrice(category, name string) float64 {
	var hash uint32
	for _, b := range []byte(name) {
		hash += uint32(b)
	}

	min, max := 1.0, 20.0
	switch category {
	case "Food":
		min, max = 1.0, 10.0
	case "Beauty":
		min, max = 5.0, 30.0
	case "Healthcare":
		min, max = 3.0, 25.0
	case "Cleaning Products":
		min, max = 2.0, 15.0
	case "Pets":
		min, max = 3.0, 20.0
	case "Clothing":
		min, max = 5.0, 50.0
	}

	return min + float64(hash%1000)/1000.0*(max-min)
}

// roundSalesPrice rounds a price to the nearest value ending in .49 or .99.
func roundSalesPrice(price float64) float64 {
	base := math.Floor(price)
	lower := base + 0.49
	upper := base + 0.99
	if math.Abs(price-lower) <= math.Abs(price-upper) {
		return lower
	}
	return upper
}
