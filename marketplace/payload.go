package marketplace

// ShopeeAttribute is one attribute entry of a Shopee item.
type ShopeeAttribute struct {
	AttributeID   int    `json:"attribute_id"`
	AttributeName string `json:"attribute_name"`
	Value         string `json:"value"`
}

// TikTokAttribute is one attribute entry of a TikTok Shop product.
type TikTokAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TikTokPrice is the money shape the TikTok Shop API expects.
type TikTokPrice struct {
	Currency string `json:"currency"`
	Amount   int    `json:"amount"`
}

// EnrichmentMetadata carries the generation bookkeeping alongside a payload.
// Not part of the platform API surface; kept for tracking and previews.
type EnrichmentMetadata struct {
	CategoryName  string   `json:"category_name"`
	Hashtags      []string `json:"hashtags"`
	SEOKeywords   []string `json:"seo_keywords,omitempty"`
	SellingPoints []string `json:"selling_points,omitempty"`
	Reasoning     string   `json:"reasoning"`
}

// ShopeePayload is a ready-to-publish Shopee item.
type ShopeePayload struct {
	ItemName    string             `json:"item_name"`
	Description string             `json:"description"`
	CategoryID  int                `json:"category_id"`
	Price       int                `json:"price"`
	Stock       int                `json:"stock"`
	WeightKg    float64            `json:"weight"`
	Condition   string             `json:"condition"`
	Images      []string           `json:"images"`
	Attributes  []ShopeeAttribute  `json:"attributes"`
	ItemSKU     string             `json:"item_sku,omitempty"`
	AIMetadata  EnrichmentMetadata `json:"_ai_metadata"`
}

// TikTokPayload is a ready-to-publish TikTok Shop product. Weight is in
// grams; the platform does not take kilograms.
type TikTokPayload struct {
	ProductName       string             `json:"product_name"`
	Description       string             `json:"description"`
	CategoryID        int                `json:"category_id"`
	Price             TikTokPrice        `json:"price"`
	StockQuantity     int                `json:"stock_quantity"`
	ProductAttributes []TikTokAttribute  `json:"product_attributes"`
	Images            []string           `json:"images"`
	WeightGrams       int                `json:"weight"`
	SellerSKU         string             `json:"seller_sku,omitempty"`
	AIMetadata        EnrichmentMetadata `json:"_ai_metadata"`
}
