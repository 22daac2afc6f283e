package models

// ScrapedBookPrice is the canonical payload a scrape source produces
// for one listing. Optional metadata fields are zero-valued when the
// source did not capture them; the ingestion adapter never overwrites
// stored metadata with missing fields.
type ScrapedBookPrice struct {
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationYear int      `json:"publication_year,omitempty"`
	Category        string   `json:"category,omitempty"`
	Description     string   `json:"description,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Pages           int      `json:"pages,omitempty"`
	Weight          string   `json:"weight,omitempty"`
	Dimensions      string   `json:"dimensions,omitempty"`
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Availability    string   `json:"availability,omitempty"`
	Condition       string   `json:"condition,omitempty"`
	ShippingCost    float64  `json:"shipping_cost"`
	URL             string   `json:"url,omitempty"`
}
