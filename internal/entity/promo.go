package entity

// PromoRequest carries the form fields of /v1/generate-promo.
type PromoRequest struct {
	StoreName        string
	Mood             string
	StoreDescription string
	LocationText     string
	Latitude         *float64
	Longitude        *float64
	Variants         int
	Language         string
	Debug            bool
	BaseURL          string
	Attachments      []InlineImage
}

// InlineImage is an image attached to a model call.
type InlineImage struct {
	Data     []byte
	MimeType string
}

type PromoVariant struct {
	Headline string   `json:"headline"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	CTA      string   `json:"cta"`
}

// PromoImages describes the stored images referenced by a promo response.
type PromoImages struct {
	Group  *int64            `json:"group"`
	FoodAI *string           `json:"food_ai"`
	Stores []string          `json:"stores"`
	URLs   []string          `json:"urls"`
	Roots  map[string]string `json:"roots"`
}
