package publications

type ListPublicationsQuery struct {
	Skip  int     `query:"skip" json:"skip,omitempty" validate:"min=0"`
	Limit *int    `query:"limit" json:"limit,omitempty" default:"50" validate:"required,min=1,max=100"`
	Type  string  `query:"type" json:"type,omitempty" mod:"trim" validate:"omitempty,oneof=magazine newspaper"`
}

type CreatePublicationPayload struct {
	Title         string  `json:"title" mod:"trim" validate:"required,max=300"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type          string  `json:"type" mod:"trim" validate:"required,oneof=magazine newspaper"`
	Publisher     *string `json:"publisher,omitempty" validate:"omitempty,max=200"`
	Frequency     *string `json:"frequency,omitempty" validate:"omitempty,max=50"`
	PriceMonthly  float64 `json:"price_monthly" validate:"required,gt=0"`
	PriceYearly   float64 `json:"price_yearly" validate:"required,gt=0"`
	CoverImageURL *string `json:"cover_image_url,omitempty" mod:"trim" validate:"omitempty,max=2048,url"`
}

// UpdatePublicationPayload is a partial update. Absent and null fields are
// left alone.
type UpdatePublicationPayload struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,max=300"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type          *string  `json:"type,omitempty" mod:"trim" validate:"omitempty,oneof=magazine newspaper"`
	Publisher     *string  `json:"publisher,omitempty" validate:"omitempty,max=200"`
	Frequency     *string  `json:"frequency,omitempty" validate:"omitempty,max=50"`
	PriceMonthly  *float64 `json:"price_monthly,omitempty" validate:"omitempty,gt=0"`
	PriceYearly   *float64 `json:"price_yearly,omitempty" validate:"omitempty,gt=0"`
	CoverImageURL *string  `json:"cover_image_url,omitempty" mod:"trim" validate:"omitempty,max=2048,url"`
	IsVisible     *bool    `json:"is_visible,omitempty"`
	IsAvailable   *bool    `json:"is_available,omitempty"`
}
