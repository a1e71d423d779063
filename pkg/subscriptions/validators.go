package subscriptions

type CreateSubscriptionPayload struct {
	PublicationID  int  `json:"publication_id" validate:"required,min=1"`
	DurationMonths int  `json:"duration_months" validate:"required,min=1,max=36"`
	AutoRenew      bool `json:"auto_renew"`
}
