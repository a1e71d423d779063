package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	PublicationTypeMagazine  = "magazine"
	PublicationTypeNewspaper = "newspaper"
)

// PublicationState is the catalog visibility of a publication. It replaces a
// pair of is_available/is_visible flags so that a deleted publication can
// never be visible.
type PublicationState string

const (
	// PublicationStateActive is listed publicly and to admins.
	PublicationStateActive PublicationState = "active"
	// PublicationStateHidden is only reachable by admins.
	PublicationStateHidden PublicationState = "hidden"
	// PublicationStateDeleted is terminal and reachable by nobody.
	PublicationStateDeleted PublicationState = "deleted"
)

type PublicationEvent string

const (
	PublicationEventShow   PublicationEvent = "show"
	PublicationEventHide   PublicationEvent = "hide"
	PublicationEventDelete PublicationEvent = "delete"
)

var (
	// ErrTerminalState is returned when a deleted publication is asked to
	// move anywhere but deleted.
	ErrTerminalState = errors.New("publication state is terminal")
	// ErrUnknownPublicationEvent is returned for events outside the
	// transition table.
	ErrUnknownPublicationEvent = errors.New("unknown publication event")
)

// Transition returns the state reached by applying e to s.
func (s PublicationState) Transition(e PublicationEvent) (PublicationState, error) {
	if s == PublicationStateDeleted {
		if e == PublicationEventDelete {
			return PublicationStateDeleted, nil
		}
		return s, errors.WithStack(ErrTerminalState)
	}

	switch e {
	case PublicationEventShow:
		return PublicationStateActive, nil
	case PublicationEventHide:
		return PublicationStateHidden, nil
	case PublicationEventDelete:
		return PublicationStateDeleted, nil
	}
	return s, errors.Wrapf(ErrUnknownPublicationEvent, "event %q", e)
}

// IsAvailable reports whether the publication has not been deleted.
func (s PublicationState) IsAvailable() bool {
	return s == PublicationStateActive || s == PublicationStateHidden
}

// IsVisible reports whether the publication is listed publicly.
func (s PublicationState) IsVisible() bool {
	return s == PublicationStateActive
}

type Publication struct {
	bun.BaseModel `bun:"table:publications,alias:pub"`

	ID            int              `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time        `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time        `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Title         string           `bun:",notnull" json:"title"`
	Description   *string          `json:"description"`
	Type          string           `bun:",notnull" json:"type"`
	Publisher     *string          `json:"publisher"`
	Frequency     *string          `json:"frequency"`
	PriceMonthly  float64          `bun:",notnull" json:"price_monthly"`
	PriceYearly   float64          `bun:",notnull" json:"price_yearly"`
	CoverImageURL *string          `bun:"cover_image_url" json:"cover_image_url"`
	State         PublicationState `bun:",notnull,default:'active'" json:"state"`
}

// MarshalJSON adds the is_available and is_visible flags derived from State.
func (p Publication) MarshalJSON() ([]byte, error) {
	type Alias Publication
	return json.Marshal(struct {
		Alias
		IsAvailable bool `json:"is_available"`
		IsVisible   bool `json:"is_visible"`
	}{Alias(p), p.State.IsAvailable(), p.State.IsVisible()})
}
