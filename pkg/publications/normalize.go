package publications

import (
	"strings"

	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/newsstandhq/newsstand/pkg/htmlutil"
	"github.com/newsstandhq/newsstand/pkg/models"
)

// nullableString is a patch value for a nullable column. Set is false when
// the column is left alone; a nil Value clears it.
type nullableString struct {
	Set   bool
	Value *string
}

// publicationPatch is an UpdatePublicationPayload after normalization. Nil
// pointers mean "unchanged".
type publicationPatch struct {
	Title         *string
	Type          *string
	Description   nullableString
	Publisher     nullableString
	Frequency     nullableString
	CoverImageURL nullableString
	PriceMonthly  *float64
	PriceYearly   *float64
	Event         *models.PublicationEvent
}

// normalizeString trims s and turns an empty result into nil.
func normalizeString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeDescription is normalizeString followed by markup removal.
func normalizeDescription(s *string) *string {
	s = normalizeString(s)
	if s == nil {
		return nil
	}
	return normalizeString(strPtr(htmlutil.StripTags(*s)))
}

func nullable(s *string, normalize func(*string) *string) nullableString {
	if s == nil {
		return nullableString{}
	}
	return nullableString{Set: true, Value: normalize(s)}
}

// normalizePatch turns a validated payload into the set of column changes
// to apply. Provided strings are trimmed and empty ones become null; title
// and type are NOT NULL so clearing them is rejected.
func normalizePatch(p UpdatePublicationPayload) (publicationPatch, error) {
	patch := publicationPatch{
		Description:   nullable(p.Description, normalizeDescription),
		Publisher:     nullable(p.Publisher, normalizeString),
		Frequency:     nullable(p.Frequency, normalizeString),
		CoverImageURL: nullable(p.CoverImageURL, normalizeString),
		PriceMonthly:  p.PriceMonthly,
		PriceYearly:   p.PriceYearly,
	}

	if p.Title != nil {
		patch.Title = normalizeString(p.Title)
		if patch.Title == nil {
			return patch, errcodes.ValidationError(`"title" can't be empty`)
		}
	}
	if p.Type != nil {
		patch.Type = normalizeString(p.Type)
		if patch.Type == nil {
			return patch, errcodes.ValidationError(`"type" can't be empty`)
		}
	}

	if p.IsAvailable != nil && !*p.IsAvailable {
		return patch, errcodes.ValidationError(`"is_available" can only be cleared by deleting the publication`)
	}
	if p.IsVisible != nil {
		event := models.PublicationEventHide
		if *p.IsVisible {
			event = models.PublicationEventShow
		}
		patch.Event = &event
	}

	return patch, nil
}

// apply writes the patch onto pub and returns the columns that changed.
func (patch publicationPatch) apply(pub *models.Publication) ([]string, error) {
	columns := []string{}

	if patch.Title != nil && *patch.Title != pub.Title {
		pub.Title = *patch.Title
		columns = append(columns, "title")
	}
	if patch.Type != nil && *patch.Type != pub.Type {
		pub.Type = *patch.Type
		columns = append(columns, "type")
	}
	for _, f := range []struct {
		column string
		patch  nullableString
		field  **string
	}{
		{"description", patch.Description, &pub.Description},
		{"publisher", patch.Publisher, &pub.Publisher},
		{"frequency", patch.Frequency, &pub.Frequency},
		{"cover_image_url", patch.CoverImageURL, &pub.CoverImageURL},
	} {
		if f.patch.Set && !equalStrPtr(f.patch.Value, *f.field) {
			*f.field = f.patch.Value
			columns = append(columns, f.column)
		}
	}
	if patch.PriceMonthly != nil && *patch.PriceMonthly != pub.PriceMonthly {
		pub.PriceMonthly = *patch.PriceMonthly
		columns = append(columns, "price_monthly")
	}
	if patch.PriceYearly != nil && *patch.PriceYearly != pub.PriceYearly {
		pub.PriceYearly = *patch.PriceYearly
		columns = append(columns, "price_yearly")
	}
	if patch.Event != nil {
		next, err := pub.State.Transition(*patch.Event)
		if err != nil {
			return nil, err
		}
		if next != pub.State {
			pub.State = next
			columns = append(columns, "state")
		}
	}

	return columns, nil
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtr(s string) *string {
	return &s
}
