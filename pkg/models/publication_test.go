package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicationStateTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  PublicationState
		event PublicationEvent
		to    PublicationState
		err   error
	}{
		{PublicationStateActive, PublicationEventShow, PublicationStateActive, nil},
		{PublicationStateActive, PublicationEventHide, PublicationStateHidden, nil},
		{PublicationStateActive, PublicationEventDelete, PublicationStateDeleted, nil},
		{PublicationStateHidden, PublicationEventShow, PublicationStateActive, nil},
		{PublicationStateHidden, PublicationEventHide, PublicationStateHidden, nil},
		{PublicationStateHidden, PublicationEventDelete, PublicationStateDeleted, nil},
		{PublicationStateDeleted, PublicationEventShow, PublicationStateDeleted, ErrTerminalState},
		{PublicationStateDeleted, PublicationEventHide, PublicationStateDeleted, ErrTerminalState},
		{PublicationStateDeleted, PublicationEventDelete, PublicationStateDeleted, nil},
		{PublicationStateActive, PublicationEvent("archive"), PublicationStateActive, ErrUnknownPublicationEvent},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()
			to, err := tt.from.Transition(tt.event)
			if tt.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestPublicationStateFlags(t *testing.T) {
	t.Parallel()

	assert.True(t, PublicationStateActive.IsAvailable())
	assert.True(t, PublicationStateActive.IsVisible())
	assert.True(t, PublicationStateHidden.IsAvailable())
	assert.False(t, PublicationStateHidden.IsVisible())
	assert.False(t, PublicationStateDeleted.IsAvailable())
	assert.False(t, PublicationStateDeleted.IsVisible())
}

func TestPublicationMarshalJSON_DerivesFlags(t *testing.T) {
	t.Parallel()

	desc := "Weekly news"
	p := &Publication{
		ID:           7,
		Title:        "X",
		Description:  &desc,
		Type:         PublicationTypeMagazine,
		PriceMonthly: 5,
		PriceYearly:  50,
		State:        PublicationStateHidden,
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, "X", got["title"])
	assert.Equal(t, "Weekly news", got["description"])
	assert.Equal(t, "hidden", got["state"])
	assert.Equal(t, true, got["is_available"])
	assert.Equal(t, false, got["is_visible"])
	assert.Nil(t, got["publisher"])
}
