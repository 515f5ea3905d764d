package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	evserrors "evstudy/internal/errors"
	"evstudy/internal/events"
)

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		car      float64
		expected ImpactLabel
	}{
		{0.0, ImpactLow},
		{0.005, ImpactLow},
		{0.01, ImpactLow}, // boundary belongs to the lower bucket
		{0.0100001, ImpactMedium},
		{-0.02, ImpactMedium},
		{0.03, ImpactMedium}, // boundary belongs to the lower bucket
		{0.0300001, ImpactHigh},
		{-0.005, ImpactLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, th.Classify(tt.car), "car=%v", tt.car)
	}
}

func TestClassifyUsesMagnitude(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, th.Classify(0.05), th.Classify(-0.05))
	assert.Equal(t, ImpactHigh, th.Classify(-0.05))
}

func TestLabelEventsCanonicalWindowOnly(t *testing.T) {
	window, err := ParseWindow("-1:1")
	require.NoError(t, err)

	rec := CARRecord{
		AlignedEvent: AlignedEvent{Event: events.Event{EventID: "EV-1"}},
		CARs: map[string]*float64{
			"CAR_m1_p1": fp(0.02),
			"CAR_0_5":   fp(0.5), // ignored: labeling reads one window only
		},
	}

	labeled, err := NewLabeler(window, DefaultThresholds()).LabelEvents([]CARRecord{rec})
	require.NoError(t, err)
	require.Len(t, labeled, 1)
	assert.Equal(t, ImpactMedium, labeled[0].ImpactLabel)
}

func TestLabelEventsNilCARIsPreconditionFailure(t *testing.T) {
	window, err := ParseWindow("-1:1")
	require.NoError(t, err)

	rec := CARRecord{
		AlignedEvent: AlignedEvent{Event: events.Event{EventID: "EV-2"}},
		CARs:         map[string]*float64{"CAR_m1_p1": nil},
	}

	_, err = NewLabeler(window, DefaultThresholds()).LabelEvents([]CARRecord{rec})
	require.Error(t, err)

	var schemaErr *evserrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Error(), "EV-2")
}

func TestParseImpactLabel(t *testing.T) {
	for _, valid := range []string{"Low", "Medium", "High"} {
		label, err := ParseImpactLabel(valid)
		require.NoError(t, err)
		assert.Equal(t, ImpactLabel(valid), label)
	}

	_, err := ParseImpactLabel("Extreme")
	require.Error(t, err)
	var domainErr *evserrors.LabelDomainError
	assert.ErrorAs(t, err, &domainErr)
}

func TestLabelValueMapping(t *testing.T) {
	assert.Equal(t, 0, LabelValue[ImpactLow])
	assert.Equal(t, 1, LabelValue[ImpactMedium])
	assert.Equal(t, 2, LabelValue[ImpactHigh])
}
