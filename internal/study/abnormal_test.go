package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evstudy/internal/panel"
)

func paramTable(ticker string, alpha, beta float64) ParamTable {
	return ParamTable{ticker: Params{Ticker: ticker, Alpha: &alpha, Beta: &beta}}
}

func TestComputeAbnormalKnownScenario(t *testing.T) {
	// alpha=0.001, beta=1.2, return=0.02, market_return=0.01
	// expected_return = 0.001 + 1.2*0.01 = 0.013; AR = 0.02 - 0.013 = 0.007
	params := paramTable("A", 0.001, 1.2)
	rows := []panel.PriceRecord{row("A", 2024, 1, 3, fp(0.02), fp(0.01))}

	expanded := ComputeAbnormal(rows, params)
	require.Len(t, expanded, 1)

	require.NotNil(t, expanded[0].ExpectedReturn)
	assert.InDelta(t, 0.013, *expanded[0].ExpectedReturn, 1e-12)
	require.NotNil(t, expanded[0].AR)
	assert.InDelta(t, 0.007, *expanded[0].AR, 1e-12)
}

func TestComputeAbnormalNilPropagation(t *testing.T) {
	params := paramTable("A", 0.001, 1.2)

	tests := []struct {
		name string
		row  panel.PriceRecord
	}{
		{"nil market return", row("A", 2024, 1, 3, fp(0.02), nil)},
		{"unknown ticker", row("Z", 2024, 1, 3, fp(0.02), fp(0.01))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expanded := ComputeAbnormal([]panel.PriceRecord{tt.row}, params)
			assert.Nil(t, expanded[0].ExpectedReturn)
			assert.Nil(t, expanded[0].AR)
		})
	}
}

func TestComputeAbnormalNilReturnKeepsExpected(t *testing.T) {
	params := paramTable("A", 0.001, 1.2)
	rows := []panel.PriceRecord{row("A", 2024, 1, 2, nil, fp(0.01))}

	expanded := ComputeAbnormal(rows, params)
	require.NotNil(t, expanded[0].ExpectedReturn)
	assert.InDelta(t, 0.013, *expanded[0].ExpectedReturn, 1e-12)
	assert.Nil(t, expanded[0].AR, "AR needs both operands")
}

func TestComputeAbnormalNilParams(t *testing.T) {
	params := ParamTable{"A": Params{Ticker: "A"}} // null fit
	rows := []panel.PriceRecord{row("A", 2024, 1, 3, fp(0.02), fp(0.01))}

	expanded := ComputeAbnormal(rows, params)
	assert.Nil(t, expanded[0].ExpectedReturn)
	assert.Nil(t, expanded[0].AR)
}

func TestComputeAbnormalPreservesRowOrderAndCount(t *testing.T) {
	params := paramTable("A", 0.0, 1.0)
	rows := []panel.PriceRecord{
		row("A", 2024, 1, 2, nil, nil),
		row("A", 2024, 1, 3, fp(0.01), fp(0.01)),
		row("B", 2024, 1, 2, fp(0.02), fp(0.01)),
	}

	expanded := ComputeAbnormal(rows, params)
	require.Len(t, expanded, 3)
	for i := range rows {
		assert.Equal(t, rows[i].Ticker, expanded[i].Ticker)
		assert.Equal(t, rows[i].Date, expanded[i].Date)
	}
}
