package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

func TestBar_Defaults(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())

	bar.SetWidth(160)

	out := bar.View()
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "mode: default")
	assert.Contains(t, out, "type: all")
	assert.Contains(t, out, "enter search")
	assert.Contains(t, out, "tab mode")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    string
	}{
		{"searching", StateSearching, "", 0, "Searching..."},
		{"error with message", StateError, "index locked", 0, "Error: index locked"},
		{"error", StateError, "", 0, "Error"},
		{"ready with results", StateReady, "", 2, "2 results"},
		{"results", StateResults, "", 3, "3 results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetResultCount(tt.count)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_ResultsHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetState(StateResults)
	bar.SetResultCount(2)

	out := bar.View()

	assert.Contains(t, out, "n new search")
	assert.Contains(t, out, "enter actions")
	assert.NotContains(t, out, "tab mode")
}

func TestBar_ResultsStateWithoutResults(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetState(StateResults)

	out := bar.View()

	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "enter search")
}

func TestBar_Filters(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetMode(domain.SearchModeText)
	bar.SetTypeFilter(domain.DocumentTypeDecretoLei)

	out := bar.View()

	assert.Contains(t, out, "mode: text")
	assert.Contains(t, out, "type: Decreto-Lei")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("x")
	bar.SetResultCount(4)
	bar.SetMode(domain.SearchModeVector)
	bar.SetWidth(160)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.ResultCount())
	assert.Contains(t, bar.View(), "mode: vector")
}
