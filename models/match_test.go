package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusIsValid(t *testing.T) {
	for _, s := range []MatchStatus{MatchStatusUpcoming, MatchStatusLive, MatchStatusFinished} {
		assert.True(t, s.IsValid(), s)
	}
	for _, s := range []MatchStatus{"", "live", "Paused", "Finished "} {
		assert.False(t, s.IsValid(), s)
	}
}

func TestQuarterIsValid(t *testing.T) {
	assert.True(t, QuarterExtraTime.IsValid())
	assert.True(t, Quarter("Q3").IsValid())
	assert.False(t, Quarter("Q5").IsValid())
	assert.False(t, Quarter("q1").IsValid())
}

func TestSideOf(t *testing.T) {
	m := &LiveMatch{Team1Name: "Alpha", Team2Name: "Beta"}

	side, ok := m.SideOf("Alpha")
	assert.True(t, ok)
	assert.Equal(t, Team1, side)

	side, ok = m.SideOf("Beta")
	assert.True(t, ok)
	assert.Equal(t, Team2, side)

	_, ok = m.SideOf("Gamma")
	assert.False(t, ok)
	_, ok = m.SideOf("")
	assert.False(t, ok)
}

func TestApplyDefaults(t *testing.T) {
	m := &LiveMatch{MatchID: "m1"}
	m.ApplyDefaults()

	assert.Equal(t, MatchStatusUpcoming, m.Status)
	assert.Equal(t, QuarterQ1, m.CurrentQuarter)
	assert.Equal(t, DefaultQuarters(), m.Quarters)
	assert.NotNil(t, m.Team1Players)
	assert.NotNil(t, m.Team2Players)
	assert.NotNil(t, m.MatchEvents)
	assert.Zero(t, m.Team1Score)
	assert.Zero(t, m.Team2Score)
}
