package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidatedRequest(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		want    string
	}{
		{
			"tags and request",
			UserProfile{Request: "搬家", Tags: []string{"乔迁", "动土"}},
			"乔迁 动土 搬家",
		},
		{
			"request only",
			UserProfile{Request: "结婚"},
			"结婚",
		},
		{
			"empty tags skipped",
			UserProfile{Request: "开业", Tags: []string{"", "签约"}},
			"签约 开业",
		},
		{
			"empty",
			UserProfile{},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.ConsolidatedRequest())
		})
	}
}

func TestParseReading(t *testing.T) {
	data := []byte(`{
		"title": "择吉方案",
		"summary": "综述",
		"dates": [
			{"date": "2026-09-05", "weekDay": "周六", "energyScore": 96, "type": "天赐吉日"},
			{"date": "2026-09-12", "weekDay": "周六", "energyScore": 90},
			{"date": "2026-09-20", "weekDay": "周日", "energyScore": 85},
			{"date": "2026-10-02", "weekDay": "周五", "energyScore": 80},
			{"date": "2026-10-18", "weekDay": "周日", "energyScore": 76}
		],
		"advice": "锦囊"
	}`)

	reading, err := ParseReading(data)
	require.NoError(t, err)

	assert.Equal(t, "择吉方案", reading.Title)
	assert.Equal(t, "综述", reading.Summary)
	assert.Equal(t, "锦囊", reading.Advice)

	require.Len(t, reading.Dates.Immediate, 1)
	require.Len(t, reading.Dates.ShortTerm, 2)
	require.Len(t, reading.Dates.LongTerm, 2)
	assert.Equal(t, "2026-09-05", reading.Dates.Immediate[0].Date)
	assert.Equal(t, "2026-10-02", reading.Dates.LongTerm[0].Date)
	assert.Equal(t, 5, reading.DateCount())
	assert.Len(t, reading.AllDates(), 5)
}

func TestParseReadingDefaults(t *testing.T) {
	data := []byte(`{"title": "t", "summary": "s", "dates": [{"date": "2026-09-05"}], "advice": "a"}`)

	reading, err := ParseReading(data)
	require.NoError(t, err)

	require.Len(t, reading.Dates.Immediate, 1)
	d := reading.Dates.Immediate[0]
	assert.Equal(t, 70, d.EnergyScore)
	assert.Equal(t, "吉日", d.Type)
	assert.Equal(t, "吉时待定", d.BestTime)
	assert.Equal(t, "正南", d.Direction)
	assert.NotNil(t, d.Tags)

	assert.Empty(t, reading.Dates.ShortTerm)
	assert.Empty(t, reading.Dates.LongTerm)
}

func TestParseReadingFewerThanFive(t *testing.T) {
	data := []byte(`{"title": "t", "summary": "s", "dates": [
		{"date": "2026-09-05", "energyScore": 92},
		{"date": "2026-09-09", "energyScore": 88}
	], "advice": "a"}`)

	reading, err := ParseReading(data)
	require.NoError(t, err)

	assert.Len(t, reading.Dates.Immediate, 1)
	assert.Len(t, reading.Dates.ShortTerm, 1)
	assert.Empty(t, reading.Dates.LongTerm)
	assert.Equal(t, 2, reading.DateCount())
}

func TestParseReadingInvalidJSON(t *testing.T) {
	_, err := ParseReading([]byte("not json"))
	require.Error(t, err)
}
