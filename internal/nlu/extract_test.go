package nlu

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
)

// Friday morning, fixed so relative dates are deterministic.
var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, clock.Taipei())

func TestExtract_FullTripQuery(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("明天早上8點 台北到台中 最快", testNow)

	assert.Equal(t, "台北", intent.Origin)
	assert.Equal(t, "台中", intent.Destination)
	assert.Equal(t, "08:00", intent.Time)
	assert.Equal(t, "2025-03-15", intent.Date)
	assert.True(t, intent.Preferences.Fastest)
	assert.InDelta(t, 1.0, intent.Confidence, 1e-9)
	assert.True(t, intent.Actionable())
}

func TestExtract_EnglishQuery(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("tomorrow morning 8am taipei to taichung fastest", testNow)

	assert.Equal(t, "台北", intent.Origin)
	assert.Equal(t, "台中", intent.Destination)
	assert.Equal(t, "08:00", intent.Time)
	assert.Equal(t, "2025-03-15", intent.Date)
	assert.True(t, intent.Preferences.Fastest)
	assert.True(t, intent.Actionable())
}

func TestExtract_PlacePairOnly(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("台北到台中", testNow)

	assert.Equal(t, "台北", intent.Origin)
	assert.Equal(t, "台中", intent.Destination)
	assert.Empty(t, intent.Time)
	assert.Empty(t, intent.Date)
	assert.GreaterOrEqual(t, intent.Confidence, 0.4)
	assert.True(t, intent.Actionable())
	assert.Contains(t, intent.Rules, "place_pair_separator")
}

func TestExtract_DestinationOnly(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("我要去花蓮", testNow)

	assert.Empty(t, intent.Origin)
	assert.Equal(t, "花蓮", intent.Destination)
	assert.False(t, intent.Actionable())
	assert.Contains(t, intent.Rules, "place_destination_only")
}

func TestExtract_TraditionalTaiFolded(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("臺北到臺中", testNow)

	assert.Equal(t, "台北", intent.Origin)
	assert.Equal(t, "台中", intent.Destination)
}

func TestExtract_UnusableInput(t *testing.T) {
	e := NewExtractor()
	for _, text := range []string{
		"",
		"   \t\n ",
		"!!!???",
		"hello what is the weather like",
	} {
		intent := e.Extract(text, testNow)
		assert.Zero(t, intent.Confidence, "input %q", text)
		assert.False(t, intent.Actionable(), "input %q", text)
	}
}

func TestExtract_OverlongInputTruncated(t *testing.T) {
	e := NewExtractor()
	long := "台北到台中" + strings.Repeat("嗚", 300)
	intent := e.Extract(long, testNow)

	// The useful prefix survives truncation.
	assert.Equal(t, "台北", intent.Origin)
	assert.Equal(t, "台中", intent.Destination)
}

func TestExtract_BareTrainNumber(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("152", testNow)

	require.Equal(t, "152", intent.TrainNo)
	assert.False(t, intent.TrainNoPartial)
	assert.InDelta(t, 0.85, intent.Confidence, 1e-9)
	assert.True(t, intent.Actionable())
	assert.Empty(t, intent.Origin)
	assert.Empty(t, intent.Destination)
	assert.Equal(t, []string{"train_no_bare"}, intent.Rules)
}

func TestExtract_ShortTrainNumberFlaggedPartial(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("52", testNow)

	assert.Equal(t, "52", intent.TrainNo)
	assert.True(t, intent.TrainNoPartial)
	assert.InDelta(t, 0.60, intent.Confidence, 1e-9)
	assert.True(t, intent.Actionable())
}

func TestExtract_TrainNumberWithClass(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("自強152", testNow)

	assert.Equal(t, "152", intent.TrainNo)
	assert.Equal(t, "自強", intent.Preferences.ClassHint)
	assert.True(t, intent.Preferences.AllClasses)
	assert.Contains(t, intent.Rules, "train_no_with_class")
}

func TestExtract_TrainStatusQuery(t *testing.T) {
	e := NewExtractor()
	intent := e.Extract("152到哪了", testNow)

	assert.Equal(t, "152", intent.TrainNo)
	assert.Empty(t, intent.Destination, "status suffix must not become a destination")
	assert.Contains(t, intent.Rules, "train_no_status_query")
}

func TestExtract_Preferences(t *testing.T) {
	e := NewExtractor()

	t.Run("fastest wins over cheapest", func(t *testing.T) {
		intent := e.Extract("台北到高雄 最快又便宜", testNow)
		assert.True(t, intent.Preferences.Fastest)
		assert.False(t, intent.Preferences.Cheapest)
	})

	t.Run("cheapest", func(t *testing.T) {
		intent := e.Extract("台北到高雄 最便宜", testNow)
		assert.True(t, intent.Preferences.Cheapest)
	})

	t.Run("direct only", func(t *testing.T) {
		intent := e.Extract("台北到高雄 直達", testNow)
		assert.True(t, intent.Preferences.DirectOnly)
	})

	t.Run("pass-eligible class keeps the filter", func(t *testing.T) {
		intent := e.Extract("台北到桃園 區間車", testNow)
		assert.Equal(t, "區間", intent.Preferences.ClassHint)
		assert.False(t, intent.Preferences.AllClasses)
	})

	t.Run("non-eligible class lifts the filter", func(t *testing.T) {
		intent := e.Extract("台北到高雄 坐普悠瑪", testNow)
		assert.Equal(t, "普悠瑪", intent.Preferences.ClassHint)
		assert.True(t, intent.Preferences.AllClasses)
		assert.True(t, intent.Preferences.Fastest)
	})

	t.Run("window override", func(t *testing.T) {
		intent := e.Extract("台北到台中 接下來3小時", testNow)
		assert.Equal(t, 3, intent.Preferences.WindowHours)
	})

	t.Run("window out of bounds ignored", func(t *testing.T) {
		intent := e.Extract("台北到台中 未來20小時", testNow)
		assert.Zero(t, intent.Preferences.WindowHours)
	})
}

func TestExtract_TimeFormatInvariant(t *testing.T) {
	e := NewExtractor()
	for _, text := range []string{
		"明天早上8點台北到台中",
		"下午2點半去高雄",
		"8am to taichung",
		"晚上的車 台北到台南",
		"14:30 台北到新竹",
	} {
		intent := e.Extract(text, testNow)
		require.NotEmpty(t, intent.Time, "input %q", text)
		assert.Regexp(t, `^\d{2}:\d{2}$`, intent.Time, "input %q", text)
	}
}
