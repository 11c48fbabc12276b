package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lis186/smart-tra-mcp-server-sub000/internal/clock"
	"github.com/lis186/smart-tra-mcp-server-sub000/internal/nlu"
)

const (
	originTaipei = "1000"
	destTaichung = "3300"
)

// Friday morning, fixed.
var selNow = time.Date(2025, 3, 14, 10, 0, 0, 0, clock.Taipei())

func localTrain(no, dep, arr string) TrainTimetable {
	return twoStopTrain(no, "區間", dep, arr, 2, 8)
}

func expressTrain(no, dep, arr string) TrainTimetable {
	return twoStopTrain(no, "自強(3000)", dep, arr, 2, 8)
}

func twoStopTrain(no, trainType, dep, arr string, seqOrigin, seqDest int) TrainTimetable {
	return TrainTimetable{
		TrainNo:   no,
		TrainType: trainType,
		Stops: []StopTime{
			{StationID: originTaipei, DepartureTime: dep, ArrivalTime: dep, StopSequence: seqOrigin},
			{StationID: destTaichung, ArrivalTime: arr, DepartureTime: arr, StopSequence: seqDest},
		},
	}
}

func newTestSelector() *Selector {
	return NewSelector(DefaultConfig(), nil)
}

func TestSelect_TomorrowMorningWindow(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2101", "07:30", "09:40"),
		localTrain("2103", "07:50", "10:00"),
		localTrain("2105", "08:10", "10:20"),
		localTrain("2107", "08:40", "10:50"),
		localTrain("2109", "09:30", "11:40"),
	}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "08:00"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 3)

	require.Len(t, out.Primary, 3)
	assert.Equal(t, "07:50", out.Primary[0].DepartureTime)
	assert.Equal(t, "08:10", out.Primary[1].DepartureTime)
	assert.Equal(t, "08:40", out.Primary[2].DepartureTime)
	for _, c := range out.Primary {
		assert.False(t, c.StatusKnown)
		assert.Nil(t, c.DelayMinutes)
		assert.False(t, c.BoardingSoon, "tomorrow's trains never board soon")
	}
	assert.Empty(t, out.Backup)
	assert.Empty(t, out.Warnings)
}

func TestSelect_EndpointFiltering(t *testing.T) {
	s := newTestSelector()
	wrongDirection := TrainTimetable{
		TrainNo:   "1278",
		TrainType: "區間",
		Stops: []StopTime{
			{StationID: destTaichung, DepartureTime: "08:00", StopSequence: 2},
			{StationID: originTaipei, ArrivalTime: "10:10", StopSequence: 8},
		},
	}
	missingDest := TrainTimetable{
		TrainNo:   "1280",
		TrainType: "區間",
		Stops: []StopTime{
			{StationID: originTaipei, DepartureTime: "08:05", StopSequence: 1},
			{StationID: "9999", ArrivalTime: "09:00", StopSequence: 4},
		},
	}
	trains := []TrainTimetable{wrongDirection, missingDest, localTrain("2105", "08:10", "10:20")}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "08:00"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "2105", out.Primary[0].TrainNo)
}

func TestSelect_DurationDerivation(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		// Arrival past midnight rolls to the next day.
		localTrain("2199", "23:30", "00:40"),
	}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "23:30"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, 70, out.Primary[0].Minutes)
	assert.Equal(t, 70*time.Minute, out.Primary[0].Duration)
	assert.Equal(t, 5, out.Primary[0].StopCount)
}

func TestSelect_DurationCeilingExcludes(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2301", "08:00", "19:00"), // 11h, past the ceiling
		localTrain("2303", "08:10", "10:20"),
	}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "08:00"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "2303", out.Primary[0].TrainNo)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "2301")
}

func TestSelect_MalformedStopTimeExcludes(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2401", "8點", "10:00"),
		localTrain("2403", "08:10", "10:20"),
	}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "08:00"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "2403", out.Primary[0].TrainNo)
	require.NotEmpty(t, out.Warnings)
	assert.Contains(t, out.Warnings[0], "2401")
}

func TestSelect_BackupPadsSmallEligibleSet(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2103", "08:20", "10:30"),
		expressTrain("152", "08:00", "09:40"),
		expressTrain("110", "08:30", "10:05"),
		expressTrain("120", "09:00", "10:35"),
	}
	intent := nlu.ParsedIntent{Date: "2025-03-15", Time: "08:00"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "2103", out.Primary[0].TrainNo)
	assert.False(t, out.Primary[0].Backup)

	// Padded up to the minimum of three combined, earliest first.
	assert.Equal(t, 3, out.Total())
	require.Len(t, out.Backup, 2)
	assert.Equal(t, "152", out.Backup[0].TrainNo)
	assert.Equal(t, "110", out.Backup[1].TrainNo)
	for _, c := range out.Backup {
		assert.True(t, c.Backup)
		assert.False(t, c.PassEligible)
	}
}

func TestSelect_AllClassesDisablesFilter(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2103", "08:20", "10:30"),
		expressTrain("152", "08:00", "09:40"),
	}
	intent := nlu.ParsedIntent{
		Date: "2025-03-15", Time: "08:00",
		Preferences: nlu.Preferences{AllClasses: true},
	}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 2)
	assert.Equal(t, "152", out.Primary[0].TrainNo)
	assert.Equal(t, "2103", out.Primary[1].TrainNo)
	assert.Empty(t, out.Backup)
}

func TestSelect_DirectOnly(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		twoStopTrain("152", "自強", "08:00", "09:40", 2, 8),
		twoStopTrain("105", "自強", "08:30", "10:00", 3, 4), // adjacent stops
	}
	intent := nlu.ParsedIntent{
		Date: "2025-03-15", Time: "08:00",
		Preferences: nlu.Preferences{DirectOnly: true, AllClasses: true},
	}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "105", out.Primary[0].TrainNo)
	assert.Zero(t, out.Primary[0].StopCount)
}

func TestSelect_TodayDropsDepartedFlagsBoarding(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2501", "09:30", "11:40"), // in window but already gone
		localTrain("2503", "10:10", "12:20"), // leaves within the near margin
		localTrain("2505", "11:00", "13:10"),
	}
	// No date, no time: the window anchors on the wall clock.
	out := s.Select(trains, originTaipei, destTaichung, nlu.ParsedIntent{}, nil, selNow, 5)

	require.Len(t, out.Primary, 2)
	assert.Equal(t, "2503", out.Primary[0].TrainNo)
	assert.True(t, out.Primary[0].BoardingSoon)
	assert.Equal(t, "2505", out.Primary[1].TrainNo)
	assert.False(t, out.Primary[1].BoardingSoon)
}

func TestSelect_WindowOverrideClamped(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2105", "08:10", "10:20"),
		localTrain("2109", "09:30", "11:40"),
	}
	intent := nlu.ParsedIntent{
		Date: "2025-03-15", Time: "08:00",
		Preferences: nlu.Preferences{WindowHours: 1},
	}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	assert.Equal(t, "2105", out.Primary[0].TrainNo)
}

func TestSelect_MergesLiveDelayAcrossMidnight(t *testing.T) {
	s := newTestSelector()
	lateEvening := time.Date(2025, 3, 14, 23, 30, 0, 0, clock.Taipei())
	trains := []TrainTimetable{
		localTrain("2199", "23:55", "00:40"),
	}
	delays := map[string]LiveStatus{
		"2199": {DelayMinutes: 10, Status: "誤點"},
	}

	out := s.Select(trains, originTaipei, destTaichung, nlu.ParsedIntent{}, delays, lateEvening, 5)

	require.Len(t, out.Primary, 1)
	c := out.Primary[0]
	assert.True(t, c.StatusKnown)
	require.NotNil(t, c.DelayMinutes)
	assert.Equal(t, 10, *c.DelayMinutes)
	assert.Equal(t, "誤點", c.Status)
	assert.Equal(t, "00:05", c.ActualDeparture)
	assert.Equal(t, "00:50", c.ActualArrival)
}

func TestSelect_MalformedIntentTimeFallsBackToNow(t *testing.T) {
	s := newTestSelector()
	trains := []TrainTimetable{
		localTrain("2503", "10:30", "12:40"),
	}
	intent := nlu.ParsedIntent{Time: "8點"}

	out := s.Select(trains, originTaipei, destTaichung, intent, nil, selNow, 5)

	require.Len(t, out.Primary, 1)
	require.NotEmpty(t, out.Warnings)
	assert.Contains(t, out.Warnings[0], "8點")
}

func TestPassEligible(t *testing.T) {
	tests := []struct {
		trainType string
		want      bool
	}{
		{"區間", true},
		{"區間快", true},
		{"復興", true},
		{"自強", false},
		{"自強(3000)", false},
		{"普悠瑪", false},
		{"太魯閣", false},
		{"莒光", false},
		{"", false},
		{"觀光列車", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PassEligible(tt.trainType), "type %q", tt.trainType)
	}
}
