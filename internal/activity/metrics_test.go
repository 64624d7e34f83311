package activity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pacelink.app/relay/internal/activity"
)

func hr(v float64) *float64 { return &v }

var _ = Describe("Normalize", func() {
	It("computes pace for runs", func() {
		n := activity.Normalize(activity.Raw{
			ID: 1, Name: "Morning Run", SportType: "Run",
			Distance: 10000, MovingTime: 3000, TotalElevationGain: 42.34,
		})
		Expect(n.Sport).To(Equal("Run"))
		Expect(n.DistanceKM).To(Equal(10.0))
		Expect(n.MovingTimeMin).To(Equal(50.0))
		Expect(n.ElevGainM).To(Equal(42.3))
		Expect(n.PaceMinPerKM).To(Equal("5:00"))
		Expect(n.AvgSpeedKMH).To(BeNil())
		Expect(n.Summary).To(Equal("10.0 km • 50.0 min • 5:00/km"))
	})

	It("computes speed for rides", func() {
		n := activity.Normalize(activity.Raw{SportType: "GravelRide", Distance: 40000, MovingTime: 5400})
		Expect(*n.AvgSpeedKMH).To(Equal(26.7))
		Expect(n.Summary).To(Equal("40.0 km • 90.0 min • 26.7 km/h"))
	})

	It("computes speed for rowing", func() {
		n := activity.Normalize(activity.Raw{SportType: "Kayaking", Distance: 6000, MovingTime: 3600})
		Expect(*n.AvgSpeedKMH).To(Equal(6.0))
	})

	It("computes pace per 100m for swims", func() {
		n := activity.Normalize(activity.Raw{SportType: "Swim", Distance: 1500, MovingTime: 1800})
		Expect(n.PacePer100M).To(Equal("2:00"))
		Expect(n.Summary).To(Equal("1500 m • 30.0 min • 2:00/100m"))
	})

	It("falls back to time and heart rate for other sports", func() {
		n := activity.Normalize(activity.Raw{SportType: "WeightTraining", MovingTime: 2700, AverageHeartrate: hr(132.46)})
		Expect(n.Summary).To(Equal("45.0 min • 132.5 bpm"))
	})

	It("uses type when sport_type is absent, then Workout", func() {
		Expect(activity.Normalize(activity.Raw{Type: "Ride"}).Sport).To(Equal("Ride"))
		Expect(activity.Normalize(activity.Raw{}).Sport).To(Equal("Workout"))
	})

	It("does not compute pace without distance", func() {
		n := activity.Normalize(activity.Raw{SportType: "Run", MovingTime: 600})
		Expect(n.PaceMinPerKM).To(BeEmpty())
		Expect(n.Summary).To(Equal("10.0 min"))
	})
})

var _ = Describe("SecondsToMMSS", func() {
	It("rounds before splitting minutes", func() {
		Expect(activity.SecondsToMMSS(359.6)).To(Equal("6:00"))
		Expect(activity.SecondsToMMSS(305.2)).To(Equal("5:05"))
	})
})

var _ = Describe("MMSSToMinutes", func() {
	It("parses m:ss", func() {
		v, ok := activity.MMSSToMinutes("5:30")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(5.5))
	})

	It("rejects other input", func() {
		_, ok := activity.MMSSToMinutes("")
		Expect(ok).To(BeFalse())
		_, ok = activity.MMSSToMinutes("x:y")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Analyze", func() {
	It("builds the notification line", func() {
		a := activity.Analyze(activity.Raw{
			ID: 77, Name: "Morning Run", SportType: "Run",
			Distance: 10000, MovingTime: 3000, AverageHeartrate: hr(150),
			StartDate: "2024-07-24T06:00:00Z",
		})
		Expect(a.ActivityID).To(Equal(int64(77)))
		Expect(a.Content).To(Equal("Morning Run • Run • 10.0 km • 50.0 min • 5:00/km • 150.0 bpm"))
		Expect(*a.Activity.PaceMinPerKM).To(Equal(5.0))
		Expect(a.Activity.StartDateUTC).To(Equal("2024-07-24T06:00:00Z"))
		Expect(a.Prompt).ToNot(BeEmpty())
	})

	It("names unnamed activities", func() {
		a := activity.Analyze(activity.Raw{SportType: "Ride", Distance: 20000, MovingTime: 3600})
		Expect(a.Content).To(Equal("Activity • Ride • 20.0 km • 60.0 min • 20.0 km/h"))
	})
})
