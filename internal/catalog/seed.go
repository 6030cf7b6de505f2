package catalog

import "ms-booking/internal/models"

// SeedRoute is a timetable row keyed by city name.
type SeedRoute struct {
	From, To           string
	Mode               models.Mode
	Departure, Arrival string
	Standard, Business int64
	Seats              int
}

var seedCities = []string{
	"Newcastle", "Bristol", "Glasgow", "Manchester", "Portsmouth", "Dundee",
	"Edinburgh", "Cardiff", "Southampton", "Birmingham", "Aberdeen", "London",
}

var seedRoutes = []SeedRoute{
	{"Newcastle", "Bristol", models.ModeAir, "17:45", "19:00", 90, 180, 130},
	{"Bristol", "Glasgow", models.ModeAir, "08:40", "09:45", 110, 220, 130},
	{"Glasgow", "Newcastle", models.ModeAir, "14:30", "15:45", 110, 220, 130},
	{"Newcastle", "Manchester", models.ModeAir, "16:15", "17:05", 80, 160, 130},
	{"Manchester", "Bristol", models.ModeAir, "18:25", "19:30", 80, 160, 130},
	{"Bristol", "Manchester", models.ModeAir, "06:20", "07:20", 80, 160, 130},
	{"Portsmouth", "Dundee", models.ModeAir, "12:00", "14:00", 120, 240, 130},
	{"Dundee", "Portsmouth", models.ModeAir, "10:00", "12:00", 120, 240, 130},
	{"Edinburgh", "Cardiff", models.ModeAir, "18:30", "20:00", 90, 180, 130},
	{"Southampton", "Manchester", models.ModeAir, "12:00", "13:30", 90, 180, 130},
	{"Manchester", "Southampton", models.ModeAir, "19:00", "20:30", 90, 180, 130},
	{"Birmingham", "Newcastle", models.ModeAir, "17:00", "17:45", 90, 180, 130},
	{"Newcastle", "Birmingham", models.ModeAir, "07:00", "07:45", 90, 180, 130},
	{"Aberdeen", "Portsmouth", models.ModeAir, "08:00", "09:30", 100, 200, 130},

	{"Newcastle", "Bristol", models.ModeCoach, "17:45", "03:45", 23, 46, 45},
	{"Bristol", "Glasgow", models.ModeCoach, "08:40", "17:20", 28, 56, 45},
	{"Glasgow", "Newcastle", models.ModeCoach, "14:30", "06:30", 28, 56, 45},
	{"Newcastle", "Manchester", models.ModeCoach, "16:15", "00:35", 23, 46, 45},
	{"Manchester", "Bristol", models.ModeCoach, "18:25", "06:05", 20, 40, 45},
	{"Bristol", "Manchester", models.ModeCoach, "06:20", "14:20", 20, 40, 45},
	{"Edinburgh", "Cardiff", models.ModeCoach, "18:30", "10:00", 23, 46, 45},
	{"Southampton", "Manchester", models.ModeCoach, "12:00", "04:00", 23, 46, 45},
	{"Manchester", "Southampton", models.ModeCoach, "19:00", "11:00", 23, 46, 45},
	{"Birmingham", "Newcastle", models.ModeCoach, "17:00", "01:00", 23, 46, 45},
	{"Newcastle", "Birmingham", models.ModeCoach, "07:00", "15:00", 23, 46, 45},

	{"Bristol", "Newcastle", models.ModeTrain, "12:30", "15:30", 200, 400, 250},
	{"Newcastle", "Bristol", models.ModeTrain, "17:45", "23:00", 225, 450, 250},
	{"Bristol", "Glasgow", models.ModeTrain, "08:40", "14:05", 275, 550, 250},
	{"Glasgow", "Newcastle", models.ModeTrain, "14:30", "19:45", 250, 500, 250},
	{"Newcastle", "Manchester", models.ModeTrain, "16:15", "21:20", 250, 500, 250},
	{"Manchester", "Bristol", models.ModeTrain, "18:25", "23:55", 200, 400, 250},
	{"Bristol", "Manchester", models.ModeTrain, "06:20", "11:40", 200, 400, 250},
	{"Edinburgh", "Cardiff", models.ModeTrain, "18:30", "23:30", 225, 450, 250},
	{"Southampton", "Manchester", models.ModeTrain, "12:00", "17:30", 225, 450, 250},
	{"Manchester", "Southampton", models.ModeTrain, "19:00", "00:30", 225, 450, 250},
	{"Birmingham", "Newcastle", models.ModeTrain, "17:00", "22:15", 250, 500, 250},
	{"Newcastle", "Birmingham", models.ModeTrain, "07:00", "12:15", 250, 500, 250},
}
