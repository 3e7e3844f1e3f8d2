package scheduling

import (
	"sort"
	"time"

	"github.com/noah-isme/scolendar-api/internal/models"
)

// DayLayout formats day bucket labels as dd-mm-yyyy.
const DayLayout = "02-01-2006"

// Display enriches an occupancy row with its derived display fields.
func Display(d models.OccupancyDetail) models.DisplayOccupancy {
	out := models.DisplayOccupancy{
		ID:            d.ID,
		ClassroomID:   d.ClassroomID,
		ClassroomName: deref(d.ClassroomName),
		GroupNumber:   d.GroupNumber,
		GroupName:     d.Group().Label(),
		SubjectID:     deref(d.SubjectID),
		SubjectName:   deref(d.SubjectName),
		ClassID:       deref(d.ClassID),
		ClassName:     deref(d.ClassName),
		TeacherID:     deref(d.TeacherID),
		Start:         d.Start.Unix(),
		End:           d.End().Unix(),
		OccupancyType: d.OccupancyType,
		Name:          d.Name,
	}
	if d.TeacherFirstName != nil || d.TeacherLastName != nil {
		out.TeacherName = models.Teacher{FirstName: deref(d.TeacherFirstName), LastName: deref(d.TeacherLastName)}.FullName()
	}
	return out
}

// BucketByDay groups rows by the calendar day of their start in loc. Days are
// ascending and only present when they hold at least one row; rows within a
// day are ordered by start then id. perDayCap > 0 truncates each day.
func BucketByDay(rows []models.OccupancyDetail, loc *time.Location, perDayCap int) []models.DayBucket {
	buckets := make([]models.DayBucket, 0)
	if len(rows) == 0 {
		return buckets
	}
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]models.OccupancyDetail, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessOccupancy(sorted[i].Occupancy, sorted[j].Occupancy)
	})

	for _, row := range sorted {
		label := row.Start.In(loc).Format(DayLayout)
		last := len(buckets) - 1
		if last < 0 || buckets[last].Date != label {
			buckets = append(buckets, models.DayBucket{Date: label, Occupancies: []models.DisplayOccupancy{}})
			last++
		}
		if perDayCap > 0 && len(buckets[last].Occupancies) >= perDayCap {
			continue
		}
		buckets[last].Occupancies = append(buckets[last].Occupancies, Display(row))
	}
	return buckets
}
