package model

// Specialties is the closed set of surgical services accepted at the API
// boundary. Free-text services from old data are rejected on write, not
// fuzzily coerced.
var Specialties = []string{
	"Orthopedics", "General", "Cardiology", "Urology", "Thoracic",
	"Neurology", "Otology", "Vascular", "Podiatry", "Ophthalmology",
}

// DoctorsBySpecialty is the static roster served to the scheduling UI and
// used by the doctor backfill.
var DoctorsBySpecialty = map[string][]string{
	"Orthopedics":   {"Dr. Bones", "Dr. Smith", "Dr. Joint"},
	"General":       {"Dr. Lee", "Dr. White", "Dr. Grey"},
	"Cardiology":    {"Dr. Heart", "Dr. Pulse", "Dr. Valve"},
	"Urology":       {"Dr. Stream", "Dr. Stone"},
	"Thoracic":      {"Dr. Lung", "Dr. Ribs"},
	"Neurology":     {"Dr. Brain", "Dr. Nerve"},
	"Otology":       {"Dr. Ear", "Dr. Sound"},
	"Vascular":      {"Dr. Vein", "Dr. Flow"},
	"Podiatry":      {"Dr. Foot", "Dr. Heel"},
	"Ophthalmology": {"Dr. Eye", "Dr. Sight"},
}

func IsValidSpecialty(s string) bool {
	for _, v := range Specialties {
		if v == s {
			return true
		}
	}
	return false
}
