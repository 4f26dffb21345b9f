// internal/workers/telehealth/parse-profile/models.go
package parseprofile

import "telehealth-agent/internal/models"

type Input struct {
	Profile string `json:"profile"`
}

type Output struct {
	PatientProfile models.PatientProfile `json:"patientProfile"`
}
