// internal/models/profile.go
package models

// PatientProfile holds the labeled fields parsed from a free-text profile.
// Empty strings mean the label was absent.
type PatientProfile struct {
	Raw            string `json:"raw"`
	Name           string `json:"name,omitempty"`
	Location       string `json:"location,omitempty"`
	Language       string `json:"language,omitempty"`
	Category       string `json:"category,omitempty"`
	PatientHistory string `json:"patient_history,omitempty"`
}
