package dto

type EmergencyContactRequest struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number"`
	Relationship string `json:"relationship"`
}
