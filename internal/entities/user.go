package entities

type User struct {
	UserID      int    `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type Credentials struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type Registration struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

type OTPVerification struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Vehicle struct {
	ID           int    `json:"id"`
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

type VehicleRequest struct {
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}
