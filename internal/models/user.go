package models

// User is an end customer identified by phone number
type User struct {
	ID          int64   `json:"id" db:"id"`
	Username    string  `json:"username" db:"username"`
	PreferName  *string `json:"prefer_name,omitempty" db:"prefer_name"`
	PhoneNumber string  `json:"phone_number" db:"phone_number"`
}

// SendCodeRequest asks for a login code to be sent to a phone number
type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,max=20"`
}

// SendCodeResponse reports the outcome. DebugCode is populated only in
// non-production configurations.
type SendCodeResponse struct {
	Message   string `json:"message"`
	DebugCode string `json:"debug_code,omitempty"`
}

// UserLoginRequest verifies a previously sent code
type UserLoginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
}

// UserLoginResponse returns the bearer token along with the user record
type UserLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// UserRegisterRequest completes a placeholder profile after phone login
type UserRegisterRequest struct {
	Username   string  `json:"username" binding:"required,max=50"`
	PreferName *string `json:"prefer_name,omitempty"`
}

// UpdateUserAllergensRequest replaces the user's saved allergen set
type UpdateUserAllergensRequest struct {
	Allergens []string `json:"allergens" binding:"required"`
}
