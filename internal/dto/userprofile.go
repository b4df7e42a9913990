package dto

// ProfileUpdateRequest is the body of PUT /api/user/profile
type ProfileUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`      // "" => NULL
	Phone    *string `json:"phone"`    // "" => NULL
	Location *string `json:"location"` // "" => NULL
	Timezone *string `json:"timezone"` // IANA name, e.g. America/Sao_Paulo
}
