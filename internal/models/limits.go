package models

// Column widths of the users and events tables, in characters.
const (
	MaxNameLen         = 100
	MaxEmailLen        = 120
	MaxPhoneLen        = 20
	MaxUserLocationLen = 100
	MaxTimezoneLen     = 50

	MaxTitleLen         = 200
	MaxTimeLen          = 5 // HH:MM
	MaxEventLocationLen = 200
	MaxLabelLen         = 50 // type, priority, status
)

// MaxPasswordBytes is the longest plaintext bcrypt accepts.
const MaxPasswordBytes = 72
