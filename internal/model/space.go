package model

import "time"

// SpaceType classifies a bookable space.  Programs are staffed events
// (workshops, lectures) and are the only spaces that accept feedback;
// rooms and study rooms are plain bookable intervals.
type SpaceType string

const (
	SpaceProgram   SpaceType = "program"
	SpaceRoom      SpaceType = "room"
	SpaceStudyRoom SpaceType = "studyroom"
)

// ValidSpaceType reports whether t is one of the known space types.
func ValidSpaceType(t SpaceType) bool {
	switch t {
	case SpaceProgram, SpaceRoom, SpaceStudyRoom:
		return true
	}
	return false
}

// Space is a bookable library space.  The lifecycle engine treats spaces
// as immutable: only the admin CRUD endpoints mutate them, and the engine
// reads them solely to evaluate capacity.
//
// Fields:
//
//	ID          – primary key (UUID string).
//	Name        – display name.
//	Type        – program | room | studyroom.
//	Capacity    – maximum concurrent reservations per slot (positive).
//	Description – free-form description.
//	Location    – floor/room designation.
//	ImageURL    – reference to a display image.
//	CreatedAt   – timestamp of creation.
//	UpdatedAt   – timestamp of last update.
type Space struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        SpaceType `json:"type"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
