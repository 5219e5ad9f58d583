package model //import "github.com/inkdesk/inkdesk/model"

type Author struct {
	ID             int    `json:"id"`
	UserID         *int   `json:"userId"`
	Name           string `json:"author_name"`
	ImageURL       string `json:"author_image_url"`
	BirthDate      string `json:"birth_date"`
	DeathDate      string `json:"death_date"`
	Website        string `json:"website"`
	Bio            string `json:"bio"`
	LocalImagePath string `json:"local_image_path"`
}

type FindAuthor struct {
	ID   *int    `json:"id"`
	Name *string `json:"author_name"`

	// NeedsImage selects authors with a remote image URL but no local file yet.
	NeedsImage bool `json:"-"`
}

type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
