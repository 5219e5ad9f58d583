package model

type Image struct {
	ID            int    `json:"id"`
	BookID        int    `json:"bookId"`
	URL           string `json:"imageUrl"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SizeKb        int    `json:"sizeKb"`
	LocalFilePath string `json:"local_file_path"`
	CreatedTs     int64  `json:"createdTs"`
	UpdatedTs     int64  `json:"updatedTs"`
}

type FindImage struct {
	ID     *int    `json:"id"`
	BookID *int    `json:"bookId"`
	URL    *string `json:"imageUrl"`

	// NeedsDownload selects images with a remote URL but no local file yet.
	NeedsDownload bool `json:"-"`
}
