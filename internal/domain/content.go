package domain

// Blog is a blog post.
type Blog struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Excerpt     string  `json:"excerpt"`
	Content     string  `json:"content"` // HTML produced by the backend's editor
	Author      string  `json:"author"`
	ImageID     *string `json:"imageId"`
	Published   bool    `json:"published"`
	PublishedAt *string `json:"publishedAt"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (b Blog) ItemID() string { return b.ID }

// BlogInput is the create/update payload for a blog post.
type BlogInput struct {
	Title     string  `json:"title" validate:"required,min=2,max=200"`
	Slug      string  `json:"slug,omitempty" validate:"omitempty,max=220"`
	Excerpt   string  `json:"excerpt" validate:"max=500"`
	Content   string  `json:"content" validate:"required"`
	Author    string  `json:"author" validate:"max=100"`
	ImageID   *string `json:"imageId,omitempty"`
	Published bool    `json:"published"`
}

// AttachImage sets the image uploaded as part of the same submission.
func (in *BlogInput) AttachImage(id string) { in.ImageID = &id }

// Image is an uploaded image as the backend describes it.
type Image struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	AltText   string `json:"altText"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"createdAt"`
}

func (i Image) ItemID() string { return i.ID }

// ImageInput updates image metadata.
type ImageInput struct {
	AltText string `json:"altText" validate:"max=255"`
}

// ImageRef is an entry of the batch lookup response.
type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload is a file ready to be sent to the upload endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	AltText     string
}
