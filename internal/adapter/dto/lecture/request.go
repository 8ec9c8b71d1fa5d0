package lecture

// UploadForm holds the multipart fields sent with an audio upload
type UploadForm struct {
	Title     string `form:"title" validate:"omitempty,max=500"`
	Language  string `form:"language" validate:"omitempty,oneof=ru kz kk en"`
	Subject   string `form:"subject" validate:"omitempty,max=255"`
	GroupName string `form:"group_name" validate:"omitempty,max=255"`
}

// CompleteUploadRequest finishes a chunked upload
type CompleteUploadRequest struct {
	Filename  string `json:"filename" form:"filename" validate:"omitempty,max=500"`
	Title     string `json:"title" form:"title" validate:"omitempty,max=500"`
	Language  string `json:"language" form:"language" validate:"omitempty,oneof=ru kz kk en"`
	Subject   string `json:"subject" form:"subject" validate:"omitempty,max=255"`
	GroupName string `json:"group_name" form:"group_name" validate:"omitempty,max=255"`
}

// UpdateLectureRequest edits lecture metadata; omitted fields stay unchanged
type UpdateLectureRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Subject   *string `json:"subject,omitempty" validate:"omitempty,max=255"`
	GroupName *string `json:"group_name,omitempty" validate:"omitempty,max=255"`
}

// ListLecturesRequest represents query parameters for listing lectures
type ListLecturesRequest struct {
	Subject   string `query:"subject"`
	GroupName string `query:"group"`
}

// SearchLecturesRequest represents query parameters for lecture search
type SearchLecturesRequest struct {
	Query     string `query:"q"`
	Subject   string `query:"subject"`
	GroupName string `query:"group"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=200"`
}
