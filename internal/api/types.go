// Package api holds the ArtZip wire contract shared by the HTTP handlers
// and the Go client.
package api

// Envelope wraps every response body.
type Envelope[T any] struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Page is one page of a collection. PageNumber is zero-indexed.
type Page[T any] struct {
	Content          []T   `json:"content"`
	NumberOfElements int   `json:"numberOfElements"`
	Offset           int   `json:"offset"`
	PageNumber       int   `json:"pageNumber"`
	PageSize         int   `json:"pageSize"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
}

// NewPage fills the derived fields of a page.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:          content,
		NumberOfElements: len(content),
		Offset:           page * size,
		PageNumber:       page,
		PageSize:         size,
		TotalElements:    total,
		TotalPages:       totalPages,
	}
}

type Photo struct {
	PhotoID int64  `json:"photoId"`
	Path    string `json:"path"`
}

type UserSummary struct {
	UserID       int64  `json:"userId"`
	ProfileImage string `json:"profileImage"`
	Nickname     string `json:"nickname"`
}

type ExhibitionSummary struct {
	ExhibitionID int64  `json:"exhibitionId"`
	Name         string `json:"name"`
	StartDate    string `json:"startDate"`
	Thumbnail    string `json:"thumbnail"`
}

type Review struct {
	ReviewID     int64             `json:"reviewId"`
	User         UserSummary       `json:"user"`
	Exhibition   ExhibitionSummary `json:"exhibition"`
	Date         string            `json:"date"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
	IsEdited     bool              `json:"isEdited"`
	IsLiked      bool              `json:"isLiked"`
	IsPublic     bool              `json:"isPublic"`
	LikeCount    int64             `json:"likeCount"`
	CommentCount int64             `json:"commentCount"`
	Photos       []Photo           `json:"photos"`
}

type Exhibition struct {
	ExhibitionID int64  `json:"exhibitionId"`
	Name         string `json:"name"`
	Thumbnail    string `json:"thumbnail"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	LikeCount    int64  `json:"likeCount"`
	ReviewCount  int64  `json:"reviewCount"`
	IsLiked      bool   `json:"isLiked"`
}

type UserInfo struct {
	UserID              int64  `json:"userId"`
	ProfileImage        string `json:"profileImage"`
	Nickname            string `json:"nickname"`
	Email               string `json:"email"`
	ReviewCount         int64  `json:"reviewCount"`
	ReviewLikeCount     int64  `json:"reviewLikeCount"`
	ExhibitionLikeCount int64  `json:"exhibitionLikeCount"`
}

// ReviewPayload is the JSON "data" part of a review create/update
// multipart submission. DeletedPhotos is only sent in update mode.
type ReviewPayload struct {
	ExhibitionID  int64   `json:"exhibitionId" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02,notfuture"`
	Title         string  `json:"title" validate:"required,max=30"`
	Content       string  `json:"content" validate:"required,max=1000"`
	IsPublic      bool    `json:"isPublic"`
	DeletedPhotos []int64 `json:"deletedPhotos,omitempty"`
}

type ReviewID struct {
	ReviewID int64 `json:"reviewId"`
}

type ReviewLikeState struct {
	ReviewID  int64 `json:"reviewId"`
	LikeCount int64 `json:"likeCount"`
	IsLiked   bool  `json:"isLiked"`
}

type ExhibitionLikeState struct {
	ExhibitionID int64 `json:"exhibitionId"`
	LikeCount    int64 `json:"likeCount"`
	IsLiked      bool  `json:"isLiked"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nickname string `json:"nickname" validate:"required,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Token struct {
	AccessToken string `json:"accessToken"`
	UserID      int64  `json:"userId"`
}

// Multipart field names of a review submission.
const (
	FormFieldData  = "data"
	FormFieldFiles = "files"
)

// Review sort orders accepted by the collection endpoint.
const (
	SortCreatedAtDesc = "createdAt,desc"
	SortLikeCountDesc = "likeCount,desc"
)
