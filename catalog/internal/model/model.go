package model

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Author struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Book struct {
	ISBN   string `json:"isbn" db:"isbn"`
	Title  string `json:"title" db:"title"`
	Author string `json:"author" db:"author"`
	Year   int    `json:"year" db:"release_year"`
}

// SearchFilter holds the user supplied fragments. Empty fragments do not constrain the result.
type SearchFilter struct {
	ISBN   string `query:"isbn"`
	Title  string `query:"title"`
	Author string `query:"author"`
	Page   int    `query:"page" validate:"min=0,max=100000"`
	Size   int    `query:"size" validate:"min=0,max=100"`
}

func (f SearchFilter) Empty() bool {
	return f.ISBN == "" && f.Title == "" && f.Author == ""
}

type BookView struct {
	Book   Book
	Rating Rating
}

type BookResponse struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Year         int    `json:"year"`
	ISBN         string `json:"isbn"`
	ReviewCount  Metric `json:"review_count" swaggertype:"number"`
	AverageScore Metric `json:"average_score" swaggertype:"number"`
}

func NewBookResponse(v BookView) BookResponse {
	return BookResponse{
		Title:        v.Book.Title,
		Author:       v.Book.Author,
		Year:         v.Book.Year,
		ISBN:         v.Book.ISBN,
		ReviewCount:  v.Rating.ReviewCount,
		AverageScore: v.Rating.AverageScore,
	}
}

type ImportRecord struct {
	Line   int
	ISBN   string
	Title  string
	Author string
	Year   int
}
