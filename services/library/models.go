package library

import (
	"time"
)

type Author struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null;index"`
	Bio       string    `json:"bio" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Author) TableName() string {
	return "authors"
}

type Book struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"size:255;not null;index"`
	ISBN            string    `json:"isbn" gorm:"uniqueIndex;size:20;not null"`
	AuthorID        uint      `json:"author_id" gorm:"not null;index"`
	Author          *Author   `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	PublishedYear   int       `json:"published_year"`
	TotalCopies     int       `json:"total_copies" gorm:"not null;default:1"`
	AvailableCopies int       `json:"available_copies" gorm:"not null;default:1"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// Loan tracks a borrowed copy. ReturnedAt is nil while the loan is
// active.
type Loan struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;index"`
	BookID     uint       `json:"book_id" gorm:"not null;index"`
	Book       *Book      `json:"book,omitempty" gorm:"foreignKey:BookID"`
	BorrowedAt time.Time  `json:"borrowed_at" gorm:"not null"`
	DueAt      time.Time  `json:"due_at" gorm:"not null;index"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

type Stats struct {
	TotalBooks   int64     `json:"total_books"`
	TotalAuthors int64     `json:"total_authors"`
	TotalUsers   int64     `json:"total_users"`
	ActiveLoans  int64     `json:"active_loans"`
	OverdueLoans int64     `json:"overdue_loans"`
	TopBooks     []TopBook `json:"top_books"`
}

type TopBook struct {
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	LoanCount int64  `json:"loan_count"`
}
