package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/auth"
	"github.com/librishq/libris/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAuthorNotFound     = errors.New("author not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrDuplicateISBN      = errors.New("a book with this ISBN already exists")
	ErrNoCopiesAvailable  = errors.New("no copies available")
	ErrLoanAlreadyClosed  = errors.New("loan has already been returned")
	ErrAuthorHasBooks     = errors.New("author still has books in the catalogue")
	ErrInvalidCopiesCount = errors.New("total copies must be at least 1")
)

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) CreateAuthor(name, bio string) (*Author, error) {
	author := Author{Name: name, Bio: bio}
	if err := s.db.Create(&author).Error; err != nil {
		s.logger.Error("failed to create author", zap.Error(err))
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	s.logger.Info("author created", zap.Uint("author_id", author.ID), zap.String("name", author.Name))
	return &author, nil
}

func (s *Service) GetAuthor(id uint) (*Author, error) {
	var author Author
	if err := s.db.First(&author, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &author, nil
}

func (s *Service) ListAuthors(page, pageSize int) ([]Author, int64, error) {
	var authors []Author
	var total int64

	if err := s.db.Model(&Author{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	offset, limit := paginate(page, pageSize)
	if err := s.db.Order("name").Offset(offset).Limit(limit).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	return authors, total, nil
}

func (s *Service) UpdateAuthor(id uint, name, bio string) (*Author, error) {
	author, err := s.GetAuthor(id)
	if err != nil {
		return nil, err
	}

	author.Name = name
	author.Bio = bio
	if err := s.db.Save(author).Error; err != nil {
		return nil, fmt.Errorf("failed to update author: %w", err)
	}

	return author, nil
}

func (s *Service) DeleteAuthor(id uint) error {
	var count int64
	if err := s.db.Model(&Book{}).Where("author_id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return ErrAuthorHasBooks
	}

	result := s.db.Delete(&Author{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete author: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAuthorNotFound
	}

	s.logger.Info("author deleted", zap.Uint("author_id", id))
	return nil
}

func (s *Service) CreateBook(title, isbn string, authorID uint, publishedYear, totalCopies int) (*Book, error) {
	if totalCopies < 1 {
		return nil, ErrInvalidCopiesCount
	}

	if _, err := s.GetAuthor(authorID); err != nil {
		return nil, err
	}

	var existing Book
	if err := s.db.Where("isbn = ?", isbn).First(&existing).Error; err == nil {
		return nil, ErrDuplicateISBN
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	book := Book{
		Title:           title,
		ISBN:            isbn,
		AuthorID:        authorID,
		PublishedYear:   publishedYear,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}

	if err := s.db.Create(&book).Error; err != nil {
		s.logger.Error("failed to create book", zap.Error(err))
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("book created",
		zap.Uint("book_id", book.ID),
		zap.String("title", book.Title),
		zap.String("isbn", book.ISBN))
	return &book, nil
}

func (s *Service) GetBook(id uint) (*Book, error) {
	var book Book
	if err := s.db.Preload("Author").First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &book, nil
}

func (s *Service) ListBooks(page, pageSize int) ([]Book, int64, error) {
	var books []Book
	var total int64

	if err := s.db.Model(&Book{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	offset, limit := paginate(page, pageSize)
	if err := s.db.Preload("Author").Order("title").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	return books, total, nil
}

// UpdateBook adjusts metadata and copy counts. Available copies track
// the delta so outstanding loans are preserved.
func (s *Service) UpdateBook(id uint, title string, publishedYear, totalCopies int) (*Book, error) {
	if totalCopies < 1 {
		return nil, ErrInvalidCopiesCount
	}

	book, err := s.GetBook(id)
	if err != nil {
		return nil, err
	}

	delta := totalCopies - book.TotalCopies
	if book.AvailableCopies+delta < 0 {
		return nil, ErrInvalidCopiesCount
	}

	book.Title = title
	book.PublishedYear = publishedYear
	book.TotalCopies = totalCopies
	book.AvailableCopies += delta

	if err := s.db.Save(book).Error; err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

func (s *Service) DeleteBook(id uint) error {
	result := s.db.Delete(&Book{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}

	s.logger.Info("book deleted", zap.Uint("book_id", id))
	return nil
}

// Borrow creates a loan and decrements availability inside one
// transaction. The guarded UPDATE keeps two concurrent borrows of the
// last copy from both succeeding.
func (s *Service) Borrow(userID, bookID uint) (*Loan, error) {
	var loan Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		result := tx.Model(&Book{}).
			Where("id = ? AND available_copies > 0", bookID).
			Update("available_copies", gorm.Expr("available_copies - 1"))
		if result.Error != nil {
			return fmt.Errorf("database error: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNoCopiesAvailable
		}

		now := time.Now()
		loan = Loan{
			UserID:     userID,
			BookID:     bookID,
			BorrowedAt: now,
			DueAt:      now.Add(s.config.Library.LoanPeriod.Duration()),
		}
		return tx.Create(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book borrowed",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
		zap.Time("due_at", loan.DueAt))
	return &loan, nil
}

// Return closes a loan and restores the copy. Only the borrowing user
// may return their loan; returning twice fails.
func (s *Service) Return(userID, loanID uint) (*Loan, error) {
	var loan Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if loan.ReturnedAt != nil {
			return ErrLoanAlreadyClosed
		}

		now := time.Now()
		loan.ReturnedAt = &now
		if err := tx.Save(&loan).Error; err != nil {
			return fmt.Errorf("failed to close loan: %w", err)
		}

		return tx.Model(&Book{}).
			Where("id = ?", loan.BookID).
			Update("available_copies", gorm.Expr("available_copies + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book returned", zap.Uint("user_id", userID), zap.Uint("loan_id", loanID))
	return &loan, nil
}

func (s *Service) ListUserLoans(userID uint) ([]Loan, error) {
	var loans []Loan
	err := s.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("borrowed_at DESC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return loans, nil
}

func (s *Service) ListOverdueLoans() ([]Loan, error) {
	var loans []Loan
	err := s.db.Preload("Book").
		Where("returned_at IS NULL AND due_at < ?", time.Now()).
		Order("due_at").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return loans, nil
}

func (s *Service) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := s.db.Model(&Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Model(&Author{}).Count(&stats.TotalAuthors).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Model(&auth.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Model(&Loan{}).Where("returned_at IS NULL").Count(&stats.ActiveLoans).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.db.Model(&Loan{}).
		Where("returned_at IS NULL AND due_at < ?", time.Now()).
		Count(&stats.OverdueLoans).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	err := s.db.Model(&Loan{}).
		Select("loans.book_id AS book_id, books.title AS title, COUNT(loans.id) AS loan_count").
		Joins("JOIN books ON books.id = loans.book_id").
		Group("loans.book_id, books.title").
		Order("loan_count DESC").
		Limit(5).
		Scan(&stats.TopBooks).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return stats, nil
}

func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
