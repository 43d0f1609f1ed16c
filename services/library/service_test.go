package library

import (
	"testing"
	"time"

	"github.com/librishq/libris/services/auth"
	"github.com/librishq/libris/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLibraryService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &auth.User{}, &Author{}, &Book{}, &Loan{})
	return NewService(db, cfg, nil), db
}

func createTestBook(t *testing.T, service *Service, copies int) *Book {
	t.Helper()

	author, err := service.CreateAuthor("Ursula K. Le Guin", "")
	require.NoError(t, err)

	book, err := service.CreateBook("The Dispossessed", "978-0061054884", author.ID, 1974, copies)
	require.NoError(t, err)
	return book
}

func TestService_Authors(t *testing.T) {
	service, _ := setupLibraryService(t)

	t.Run("create and get", func(t *testing.T) {
		created, err := service.CreateAuthor("Stanislaw Lem", "Polish writer")
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		found, err := service.GetAuthor(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Stanislaw Lem", found.Name)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := service.GetAuthor(9999)
		assert.ErrorIs(t, err, ErrAuthorNotFound)
	})

	t.Run("update", func(t *testing.T) {
		created, err := service.CreateAuthor("Old Name", "")
		require.NoError(t, err)

		updated, err := service.UpdateAuthor(created.ID, "New Name", "bio")
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, "bio", updated.Bio)
	})

	t.Run("delete with books fails", func(t *testing.T) {
		author, err := service.CreateAuthor("Busy Author", "")
		require.NoError(t, err)
		_, err = service.CreateBook("A Book", "111-1", author.ID, 2000, 1)
		require.NoError(t, err)

		err = service.DeleteAuthor(author.ID)
		assert.ErrorIs(t, err, ErrAuthorHasBooks)
	})

	t.Run("list paginates", func(t *testing.T) {
		authors, total, err := service.ListAuthors(1, 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(authors), 2)
		assert.GreaterOrEqual(t, total, int64(3))
	})
}

func TestService_Books(t *testing.T) {
	service, _ := setupLibraryService(t)

	t.Run("create requires existing author", func(t *testing.T) {
		_, err := service.CreateBook("Orphan", "222-2", 9999, 2000, 1)
		assert.ErrorIs(t, err, ErrAuthorNotFound)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		book := createTestBook(t, service, 2)

		_, err := service.CreateBook("Another Title", book.ISBN, book.AuthorID, 2000, 1)
		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})

	t.Run("get preloads author", func(t *testing.T) {
		author, err := service.CreateAuthor("Iain Banks", "")
		require.NoError(t, err)
		created, err := service.CreateBook("The Player of Games", "978-0316005401", author.ID, 1988, 3)
		require.NoError(t, err)

		book, err := service.GetBook(created.ID)
		require.NoError(t, err)
		require.NotNil(t, book.Author)
		assert.Equal(t, "Iain Banks", book.Author.Name)
		assert.Equal(t, 3, book.AvailableCopies)
	})

	t.Run("update adjusts availability by delta", func(t *testing.T) {
		author, err := service.CreateAuthor("Someone", "")
		require.NoError(t, err)
		created, err := service.CreateBook("Copies", "333-3", author.ID, 2000, 2)
		require.NoError(t, err)

		updated, err := service.UpdateBook(created.ID, "Copies", 2000, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.TotalCopies)
		assert.Equal(t, 5, updated.AvailableCopies)
	})

	t.Run("zero copies rejected", func(t *testing.T) {
		author, err := service.CreateAuthor("Nobody", "")
		require.NoError(t, err)

		_, err = service.CreateBook("No Copies", "444-4", author.ID, 2000, 0)
		assert.ErrorIs(t, err, ErrInvalidCopiesCount)
	})
}

func TestService_Loans(t *testing.T) {
	service, db := setupLibraryService(t)
	book := createTestBook(t, service, 1)

	t.Run("borrow decrements availability", func(t *testing.T) {
		loan, err := service.Borrow(1, book.ID)

		require.NoError(t, err)
		assert.Equal(t, uint(1), loan.UserID)
		assert.Nil(t, loan.ReturnedAt)
		assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), loan.DueAt, time.Minute)

		stored, err := service.GetBook(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.AvailableCopies)
	})

	t.Run("no copies left", func(t *testing.T) {
		_, err := service.Borrow(2, book.ID)
		assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	})

	t.Run("return restores availability", func(t *testing.T) {
		var loan Loan
		require.NoError(t, db.Where("user_id = ? AND book_id = ?", 1, book.ID).First(&loan).Error)

		returned, err := service.Return(1, loan.ID)

		require.NoError(t, err)
		assert.NotNil(t, returned.ReturnedAt)

		stored, err := service.GetBook(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.AvailableCopies)
	})

	t.Run("double return fails", func(t *testing.T) {
		var loan Loan
		require.NoError(t, db.Where("user_id = ? AND book_id = ?", 1, book.ID).First(&loan).Error)

		_, err := service.Return(1, loan.ID)
		assert.ErrorIs(t, err, ErrLoanAlreadyClosed)
	})

	t.Run("only the borrower can return", func(t *testing.T) {
		loan, err := service.Borrow(3, book.ID)
		require.NoError(t, err)

		_, err = service.Return(4, loan.ID)
		assert.ErrorIs(t, err, ErrLoanNotFound)
	})

	t.Run("list user loans", func(t *testing.T) {
		loans, err := service.ListUserLoans(1)
		require.NoError(t, err)
		require.Len(t, loans, 1)
		require.NotNil(t, loans[0].Book)
		assert.Equal(t, book.ID, loans[0].Book.ID)
	})
}

func TestService_OverdueAndStats(t *testing.T) {
	service, db := setupLibraryService(t)
	book := createTestBook(t, service, 5)

	loan, err := service.Borrow(1, book.ID)
	require.NoError(t, err)
	_, err = service.Borrow(2, book.ID)
	require.NoError(t, err)

	// push one loan past its due date
	require.NoError(t, db.Model(&Loan{}).
		Where("id = ?", loan.ID).
		Update("due_at", time.Now().Add(-48*time.Hour)).Error)

	t.Run("overdue loans", func(t *testing.T) {
		overdue, err := service.ListOverdueLoans()
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, loan.ID, overdue[0].ID)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := service.GetStats()

		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TotalBooks)
		assert.Equal(t, int64(1), stats.TotalAuthors)
		assert.Equal(t, int64(2), stats.ActiveLoans)
		assert.Equal(t, int64(1), stats.OverdueLoans)
		require.NotEmpty(t, stats.TopBooks)
		assert.Equal(t, book.ID, stats.TopBooks[0].BookID)
		assert.Equal(t, int64(2), stats.TopBooks[0].LoanCount)
	})
}
