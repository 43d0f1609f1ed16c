package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/librishq/libris/services/library"

	jwtmw "github.com/librishq/libris/middleware/jwt"
)

type LibraryHandler struct {
	libraryService *library.Service
}

func NewLibraryHandler(libraryService *library.Service) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

type AuthorRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Bio  string `json:"bio"`
}

type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	ISBN          string `json:"isbn" validate:"required,max=20"`
	AuthorID      uint   `json:"author_id" validate:"required"`
	PublishedYear int    `json:"published_year"`
	TotalCopies   int    `json:"total_copies" validate:"required,min=1"`
}

type UpdateBookRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	PublishedYear int    `json:"published_year"`
	TotalCopies   int    `json:"total_copies" validate:"required,min=1"`
}

type BorrowRequest struct {
	BookID uint `json:"book_id" validate:"required"`
}

func (h *LibraryHandler) CreateAuthor(c echo.Context) error {
	var req AuthorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	author, err := h.libraryService.CreateAuthor(req.Name, req.Bio)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create author")
	}

	return c.JSON(http.StatusCreated, author)
}

func (h *LibraryHandler) GetAuthor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	author, err := h.libraryService.GetAuthor(id)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, author)
}

func (h *LibraryHandler) ListAuthors(c echo.Context) error {
	page, pageSize := pagination(c)

	authors, total, err := h.libraryService.ListAuthors(page, pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list authors")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"authors": authors,
		"total":   total,
	})
}

func (h *LibraryHandler) UpdateAuthor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req AuthorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	author, err := h.libraryService.UpdateAuthor(id, req.Name, req.Bio)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, author)
}

func (h *LibraryHandler) DeleteAuthor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.libraryService.DeleteAuthor(id); err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "author deleted"})
}

func (h *LibraryHandler) CreateBook(c echo.Context) error {
	var req CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	book, err := h.libraryService.CreateBook(req.Title, req.ISBN, req.AuthorID, req.PublishedYear, req.TotalCopies)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusCreated, book)
}

func (h *LibraryHandler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	book, err := h.libraryService.GetBook(id)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, book)
}

func (h *LibraryHandler) ListBooks(c echo.Context) error {
	page, pageSize := pagination(c)

	books, total, err := h.libraryService.ListBooks(page, pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list books")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"books": books,
		"total": total,
	})
}

func (h *LibraryHandler) UpdateBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	book, err := h.libraryService.UpdateBook(id, req.Title, req.PublishedYear, req.TotalCopies)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, book)
}

func (h *LibraryHandler) DeleteBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.libraryService.DeleteBook(id); err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "book deleted"})
}

func (h *LibraryHandler) Borrow(c echo.Context) error {
	var req BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	loan, err := h.libraryService.Borrow(jwtmw.GetUserID(c), req.BookID)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusCreated, loan)
}

func (h *LibraryHandler) Return(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	loan, err := h.libraryService.Return(jwtmw.GetUserID(c), id)
	if err != nil {
		return mapLibraryError(err)
	}

	return c.JSON(http.StatusOK, loan)
}

func (h *LibraryHandler) MyLoans(c echo.Context) error {
	loans, err := h.libraryService.ListUserLoans(jwtmw.GetUserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list loans")
	}

	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *LibraryHandler) OverdueLoans(c echo.Context) error {
	loans, err := h.libraryService.ListOverdueLoans()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list overdue loans")
	}

	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *LibraryHandler) Stats(c echo.Context) error {
	stats, err := h.libraryService.GetStats()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute stats")
	}

	return c.JSON(http.StatusOK, stats)
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func pagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	return page, pageSize
}

func mapLibraryError(err error) error {
	switch {
	case errors.Is(err, library.ErrAuthorNotFound),
		errors.Is(err, library.ErrBookNotFound),
		errors.Is(err, library.ErrLoanNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, library.ErrDuplicateISBN),
		errors.Is(err, library.ErrNoCopiesAvailable),
		errors.Is(err, library.ErrLoanAlreadyClosed),
		errors.Is(err, library.ErrAuthorHasBooks),
		errors.Is(err, library.ErrInvalidCopiesCount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
