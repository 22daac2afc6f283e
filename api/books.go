package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookflipfinder/models"
	"bookflipfinder/storage"
)

type bookCreateRequest struct {
	ISBN            string `json:"isbn" binding:"required"`
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author" binding:"required"`
	Publisher       string `json:"publisher"`
	PublicationYear int    `json:"publication_year"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	Pages           int    `json:"pages"`
	Weight          string `json:"weight"`
	Dimensions      string `json:"dimensions"`
}

type bookUpdateRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	Publisher       *string `json:"publisher"`
	PublicationYear *int    `json:"publication_year"`
	Category        *string `json:"category"`
	Description     *string `json:"description"`
	ImageURL        *string `json:"image_url"`
	Pages           *int    `json:"pages"`
	Weight          *string `json:"weight"`
	Dimensions      *string `json:"dimensions"`
	IsActive        *bool   `json:"is_active"`
}

func (s *Server) handleCreateBook(c *gin.Context) {
	var req bookCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.ISBN) != 10 && len(req.ISBN) != 13 {
		badRequest(c, "isbn must be 10 or 13 characters")
		return
	}

	book := &models.Book{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Author:          req.Author,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Category:        req.Category,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		Pages:           req.Pages,
		Weight:          req.Weight,
		Dimensions:      req.Dimensions,
		IsActive:        true,
	}
	if err := s.books.Create(c.Request.Context(), nil, book); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (s *Server) handleListBooks(c *gin.Context) {
	filter := storage.BookFilter{
		Category: c.Query("category"),
		Author:   c.Query("author"),
		Limit:    100,
	}
	if v, ok, err := queryInt(c, "limit"); err != nil {
		badRequest(c, "limit must be an integer")
		return
	} else if ok {
		if v < 1 || v > 500 {
			badRequest(c, "limit must be between 1 and 500")
			return
		}
		filter.Limit = v
	}
	if v, ok, err := queryInt(c, "offset"); err != nil {
		badRequest(c, "offset must be an integer")
		return
	} else if ok {
		if v < 0 {
			badRequest(c, "offset must not be negative")
			return
		}
		filter.Offset = v
	}

	books, err := s.books.List(c.Request.Context(), nil, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (s *Server) handleGetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	book, err := s.books.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) handleUpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req bookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	book, err := s.books.GetByID(ctx, nil, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.PublicationYear != nil {
		book.PublicationYear = *req.PublicationYear
	}
	if req.Category != nil {
		book.Category = *req.Category
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.ImageURL != nil {
		book.ImageURL = *req.ImageURL
	}
	if req.Pages != nil {
		book.Pages = *req.Pages
	}
	if req.Weight != nil {
		book.Weight = *req.Weight
	}
	if req.Dimensions != nil {
		book.Dimensions = *req.Dimensions
	}
	if req.IsActive != nil {
		book.IsActive = *req.IsActive
	}

	if err := s.books.Update(ctx, nil, book); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) handleDeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.books.Delete(c.Request.Context(), nil, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

// pathID parses the :id path segment. On failure it writes the error
// response itself.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
