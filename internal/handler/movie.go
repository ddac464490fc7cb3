package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amrsaid/movie-catalog-api/internal/middleware"
	"github.com/amrsaid/movie-catalog-api/internal/queue"
	"github.com/amrsaid/movie-catalog-api/internal/repository"
	"github.com/amrsaid/movie-catalog-api/internal/storage"
)

const dateLayout = "2006-01-02"

// MovieStore is the slice of the movie repository the handlers need.
type MovieStore interface {
	GetAll(ctx context.Context) ([]repository.Movie, error)
	GetByID(ctx context.Context, id uint64) (*repository.Movie, error)
	Search(ctx context.Context, query string) ([]repository.Movie, error)
	GetByCategory(ctx context.Context, category string) ([]repository.Movie, error)
	GetByDateRange(ctx context.Context, start, end string) ([]repository.Movie, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	GetLatest(ctx context.Context) ([]repository.Movie, error)
	Count(ctx context.Context, category string) (int, error)
	Create(ctx context.Context, m *repository.Movie) error
	Update(ctx context.Context, id uint64, m *repository.Movie) error
	Delete(ctx context.Context, id uint64) error
	ListByIDs(ctx context.Context, ids []uint64) ([]repository.Movie, error)
	DeleteMany(ctx context.Context, ids []uint64) (int, error)
}

// EventPublisher emits catalog change events.  A nil publisher disables
// events entirely.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.MovieEvent) error
}

// MovieHandler bundles dependencies for the movie endpoints.
type MovieHandler struct {
	Movies  MovieStore
	Posters *storage.PosterStore
	Events  EventPublisher // optional
}

func NewMovieHandler(m MovieStore, p *storage.PosterStore, ev EventPublisher) *MovieHandler {
	return &MovieHandler{Movies: m, Posters: p, Events: ev}
}

// movieForm carries the multipart fields shared by create and update.  The
// poster file arrives separately via the "poster" part.
type movieForm struct {
	Title       string  `form:"title" validate:"required,min=2,max=100"`
	Description string  `form:"description" validate:"required,max=500"`
	ReleaseDate string  `form:"releaseDate" validate:"required"`
	Budget      float64 `form:"budget" validate:"required,gt=0"`
	Category    string  `form:"category" validate:"required,max=100"`
}

// checkReleaseDate verifies the YYYY-MM-DD format and rejects dates after
// today.  ISO dates compare correctly as strings.
func checkReleaseDate(s string) error {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return errors.New("release date must be in YYYY-MM-DD format")
	}
	if s > time.Now().UTC().Format(dateLayout) {
		return errors.New("release date cannot be in the future")
	}
	return nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// storeFail logs the underlying error and answers a redacted 500; the raw
// message never reaches the client.
func storeFail(c echo.Context, op string, err error) error {
	log.Printf("movies: %s failed: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "an internal error occurred"})
}

// publish emits a catalog event, logging and ignoring failures so the
// request outcome never depends on the broker.
func (h *MovieHandler) publish(c echo.Context, eventType string, m *repository.Movie) {
	if h.Events == nil {
		return
	}
	actor, _ := c.Get(middleware.CtxUserID).(uint64)
	_ = h.Events.Publish(c.Request().Context(), queue.MovieEvent{
		Type:        eventType,
		MovieID:     m.ID,
		Title:       m.Title,
		Category:    m.Category,
		Budget:      m.Budget,
		ReleaseDate: m.ReleaseDate,
		ActorID:     actor,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// ----- reads -----

func (h *MovieHandler) GetAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.GetAll(ctx)
	if err != nil {
		return storeFail(c, "get all", err)
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No movies found."})
	}
	return c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) Search(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.Search(ctx, c.QueryParam("query"))
	if err != nil {
		return storeFail(c, "search", err)
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No matching movies found."})
	}
	return c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) GetByCategory(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	if category == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Category is required."})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.GetByCategory(ctx, category)
	if err != nil {
		return storeFail(c, "get by category", err)
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "No movies found in category '" + category + "'.",
		})
	}
	return c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) GetCategories(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	categories, err := h.Movies.DistinctCategories(ctx)
	if err != nil {
		return storeFail(c, "get categories", err)
	}
	if len(categories) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No categories found."})
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *MovieHandler) GetLatest(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.GetLatest(ctx)
	if err != nil {
		return storeFail(c, "get latest", err)
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No latest movies found."})
	}
	return c.JSON(http.StatusOK, movies)
}

func (h *MovieHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid movie id."})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found."})
		}
		return storeFail(c, "get by id", err)
	}
	return c.JSON(http.StatusOK, movie)
}

func (h *MovieHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Movies.Count(ctx, c.QueryParam("category"))
	if err != nil {
		return storeFail(c, "count", err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *MovieHandler) GetByDateRange(c echo.Context) error {
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	if _, err := time.Parse(dateLayout, start); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "start must be a date in YYYY-MM-DD format."})
	}
	if _, err := time.Parse(dateLayout, end); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "end must be a date in YYYY-MM-DD format."})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	movies, err := h.Movies.GetByDateRange(ctx, start, end)
	if err != nil {
		return storeFail(c, "get by date range", err)
	}
	if len(movies) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No movies found in the specified date range."})
	}
	return c.JSON(http.StatusOK, movies)
}

// ----- mutations (Admin only) -----

// Create accepts a multipart form with the movie fields and a required
// poster image.  The poster is validated before anything touches disk or
// the database; if the insert fails after the file was written, the file
// is removed again so no orphan survives the request.
func (h *MovieHandler) Create(c echo.Context) error {
	var form movieForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	if err := c.Validate(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validationMessages(err)})
	}
	if err := checkReleaseDate(form.ReleaseDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	fh, err := c.FormFile("poster")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Poster image is required."})
	}
	// Reject before writing: an invalid upload must leave no trace.
	if err := h.Posters.Validate(fh); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	posterURL, err := h.Posters.Save(fh)
	if err != nil {
		if errors.Is(err, storage.ErrPosterTooLarge) || errors.Is(err, storage.ErrPosterType) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		return storeFail(c, "save poster", err)
	}

	movie := repository.Movie{
		Title:       form.Title,
		Description: form.Description,
		PosterURL:   posterURL,
		ReleaseDate: form.ReleaseDate,
		Budget:      form.Budget,
		Category:    form.Category,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Movies.Create(ctx, &movie); err != nil {
		// Compensate: the row never landed, so the file must not stay.
		_ = h.Posters.Remove(posterURL)
		return storeFail(c, "create", err)
	}

	h.publish(c, queue.EventMovieCreated, &movie)
	return c.JSON(http.StatusCreated, movie)
}

// Update overwrites a movie from a multipart form.  The poster is
// optional; when present the new file is written first, and the old file
// is only removed after the row update succeeds.  A failed update removes
// the new file again.
func (h *MovieHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid movie id."})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found."})
		}
		return storeFail(c, "load for update", err)
	}

	var form movieForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	if err := c.Validate(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validationMessages(err)})
	}
	if err := checkReleaseDate(form.ReleaseDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	movie := *existing
	movie.Title = form.Title
	movie.Description = form.Description
	movie.ReleaseDate = form.ReleaseDate
	movie.Budget = form.Budget
	movie.Category = form.Category

	// Optional id field in the payload; a mismatch with the path id is
	// rejected by the repository.
	if idField := c.FormValue("id"); idField != "" {
		payloadID, err := strconv.ParseUint(idField, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid movie id."})
		}
		movie.ID = payloadID
	}
	// Optional concurrency token; defaults to the freshly read version.
	if verField := c.FormValue("version"); verField != "" {
		version, err := strconv.ParseUint(verField, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid version."})
		}
		movie.Version = version
	}

	oldPoster := existing.PosterURL
	newPoster := ""
	if fh, err := c.FormFile("poster"); err == nil {
		if err := h.Posters.Validate(fh); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		newPoster, err = h.Posters.Save(fh)
		if err != nil {
			if errors.Is(err, storage.ErrPosterTooLarge) || errors.Is(err, storage.ErrPosterType) {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
			}
			return storeFail(c, "save poster", err)
		}
		movie.PosterURL = newPoster
	}

	if err := h.Movies.Update(ctx, id, &movie); err != nil {
		if newPoster != "" {
			_ = h.Posters.Remove(newPoster)
		}
		switch {
		case errors.Is(err, repository.ErrIDMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Movie ID does not match."})
		case errors.Is(err, repository.ErrMovieNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found."})
		case errors.Is(err, repository.ErrVersionConflict):
			return c.JSON(http.StatusConflict, echo.Map{"message": "Movie was modified concurrently."})
		}
		return storeFail(c, "update", err)
	}

	if newPoster != "" && oldPoster != "" {
		if err := h.Posters.Remove(oldPoster); err != nil {
			log.Printf("movies: remove old poster %s failed: %v", oldPoster, err)
		}
	}

	h.publish(c, queue.EventMovieUpdated, &movie)
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie updated successfully."})
}

// Delete removes the movie row first and its poster file second, so a
// crash in between can orphan a file but never leave a row pointing at a
// missing image.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid movie id."})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found."})
		}
		return storeFail(c, "load for delete", err)
	}

	if err := h.Movies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Movie not found."})
		}
		return storeFail(c, "delete", err)
	}

	if existing.PosterURL != "" {
		if err := h.Posters.Remove(existing.PosterURL); err != nil {
			log.Printf("movies: remove poster %s failed: %v", existing.PosterURL, err)
		}
	}

	h.publish(c, queue.EventMovieDeleted, existing)
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie deleted successfully."})
}

// BulkDelete removes every movie whose id appears in the JSON body list,
// along with their poster files.
func (h *MovieHandler) BulkDelete(c echo.Context) error {
	var ids []uint64
	if err := c.Bind(&ids); err != nil || len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "A list of movie ids is required."})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	matched, err := h.Movies.ListByIDs(ctx, ids)
	if err != nil {
		return storeFail(c, "load for bulk delete", err)
	}
	if len(matched) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No matching movies found."})
	}

	n, err := h.Movies.DeleteMany(ctx, ids)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "No matching movies found."})
		}
		return storeFail(c, "bulk delete", err)
	}

	for i := range matched {
		if matched[i].PosterURL != "" {
			if err := h.Posters.Remove(matched[i].PosterURL); err != nil {
				log.Printf("movies: remove poster %s failed: %v", matched[i].PosterURL, err)
			}
		}
		h.publish(c, queue.EventMovieDeleted, &matched[i])
	}

	return c.JSON(http.StatusOK, echo.Map{"message": strconv.Itoa(n) + " movies deleted successfully."})
}

type suggestReq struct {
	Text string `json:"text"`
}

// SuggestCategoryHandler returns a genre suggestion for a free-text
// description using the ordered keyword rules.
func (h *MovieHandler) SuggestCategoryHandler(c echo.Context) error {
	var req suggestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Input is required."})
	}
	return c.JSON(http.StatusOK, SuggestCategory(req.Text))
}
