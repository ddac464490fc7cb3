// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Event type values published on the catalog queue.
const (
	EventMovieCreated = "movie.created"
	EventMovieUpdated = "movie.updated"
	EventMovieDeleted = "movie.deleted"
)

// MovieEvent is published whenever a movie is created, updated or deleted.
// It carries enough information for downstream consumers to log or trigger
// analytics without querying the primary database.  For bulk deletes one
// event is published per removed movie.
type MovieEvent struct {
	Type        string  `json:"type"`
	MovieID     uint64  `json:"movie_id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Budget      float64 `json:"budget"`
	ReleaseDate string  `json:"release_date"`
	ActorID     uint64  `json:"actor_id"` // user who performed the change
	OccurredAt  string  `json:"occurred_at"`
}
