package domain

// LookupOutcome classifies the result of a game details lookup.
type LookupOutcome int

const (
	DetailsFound LookupOutcome = iota
	DetailsNotFound
	DetailsLookupFailed
)

// String returns the metric label for the outcome.
func (o LookupOutcome) String() string {
	switch o {
	case DetailsFound:
		return "found"
	case DetailsNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// DetailsLookup is the result of asking the document store for a game's
// details. Only a Found lookup carries Details; a Failed lookup carries Err.
type DetailsLookup struct {
	Outcome LookupOutcome
	Details *GameDetails
	Err     error
}

// Found wraps a successful lookup.
func Found(d *GameDetails) DetailsLookup {
	if d == nil {
		return NotFound()
	}
	return DetailsLookup{Outcome: DetailsFound, Details: d}
}

// NotFound reports that no details exist for the game.
func NotFound() DetailsLookup { return DetailsLookup{Outcome: DetailsNotFound} }

// LookupFailed reports that the document store could not answer.
func LookupFailed(err error) DetailsLookup {
	return DetailsLookup{Outcome: DetailsLookupFailed, Err: err}
}

// CatalogGame is a relational game row optionally merged with its details.
// The row fields are flattened into the JSON object; details appear under
// "details" only when the lookup succeeded.
type CatalogGame struct {
	Game
	Details *GameDetails `json:"details,omitempty"`
}

// Enrich merges a lookup into the row. Non-found outcomes yield the bare row.
func Enrich(g Game, l DetailsLookup) CatalogGame {
	out := CatalogGame{Game: g}
	if l.Outcome == DetailsFound {
		out.Details = l.Details
	}
	return out
}
