package recommend

import (
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
)

type yearRange struct {
	start, end int
}

func (r yearRange) term() string {
	return fmt.Sprintf("year:%d-%d", r.start, r.end)
}

// eraYears maps each era bucket to its inclusive year range.
var eraYears = map[models.Era]yearRange{
	models.Era2020s:  {2020, 2025},
	models.Era2010s:  {2010, 2019},
	models.Era2000s:  {2000, 2009},
	models.Era1990s:  {1990, 1999},
	models.Era1980s:  {1980, 1989},
	models.Era1970s:  {1970, 1979},
	models.Era1960s:  {1960, 1969},
	models.EraOldies: {1900, 1959},
}

// YearFilter returns the `year:` filter for era, or "" for an unknown or empty era.
func YearFilter(era models.Era) string {
	r, ok := eraYears[era]
	if !ok {
		return ""
	}
	return r.term()
}

// BuildQuery turns criteria into the provider's search text.
//
// Terms appear in the order genre, era, language. The genre is lower-cased with whitespace runs replaced by hyphens
// and the language is used verbatim; neither is a field filter. Criteria that produce no terms yield [ErrEmptyCriteria].
func BuildQuery(c models.SearchCriteria) (string, error) {
	terms := make([]string, 0, 3)

	if genre := strings.Fields(strings.ToLower(c.Genre)); len(genre) > 0 {
		terms = append(terms, strings.Join(genre, "-"))
	}
	if year := YearFilter(c.Era); year != "" {
		terms = append(terms, year)
	}
	if strings.TrimSpace(c.Language) != "" {
		terms = append(terms, c.Language)
	}

	query := strings.TrimSpace(strings.Join(terms, " "))
	if query == "" {
		return "", ErrEmptyCriteria
	}
	return query, nil
}
