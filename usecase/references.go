// usecase/references.go
package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vitovidale/video-catalog-service/domain"
)

// References checks the foreign ids a video points at. A nil checker skips
// its kind.
type References struct {
	Categories  domain.ReferenceChecker
	Genres      domain.ReferenceChecker
	CastMembers domain.ReferenceChecker
}

// Validate appends one error per reference kind with missing ids. The
// returned error is an infrastructure failure, not a validation outcome.
func (r References) Validate(ctx context.Context, n *domain.Notification, categories []domain.CategoryID, genres []domain.GenreID, castMembers []domain.CastMemberID) error {
	if err := validateReferences(ctx, n, "categories", categories, r.Categories); err != nil {
		return err
	}
	if err := validateReferences(ctx, n, "genres", genres, r.Genres); err != nil {
		return err
	}
	return validateReferences(ctx, n, "cast members", castMembers, r.CastMembers)
}

func validateReferences[T ~string](ctx context.Context, n *domain.Notification, kind string, ids []T, checker domain.ReferenceChecker) error {
	wanted := uniqueStrings(ids)
	if len(wanted) == 0 || checker == nil {
		return nil
	}

	found, err := checker.ExistsByIDs(ctx, wanted)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", kind, err)
	}
	present := make(map[string]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []string
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		n.AppendMessage(fmt.Sprintf("Some %s could not be found: %s", kind, strings.Join(missing, ", ")))
	}
	return nil
}

// uniqueStrings trims, drops empty ids, dedupes and sorts.
func uniqueStrings[T ~string](ids []T) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s := strings.TrimSpace(string(id))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func toIDs[T ~string](ids []string) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = T(id)
	}
	return out
}
