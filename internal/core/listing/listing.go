// Package listing derives the filtered, sorted and paginated view of the
// user collection. Project is stateless: callers reset the page index when
// filters change.
package listing

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/reportcentral/console/internal/core/domain"
)

const DefaultPageSize = 20

// SortField names a sortable column.
type SortField string

const (
	SortID                    SortField = "id"
	SortFullName              SortField = "full_name"
	SortUsername              SortField = "username"
	SortEmail                 SortField = "email"
	SortRole                  SortField = "role"
	SortStatus                SortField = "status"
	SortOnline                SortField = "is_online"
	SortRequirePasswordChange SortField = "require_password_change"
	SortLastSeen              SortField = "last_seen"
	SortCreatedAt             SortField = "created_at"
	SortUpdatedAt             SortField = "updated_at"
)

// Valid reports whether f names a sortable column.
func (f SortField) Valid() bool {
	switch f {
	case SortID, SortFullName, SortUsername, SortEmail, SortRole, SortStatus, SortOnline,
		SortRequirePasswordChange, SortLastSeen, SortCreatedAt, SortUpdatedAt:
		return true
	}
	return false
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Query holds the UI-selected predicates. Zero values mean "no filter".
type Query struct {
	Search    string
	Role      domain.Role
	Status    domain.Status
	Online    *bool
	Quick     QuickFilter
	SortField SortField
	SortDir   Direction
	Page      int
	PageSize  int
	// Now anchors the time-based quick filters; zero means time.Now().
	Now time.Time
}

// Page is one page of the projection plus the filtered total.
type Page struct {
	Items      []domain.User `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// Project filters, sorts and paginates users. The input slice is not
// modified.
func Project(users []domain.User, q Query) Page {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	filtered := make([]domain.User, 0, len(users))
	for _, u := range users {
		if matches(u, q, now) {
			filtered = append(filtered, u)
		}
	}

	if q.SortField != "" {
		slices.SortStableFunc(filtered, comparator(q.SortField, q.SortDir))
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	total := len(filtered)
	start := (page - 1) * size
	items := []domain.User{}
	if start < total {
		end := min(start+size, total)
		items = filtered[start:end]
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
}

func matches(u domain.User, q Query, now time.Time) bool {
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		if !strings.Contains(strings.ToLower(u.FullName), s) &&
			!strings.Contains(strings.ToLower(u.Username), s) &&
			!strings.Contains(strings.ToLower(u.Email), s) {
			return false
		}
	}
	if q.Role != "" && u.Role != q.Role {
		return false
	}
	if q.Status != "" && u.Status() != q.Status {
		return false
	}
	if q.Online != nil && u.IsOnline != *q.Online {
		return false
	}
	return q.Quick.match(u, now)
}

// comparator returns a total order for field; ties fall back to id so that
// Desc is the exact reverse of Asc.
func comparator(field SortField, dir Direction) func(a, b domain.User) int {
	key := compareBy(field)
	return func(a, b domain.User) int {
		c := key(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if dir == Desc {
			return -c
		}
		return c
	}
}

func compareBy(field SortField) func(a, b domain.User) int {
	switch field {
	case SortFullName:
		return func(a, b domain.User) int { return foldCompare(a.FullName, b.FullName) }
	case SortUsername:
		return func(a, b domain.User) int { return foldCompare(a.Username, b.Username) }
	case SortEmail:
		return func(a, b domain.User) int { return foldCompare(a.Email, b.Email) }
	case SortRole:
		return func(a, b domain.User) int { return foldCompare(string(a.Role), string(b.Role)) }
	case SortStatus:
		return func(a, b domain.User) int { return cmp.Compare(a.Status().Ordinal(), b.Status().Ordinal()) }
	case SortOnline:
		return func(a, b domain.User) int { return cmp.Compare(bit(a.IsOnline), bit(b.IsOnline)) }
	case SortRequirePasswordChange:
		return func(a, b domain.User) int {
			return cmp.Compare(bit(a.RequirePasswordChange), bit(b.RequirePasswordChange))
		}
	case SortLastSeen:
		return func(a, b domain.User) int { return instant(a.LastSeen).Compare(instant(b.LastSeen)) }
	case SortCreatedAt:
		return func(a, b domain.User) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortUpdatedAt:
		return func(a, b domain.User) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) }
	}
}

func foldCompare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func bit(v bool) int {
	if v {
		return 1
	}
	return 0
}

func instant(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
