package listing

import (
	"reflect"
	"testing"
	"time"

	"github.com/reportcentral/console/internal/core/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func fixture() []domain.User {
	day := 24 * time.Hour
	return []domain.User{
		{ID: 1, FullName: "alice Smith", Username: "asmith", Email: "alice@corp.kz", Role: domain.RoleAdmin, ShowInSelection: true, IsOnline: true, LastSeen: ago(time.Hour), CreatedAt: now.Add(-90 * day)},
		{ID: 2, FullName: "Bob Jones", Username: "bjones", Email: "bob@corp.kz", Role: domain.RoleModerator, ShowInSelection: true, IsFirstLogin: true, RequirePasswordChange: true, CreatedAt: now.Add(-2 * day)},
		{ID: 3, FullName: "Carol White", Username: "cwhite", Email: "carol@mail.kz", Role: domain.RoleUser, ShowInSelection: false, LastSeen: ago(45 * day), CreatedAt: now.Add(-60 * day)},
		{ID: 4, FullName: "dave Brown", Username: "dbrown", Email: "", Role: domain.RoleUser, ShowInSelection: true, IsOnline: true, LastSeen: ago(2 * day), CreatedAt: now.Add(-10 * day)},
	}
}

func ids(users []domain.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestProject_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	users := fixture()

	cases := map[string][]int64{
		"ALICE":   {1},
		"jones":   {2},
		"mail.kz": {3},
		"BROWN":   {4},
		"corp":    {1, 2},
		"zzz":     {},
	}
	for search, want := range cases {
		got := Project(users, Query{Search: search, Now: now})
		if !reflect.DeepEqual(ids(got.Items), want) {
			t.Errorf("search %q: expected %v, got %v", search, want, ids(got.Items))
		}
		if got.Total != len(want) {
			t.Errorf("search %q: expected total %d, got %d", search, len(want), got.Total)
		}
	}
}

func TestProject_Filters(t *testing.T) {
	users := fixture()
	online := true

	if got := ids(Project(users, Query{Role: domain.RoleUser, Now: now}).Items); !reflect.DeepEqual(got, []int64{3, 4}) {
		t.Errorf("role filter: %v", got)
	}
	if got := ids(Project(users, Query{Status: domain.StatusPending, Now: now}).Items); !reflect.DeepEqual(got, []int64{2}) {
		t.Errorf("status filter: %v", got)
	}
	if got := ids(Project(users, Query{Status: domain.StatusHidden, Now: now}).Items); !reflect.DeepEqual(got, []int64{3}) {
		t.Errorf("hidden filter: %v", got)
	}
	if got := ids(Project(users, Query{Online: &online, Now: now}).Items); !reflect.DeepEqual(got, []int64{1, 4}) {
		t.Errorf("online filter: %v", got)
	}
}

func TestProject_QuickFilters(t *testing.T) {
	users := fixture()

	cases := map[QuickFilter][]int64{
		QuickOnline:         {1, 4},
		QuickNew:            {2},
		QuickInactive:       {2, 3},
		QuickPasswordChange: {2},
	}
	for quick, want := range cases {
		got := ids(Project(users, Query{Quick: quick, Now: now}).Items)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("quick %s: expected %v, got %v", quick, want, got)
		}
	}
}

func TestProject_SortByStatusUsesOrdinal(t *testing.T) {
	got := ids(Project(fixture(), Query{SortField: SortStatus, SortDir: Asc, Now: now}).Items)
	// hidden(3) < pending(2) < active(1,4 by id)
	if !reflect.DeepEqual(got, []int64{3, 2, 1, 4}) {
		t.Fatalf("unexpected status order: %v", got)
	}
}

func TestProject_SortStringsIgnoreCase(t *testing.T) {
	got := ids(Project(fixture(), Query{SortField: SortFullName, SortDir: Asc, Now: now}).Items)
	if !reflect.DeepEqual(got, []int64{1, 2, 3, 4}) {
		t.Fatalf("unexpected name order: %v", got)
	}
}

func TestProject_SortBooleansAndDates(t *testing.T) {
	users := fixture()

	online := ids(Project(users, Query{SortField: SortOnline, SortDir: Asc, Now: now}).Items)
	if !reflect.DeepEqual(online, []int64{2, 3, 1, 4}) {
		t.Errorf("online order: %v", online)
	}

	// never-seen (2) sorts first
	seen := ids(Project(users, Query{SortField: SortLastSeen, SortDir: Asc, Now: now}).Items)
	if !reflect.DeepEqual(seen, []int64{2, 3, 4, 1}) {
		t.Errorf("last_seen order: %v", seen)
	}

	created := ids(Project(users, Query{SortField: SortCreatedAt, SortDir: Desc, Now: now}).Items)
	if !reflect.DeepEqual(created, []int64{2, 4, 3, 1}) {
		t.Errorf("created_at desc order: %v", created)
	}
}

func TestProject_DescReversesAsc(t *testing.T) {
	users := fixture()
	for _, field := range []SortField{SortFullName, SortUsername, SortCreatedAt, SortStatus, SortOnline} {
		asc := ids(Project(users, Query{SortField: field, SortDir: Asc, Now: now}).Items)
		desc := ids(Project(users, Query{SortField: field, SortDir: Desc, Now: now}).Items)
		for i := range asc {
			if asc[i] != desc[len(desc)-1-i] {
				t.Fatalf("%s: desc %v is not the reverse of asc %v", field, desc, asc)
			}
		}
	}
}

func TestProject_Idempotent(t *testing.T) {
	users := fixture()
	q := Query{Search: "o", SortField: SortEmail, SortDir: Desc, Page: 1, PageSize: 2, Now: now}

	first := Project(users, q)
	second := Project(users, q)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projection not idempotent:\n%+v\n%+v", first, second)
	}
	if ids(users)[0] != 1 {
		t.Fatalf("input slice was reordered")
	}
}

func TestProject_Pagination(t *testing.T) {
	users := fixture()

	p := Project(users, Query{SortField: SortID, Page: 2, PageSize: 3, Now: now})
	if !reflect.DeepEqual(ids(p.Items), []int64{4}) || p.Total != 4 || p.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", p)
	}

	beyond := Project(users, Query{Page: 9, PageSize: 3, Now: now})
	if len(beyond.Items) != 0 || beyond.Total != 4 {
		t.Fatalf("expected empty page beyond range, got %+v", beyond)
	}

	def := Project(users, Query{Now: now})
	if def.PageSize != DefaultPageSize || def.Page != 1 {
		t.Fatalf("expected defaults, got page=%d size=%d", def.Page, def.PageSize)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture())
	if got != (Stats{Total: 4, Online: 2, Admins: 1}) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestRoleLabel(t *testing.T) {
	labels := RoleLabels()
	if len(labels) != 3 || labels[domain.RoleModerator] != "Moderator" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if RoleLabel(domain.Role("auditor")) != "auditor" {
		t.Fatalf("unknown roles should show verbatim")
	}
}
