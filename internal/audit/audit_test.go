package audit

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/staywatch/internal/filter"
	"github.com/amishk599/staywatch/internal/model"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestRuleChecks(t *testing.T) {
	rules := model.Rules{MinTotalPrice: 100000, MaxTotalPrice: 200000, MinRating: 8.5, RequireFreeCancel: true}

	tests := []struct {
		name     string
		listing  model.Listing
		wantPass []bool // price, rating, cancel
	}{
		{
			name:     "all fields pass",
			listing:  model.Listing{PriceTotal: int64Ptr(150000), Rating: float64Ptr(9.0), FreeCancel: model.Yes},
			wantPass: []bool{true, true, true},
		},
		{
			name:     "absent fields pass",
			listing:  model.Listing{},
			wantPass: []bool{true, true, true},
		},
		{
			name:     "too expensive, low rating, no free cancel",
			listing:  model.Listing{PriceTotal: int64Ptr(200001), Rating: float64Ptr(8.4), FreeCancel: model.No},
			wantPass: []bool{false, false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := RuleChecks(tt.listing, rules)
			if len(checks) != 3 {
				t.Fatalf("got %d checks, want 3", len(checks))
			}
			for i, c := range checks {
				if c.Pass != tt.wantPass[i] {
					t.Errorf("%s: pass = %v, want %v (%s)", c.Rule, c.Pass, tt.wantPass[i], c.Detail)
				}
			}
		})
	}
}

func TestRuleChecks_UnboundedMax(t *testing.T) {
	checks := RuleChecks(model.Listing{PriceTotal: int64Ptr(1500000)}, model.Rules{MaxTotalPrice: math.MaxInt64})
	if !strings.Contains(checks[0].Detail, "∞") {
		t.Errorf("detail = %q, want unbounded marker", checks[0].Detail)
	}
}

func TestRuleChecks_AgreeWithFilter(t *testing.T) {
	rules := []model.Rules{
		{MaxTotalPrice: math.MaxInt64},
		{MinTotalPrice: 100000, MaxTotalPrice: 200000, MinRating: 8.5, RequireFreeCancel: true},
		{MinTotalPrice: 150000, MaxTotalPrice: 150000, MinRating: 9.0},
	}
	prices := []*int64{nil, int64Ptr(99999), int64Ptr(100000), int64Ptr(150000), int64Ptr(200000), int64Ptr(200001)}
	ratings := []*float64{nil, float64Ptr(8.4), float64Ptr(8.5), float64Ptr(9.0)}
	cancels := []model.TriState{model.Unknown, model.Yes, model.No}

	for _, r := range rules {
		for _, p := range prices {
			for _, rt := range ratings {
				for _, c := range cancels {
					l := model.Listing{PriceTotal: p, Rating: rt, FreeCancel: c}
					all := true
					for _, check := range RuleChecks(l, r) {
						all = all && check.Pass
					}
					if want := filter.Match(l, r); all != want {
						t.Errorf("rules %+v listing %+v: checks pass = %v, filter.Match = %v", r, l, all, want)
					}
				}
			}
		}
	}
}

func TestSortListingsByPrice(t *testing.T) {
	ls := []model.Listing{
		{ID: "none"},
		{ID: "high", PriceTotal: int64Ptr(300)},
		{ID: "low", PriceTotal: int64Ptr(100)},
	}
	sortListingsByPrice(ls)
	got := []string{ls[0].ID, ls[1].ID, ls[2].ID}
	if strings.Join(got, ",") != "low,high,none" {
		t.Errorf("order = %v", got)
	}
}

func TestNewAuditModel_SplitsMatches(t *testing.T) {
	listings := []model.Listing{
		{ID: "a", Title: "A", PriceTotal: int64Ptr(150000)},
		{ID: "b", Title: "B", PriceTotal: int64Ptr(900000)},
	}
	m := newAuditModel(listings, model.Rules{MaxTotalPrice: 200000}, model.NewIDSet("a"))

	if len(m.allListings) != 2 || len(m.matchedListings) != 1 || m.matchedListings[0].ID != "a" {
		t.Fatalf("all=%d matched=%v", len(m.allListings), m.matchedListings)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := updated.(auditModel).View()
	if !strings.Contains(view, "Matching Rules (1)") || !strings.Contains(view, "0 would notify") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestPickerModel_Navigation(t *testing.T) {
	m := pickerModel{targets: []Target{{Site: "booking"}, {Site: "agoda"}}, chosen: -1}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})

	final := next.(pickerModel)
	if final.chosen != 1 {
		t.Errorf("chosen = %d, want 1", final.chosen)
	}
	if cmd == nil {
		t.Error("enter should quit the picker")
	}
}
