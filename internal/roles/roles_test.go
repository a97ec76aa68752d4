package roles

import (
	"errors"
	"slices"
	"testing"
)

func TestDefault_RoleSet(t *testing.T) {
	want := []Role{Admin, Recruiter, Manager, Candidate, Supplier, Referrer}
	got := Default().Roles()
	if !slices.Equal(got, want) {
		t.Errorf("Roles() = %v, want %v", got, want)
	}
	for _, r := range want {
		if !Default().Known(r) {
			t.Errorf("Known(%q) = false, want true", r)
		}
	}
}

func TestDefault_EveryRoleComplete(t *testing.T) {
	reg := Default()
	for _, r := range reg.Roles() {
		prompt, err := reg.SystemPromptFor(r)
		if err != nil {
			t.Fatalf("SystemPromptFor(%q): %v", r, err)
		}
		if prompt == "" {
			t.Errorf("SystemPromptFor(%q) is empty", r)
		}
		tools, err := reg.ToolsFor(r)
		if err != nil {
			t.Fatalf("ToolsFor(%q): %v", r, err)
		}
		if len(tools) == 0 {
			t.Errorf("ToolsFor(%q) is empty", r)
		}
		features, err := reg.FeaturesFor(r)
		if err != nil {
			t.Fatalf("FeaturesFor(%q): %v", r, err)
		}
		if len(features) == 0 {
			t.Errorf("FeaturesFor(%q) is empty", r)
		}
		prompts, err := reg.SuggestedPromptsFor(r)
		if err != nil {
			t.Fatalf("SuggestedPromptsFor(%q): %v", r, err)
		}
		if len(prompts) != 3 {
			t.Errorf("SuggestedPromptsFor(%q) returned %d prompts, want 3", r, len(prompts))
		}
	}
}

func TestUnknownRole(t *testing.T) {
	reg := Default()
	bogus := Role("bogus-role")

	if _, err := reg.SystemPromptFor(bogus); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("SystemPromptFor error = %v, want ErrUnknownRole", err)
	}
	if _, err := reg.ToolsFor(bogus); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("ToolsFor error = %v, want ErrUnknownRole", err)
	}
	if _, err := reg.FeaturesFor(bogus); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("FeaturesFor error = %v, want ErrUnknownRole", err)
	}
	if _, err := reg.SuggestedPromptsFor(bogus); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("SuggestedPromptsFor error = %v, want ErrUnknownRole", err)
	}
	if _, err := reg.CapabilitiesFor(bogus); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("CapabilitiesFor error = %v, want ErrUnknownRole", err)
	}
	if reg.Known(bogus) {
		t.Error("Known(bogus) = true, want false")
	}
	if reg.IsToolAllowed(bogus, "search_candidates") {
		t.Error("IsToolAllowed(bogus, ...) = true, want false")
	}
}

func TestToolsFor_Order(t *testing.T) {
	tools, err := Default().ToolsFor(Recruiter)
	if err != nil {
		t.Fatalf("ToolsFor: %v", err)
	}
	want := []string{
		"search_candidates", "match_requirement", "schedule_interview", "create_submission",
		"generate_outreach", "check_pipeline", "negotiate_rate", "view_analytics",
	}
	if !slices.Equal(tools, want) {
		t.Errorf("ToolsFor(recruiter) = %v, want %v", tools, want)
	}
}

func TestIsToolAllowed_MatchesToolsFor(t *testing.T) {
	reg := Default()
	var all []string
	for _, r := range reg.Roles() {
		tools, _ := reg.ToolsFor(r)
		all = append(all, tools...)
	}
	all = append(all, "drop_database", "")

	for _, r := range reg.Roles() {
		tools, _ := reg.ToolsFor(r)
		for _, tool := range all {
			want := slices.Contains(tools, tool)
			if got := reg.IsToolAllowed(r, tool); got != want {
				t.Errorf("IsToolAllowed(%q, %q) = %v, want %v", r, tool, got, want)
			}
		}
	}
}

func TestIsToolAllowed_Examples(t *testing.T) {
	tests := []struct {
		role Role
		tool string
		want bool
	}{
		{Recruiter, "search_candidates", true},
		{Candidate, "search_candidates", false},
		{Candidate, "search_jobs", true},
		{Admin, "audit_logs", true},
		{Referrer, "audit_logs", false},
		{Manager, "make_offer_decision", true},
		{Supplier, "generate_reports", true},
	}
	for _, tt := range tests {
		if got := Default().IsToolAllowed(tt.role, tt.tool); got != tt.want {
			t.Errorf("IsToolAllowed(%q, %q) = %v, want %v", tt.role, tt.tool, got, tt.want)
		}
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	reg := Default()

	tools, _ := reg.ToolsFor(Admin)
	tools[0] = "hijacked"
	again, _ := reg.ToolsFor(Admin)
	if again[0] == "hijacked" {
		t.Error("ToolsFor returned a slice aliasing registry state")
	}

	features, _ := reg.FeaturesFor(Admin)
	features["hijacked"] = true
	again2, _ := reg.FeaturesFor(Admin)
	if again2["hijacked"] {
		t.Error("FeaturesFor returned a map aliasing registry state")
	}

	prompts, _ := reg.SuggestedPromptsFor(Admin)
	prompts[0].Title = "hijacked"
	again3, _ := reg.SuggestedPromptsFor(Admin)
	if again3[0].Title == "hijacked" {
		t.Error("SuggestedPromptsFor returned a slice aliasing registry state")
	}
}

func TestNew_RoleWithoutTools(t *testing.T) {
	reg := New([]Capabilities{{Role: "observer", SystemPrompt: "watch only"}})

	tools, err := reg.ToolsFor("observer")
	if err != nil {
		t.Fatalf("ToolsFor: %v", err)
	}
	if tools == nil || len(tools) != 0 {
		t.Errorf("ToolsFor(observer) = %#v, want empty non-nil slice", tools)
	}
	if reg.IsToolAllowed("observer", "anything") {
		t.Error("IsToolAllowed on a role without tools = true, want false")
	}
}

func TestNew_CopiesInput(t *testing.T) {
	entry := Capabilities{Role: "x", Tools: []string{"a"}}
	reg := New([]Capabilities{entry})
	entry.Tools[0] = "b"

	if !reg.IsToolAllowed("x", "a") {
		t.Error("registry changed after caller mutated its input")
	}
}
