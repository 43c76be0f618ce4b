// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// UserBadge identifies the signed-in farmer in the page header.
type UserBadge struct {
	Name     string
	Village  string
	Language string
}

// Label is the header text: the name, then the village when one is set.
func (b UserBadge) Label() string {
	if b.Village == "" {
		return b.Name
	}
	return b.Name + ", " + b.Village
}

// DiagnosisCard holds presentation-ready data for a diagnosis in the history list.
type DiagnosisCard struct {
	ID         string
	CropName   string
	Disease    string
	Severity   string
	IsHealthy  bool
	Confidence int // percent
	CreatedAt  string
	DetailPath string
}

// DiagnosisDetail holds the full diagnosis panel.
type DiagnosisDetail struct {
	DiagnosisCard

	SummaryHTML string
	Symptoms    []string
	Causes      []string
	Treatment   []string
	Prevention  []string
}

// GuideLink is an entry in the guide list.
type GuideLink struct {
	Crop   string
	Title  string
	Season string
	Path   string
}

// GuidePage holds a rendered cultivation guide. ContentHTML is sanitized.
type GuidePage struct {
	Crop        string
	Title       string
	Language    string
	Season      string
	SoilType    string
	Duration    string
	ContentHTML string
	Generated   bool
}

// LoginForm holds the login page state.
type LoginForm struct {
	CSRFToken  string
	Identifier string
	Error      string
}

// IndexPage holds the home page content.
type IndexPage struct {
	Diagnoses []DiagnosisCard
	Guides    []GuideLink
}
