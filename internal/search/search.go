package search

// Snippet is one web-derived insight used to enrich story generation.
type Snippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url,omitempty"`
}

// PlanQueries builds 1-2 search queries from the user's problem and an
// optional scripture hint from the evidence plan.
func PlanQueries(problemText, workHint string) []string {
	if workHint != "" {
		return []string{
			workHint + " story meaning for: " + problemText,
			workHint + " advice act without attachment simple explanation",
		}
	}
	return []string{
		"Indian epic story that helps with: " + problemText,
		"how to handle " + problemText + " spiritual wisdom simple",
	}
}
