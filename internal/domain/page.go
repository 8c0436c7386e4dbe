package domain

// PageDescriptor represents the textual metadata collected from a web page
type PageDescriptor struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"` // comma-separated meta keywords
	Snippet     string `json:"snippet"`  // display only, never searched
}

// TokenSet is an ordered list of unique lowercase search tokens
type TokenSet []string

// Contains reports whether the token is part of the set
func (t TokenSet) Contains(token string) bool {
	for _, existing := range t {
		if existing == token {
			return true
		}
	}
	return false
}
