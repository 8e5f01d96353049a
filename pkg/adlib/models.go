package adlib

// Page is one listing page from either the fragment or the offset
// endpoint, normalized to HTML plus the continuation token. Token is
// empty on the last page.
type Page struct {
	HTML  string `json:"html"`
	Token string `json:"paginationToken"`
}
