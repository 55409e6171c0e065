package model

// ResultKind tags the variant of a SearchResult.
type ResultKind string

const (
	ResultItem  ResultKind = "item"
	ResultGroup ResultKind = "group"
	ResultList  ResultKind = "list"
	ResultTag   ResultKind = "tag"
)

// SearchResult is one hit of a catalog search. Only item results carry Tags
// and Groups.
type SearchResult struct {
	Kind        ResultKind `json:"result_type"`
	ID          int64      `json:"id"`
	ResultID    int64      `json:"result_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Amount      int        `json:"amount_value"`
	Weight      int        `json:"result_weight"`
	Tags        []Tag      `json:"tags,omitempty"`
	Groups      []Group    `json:"groups,omitempty"`
}

// SearchPage is a page of search results plus the junction rows and catalogs
// needed to attach attributes to the item hits.
type SearchPage struct {
	Results    []SearchResult
	ItemTags   []ItemAttribute
	ItemGroups []ItemAttribute
	Tags       []Tag
	Groups     []Group
	Total      int
}
