package site

// MenuDraft is the unvalidated menu entry an article declares in its front matter.
// Empty strings and a nil Pos mean "not set".
type MenuDraft struct {
	Title       string
	Description string
	Pos         *int
	Extra       map[string]any
}

// MenuEntry is a menu item after defaults have been applied. All fields are set.
type MenuEntry struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Pos         int            `json:"pos"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// MenuCollection maps a menu name to its entries in display order.
type MenuCollection map[string][]MenuEntry
