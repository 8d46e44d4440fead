package logseq

// Page is a named top-level unit in the graph. Timestamps live on the
// backing file, not here; see the resolver package.
type Page struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName,omitempty"`
	UUID         string `json:"uuid,omitempty"`
	Journal      bool   `json:"journal?"`
	JournalDay   int    `json:"journalDay,omitempty"`
}

// PageRef is a weak reference to a page carried on a block.
type PageRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// BlockRef is a weak reference to another block by database id.
type BlockRef struct {
	ID int `json:"id,omitempty"`
}

// Block is an atomic content unit within a page.
type Block struct {
	UUID       string         `json:"uuid"`
	Content    string         `json:"content"`
	Properties map[string]any `json:"properties,omitempty"`
	Parent     *BlockRef      `json:"parent,omitempty"`
	Page       *PageRef       `json:"page,omitempty"`
	Children   []Block        `json:"children,omitempty"`
}

// PageName returns the owning page name, or "" when the API did not
// annotate the block with one.
func (b *Block) PageName() string {
	if b.Page == nil {
		return ""
	}
	return b.Page.Name
}

// Graph describes the currently open graph.
type Graph struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}
